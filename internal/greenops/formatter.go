package greenops

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer adds thousands separators.
//
//nolint:gochecknoglobals // message.Printer is safe for concurrent use
var printer = message.NewPrinter(language.English)

// FormatNumber formats n with thousands separators.
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat rounds f to precision decimals and adds thousands separators
// to the integer part.
func FormatFloat(f float64, precision int) string {
	if precision <= 0 {
		return FormatNumber(int64(math.Round(f)))
	}
	s := strconv.FormatFloat(f, 'f', precision, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	out := FormatNumber(n) + "." + frac
	if n == 0 && strings.HasPrefix(intPart, "-") {
		out = "-" + out
	}
	return out
}

// FormatLarge abbreviates values in the millions or billions.
func FormatLarge(n float64) string {
	switch {
	case n >= BillionThreshold:
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	case n >= LargeNumberThreshold:
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	default:
		return FormatNumber(int64(math.Round(n)))
	}
}

// FormatKg renders a CO2 mass, switching to grams below one kilogram.
func FormatKg(kg float64) string {
	switch {
	case kg > 0 && kg < MinDisplayThresholdKg:
		return "<1 g"
	case kg < 1:
		return FormatNumber(int64(math.Round(kg*1000))) + " g"
	default:
		return FormatFloat(kg, 2) + " kg"
	}
}

func formatValue(v float64, precision int) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatFloat(v, precision)
}
