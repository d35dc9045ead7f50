package estimator

import (
	"fmt"
	"strings"
)

// TimeRange is the reporting window for emissions summaries.
type TimeRange string

// Supported time ranges.
const (
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
)

// AllTimeRanges returns the supported ranges in display order.
func AllTimeRanges() []TimeRange {
	return []TimeRange{RangeDay, RangeWeek, RangeMonth}
}

// ParseTimeRange converts a case-insensitive name into a TimeRange.
func ParseTimeRange(s string) (TimeRange, error) {
	tr := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	if !tr.IsValid() {
		return "", fmt.Errorf("%w: %q (expected day, week or month)", ErrInvalidTimeRange, s)
	}
	return tr, nil
}

// IsValid reports whether tr is a supported range.
func (tr TimeRange) IsValid() bool {
	switch tr {
	case RangeDay, RangeWeek, RangeMonth:
		return true
	default:
		return false
	}
}

// Hours returns the history window used when fetching movement samples.
func (tr TimeRange) Hours() int {
	switch tr {
	case RangeWeek:
		return 168
	case RangeMonth:
		return 720
	default:
		return 24
	}
}

// TrendDays returns how many daily points the synthetic trend carries.
func (tr TimeRange) TrendDays() int {
	if tr == RangeMonth {
		return 30
	}
	return 7
}
