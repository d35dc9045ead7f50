package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ecodetect/ecodetect/internal/config"
)

// OutputFormat selects how command results are written.
type OutputFormat string

// Supported output formats.
const (
	OutputTable  OutputFormat = "table"
	OutputJSON   OutputFormat = "json"
	OutputNDJSON OutputFormat = "ndjson"
)

var errUnknownFormat = constError("unknown output format")

type constError string

func (e constError) Error() string { return string(e) }

// resolveOutputFormat returns the flag value when set, else the configured default.
func resolveOutputFormat(flag string) (OutputFormat, error) {
	raw := flag
	if raw == "" {
		raw = config.GetDefaultOutputFormat()
	}
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case OutputTable, OutputJSON, OutputNDJSON:
		return f, nil
	case "":
		return OutputTable, nil
	default:
		return "", fmt.Errorf("%w: %q (use table, json or ndjson)", errUnknownFormat, raw)
	}
}

// writeStructured writes v as indented JSON or as one compact NDJSON line.
func writeStructured(w io.Writer, format OutputFormat, v any) error {
	enc := json.NewEncoder(w)
	if format == OutputJSON {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
