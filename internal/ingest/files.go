package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/sensorapi"
)

// Format is a file encoding.
type Format string

// Supported formats.
const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
)

const maxLineBytes = 1 << 20

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadHistory reads a movement history from a .json or .ndjson file.
func LoadHistory(ctx context.Context, path string) ([]estimator.MovementSample, error) {
	log := logging.FromContext(ctx)

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	samples, err := DecodeHistory(f, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log.Debug().Ctx(ctx).
		Str("component", "ingest").
		Str("operation", "load_history").
		Str("path", path).
		Int("samples", len(samples)).
		Msg("movement history loaded")
	return samples, nil
}

// DecodeHistory decodes movement samples. JSON input may be a bare array or
// an object with a "data" array.
func DecodeHistory(r io.Reader, format Format) ([]estimator.MovementSample, error) {
	switch format {
	case FormatJSON:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			var wrapped struct {
				Data []estimator.MovementSample `json:"data"`
			}
			if err := json.Unmarshal(raw, &wrapped); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
			return wrapped.Data, nil
		}
		var samples []estimator.MovementSample
		if err := json.Unmarshal(raw, &samples); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return samples, nil
	case FormatNDJSON:
		return decodeNDJSON[estimator.MovementSample](r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadSnapshot reads a sensor reading from a JSON file. An NDJSON file
// yields its last line, matching a device log.
func LoadSnapshot(ctx context.Context, path string) (sensorapi.SensorReading, error) {
	log := logging.FromContext(ctx)

	format, err := FormatFromPath(path)
	if err != nil {
		return sensorapi.SensorReading{}, err
	}
	raw, err := os.ReadFile(path) //nolint:gosec // path is user supplied
	if err != nil {
		return sensorapi.SensorReading{}, fmt.Errorf("reading snapshot file: %w", err)
	}

	var reading sensorapi.SensorReading
	switch format {
	case FormatNDJSON:
		readings, decErr := decodeNDJSON[sensorapi.SensorReading](bytes.NewReader(raw))
		if decErr != nil {
			return sensorapi.SensorReading{}, decErr
		}
		if len(readings) == 0 {
			return sensorapi.SensorReading{}, fmt.Errorf("%w: %s is empty", ErrInvalidPayload, path)
		}
		reading = readings[len(readings)-1]
	default:
		reading, err = DecodePayload(raw)
		if err != nil {
			return sensorapi.SensorReading{}, err
		}
	}

	log.Debug().Ctx(ctx).
		Str("component", "ingest").
		Str("operation", "load_snapshot").
		Str("path", path).
		Msg("sensor snapshot loaded")
	return reading, nil
}

func decodeNDJSON[T any](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []T
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(text, &v); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidPayload, line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}
