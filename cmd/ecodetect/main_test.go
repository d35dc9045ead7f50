package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecodetect/ecodetect/internal/cli"
	"github.com/ecodetect/ecodetect/internal/thresholds"
	"github.com/ecodetect/ecodetect/pkg/version"
)

func TestRootCommand(t *testing.T) {
	root := cli.NewRootCmd(version.GetVersion())
	assert.Equal(t, "ecodetect", root.Use)
	assert.Equal(t, version.GetVersion(), root.Version)

	for _, name := range []string{"footprint", "emissions", "thresholds", "watch", "serve", "config", "version"} {
		cmd, _, err := root.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}

func TestExtractExitCode(t *testing.T) {
	breach := &cli.ThresholdExitError{
		ExitCode: cli.ExitCodeThresholdBreach,
		Breaches: []thresholds.Breach{{Alert: thresholds.TemperatureHigh, Value: 30, Limit: 25}},
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: 0},
		{name: "threshold breach", err: breach, want: 2},
		{name: "wrapped breach", err: fmt.Errorf("check: %w", breach), want: 2},
		{name: "joined breach", err: errors.Join(errors.New("outer"), breach), want: 2},
		{name: "custom code", err: &cli.ThresholdExitError{ExitCode: 42}, want: 42},
		{name: "generic error", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractExitCode(tt.err))
		})
	}
}
