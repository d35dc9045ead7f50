// Command ecodetect estimates environmental footprint and vehicle emissions
// from EcoDetect sensor data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ecodetect/ecodetect/internal/cli"
	"github.com/ecodetect/ecodetect/pkg/version"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(extractExitCode(err))
	}
}

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.ExecuteContext(context.Background())
}

// extractExitCode maps err to a process exit status: 0 for nil, the carried
// code for a threshold breach, 1 otherwise.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var thresholdErr *cli.ThresholdExitError
	if errors.As(err, &thresholdErr) {
		return thresholdErr.ExitCode
	}
	return 1
}
