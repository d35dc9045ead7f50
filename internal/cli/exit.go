package cli

import (
	"fmt"
	"strings"

	"github.com/ecodetect/ecodetect/internal/thresholds"
)

// ExitCodeThresholdBreach is returned when a reading violates the alert thresholds.
const ExitCodeThresholdBreach = 2

// ThresholdExitError carries a process exit code for threshold violations
// from a command to main.
type ThresholdExitError struct {
	ExitCode int
	Breaches []thresholds.Breach
}

func (e *ThresholdExitError) Error() string {
	parts := make([]string, 0, len(e.Breaches))
	for _, b := range e.Breaches {
		parts = append(parts, b.String())
	}
	return fmt.Sprintf("%d threshold breach(es): %s", len(e.Breaches), strings.Join(parts, "; "))
}

// checkBreaches returns a ThresholdExitError when breaches is non-empty.
func checkBreaches(breaches []thresholds.Breach) error {
	if len(breaches) == 0 {
		return nil
	}
	return &ThresholdExitError{ExitCode: ExitCodeThresholdBreach, Breaches: breaches}
}
