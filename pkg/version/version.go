// Package version reports the ecodetect build version.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Set at build time with -ldflags "-X github.com/ecodetect/ecodetect/pkg/version.version=...".
//
//nolint:gochecknoglobals // populated by the linker
var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the version string without a leading "v".
func GetVersion() string {
	return strings.TrimPrefix(version, "v")
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string { return gitCommit }

// GetBuildDate returns when the binary was built.
func GetBuildDate() string { return buildDate }

// Semver parses the build version.
func Semver() (*semver.Version, error) {
	v, err := semver.NewVersion(GetVersion())
	if err != nil {
		return nil, fmt.Errorf("parsing build version %q: %w", version, err)
	}
	return v, nil
}

// Satisfies reports whether v meets the constraint expression c.
func Satisfies(v, c string) (bool, error) {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", v, err)
	}
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", c, err)
	}
	return constraint.Check(sv), nil
}

// Info is the full build description.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build description.
func Get() Info {
	return Info{
		Version:   GetVersion(),
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("ecodetect %s (commit %s, built %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
