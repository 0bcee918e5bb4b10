// Package terminal provides helpers for detecting terminal capabilities and
// determining whether the current process should be treated as interactive
// or running in a CI/non-interactive environment.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// ciEnvVars contains common CI environment variables
var ciEnvVars = []string{
	"CI",                     // Generic CI indicator
	"CONTINUOUS_INTEGRATION", // Generic CI indicator
	"GITHUB_ACTIONS",         // GitHub Actions
	"TRAVIS",                 // Travis CI
	"CIRCLECI",               // Circle CI
	"JENKINS_URL",            // Jenkins
	"BUILD_NUMBER",           // Jenkins/TeamCity/etc
	"GITLAB_CI",              // GitLab CI
	"BUILDKITE",              // Buildkite
	"DRONE",                  // Drone CI
}

// DetectorOptions contains options for controlling interactive detection
type DetectorOptions struct {
	ForceInteractive    bool // Force interactive mode regardless of environment
	ForceNonInteractive bool // Force non-interactive mode regardless of environment
}

// Detector reports terminal capabilities for the current process.
type Detector struct {
	options DetectorOptions
}

// NewDetector creates a new detector with the given options
func NewDetector(options DetectorOptions) *Detector {
	return &Detector{options: options}
}

// IsInteractive returns true if the current environment is interactive.
// Command line overrides take precedence, then CI detection, then a real
// terminal check on stderr (where interactive messages are written).
func (d *Detector) IsInteractive() bool {
	if d.options.ForceInteractive {
		return true
	}
	if d.options.ForceNonInteractive {
		return false
	}
	if d.IsCIEnvironment() {
		return false
	}
	return d.IsTerminal()
}

// IsTerminal returns true if stderr is attached to a terminal
func (d *Detector) IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// IsCIEnvironment returns true if a known CI environment variable is set
func (d *Detector) IsCIEnvironment() bool {
	for _, name := range ciEnvVars {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// SupportsColor returns true when colored output is appropriate: an
// interactive terminal with NO_COLOR unset and TERM not "dumb".
func (d *Detector) SupportsColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return d.IsInteractive()
}
