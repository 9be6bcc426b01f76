// Package version carries build metadata stamped by the linker.
package version

import "fmt"

// Populated via -ldflags at build time; see the Build mage target.
var (
	Version    = "1.0.0"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String returns the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("ai-test-runner %s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
