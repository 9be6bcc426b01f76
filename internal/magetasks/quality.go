package magetasks

import "fmt"

// QualityCheck is the pre-release gate: lint, test, build, in that order.
// Lint findings warn; test and build failures stop the gate.
func QualityCheck() error {
	PrintH2Header("Quality Checks")

	if err := LintAll(); err != nil {
		PrintWarning("Linting issues found")
	}
	if err := TestAll(); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}
	if err := BuildAll(); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	PrintSuccess("Quality checks complete")
	return nil
}
