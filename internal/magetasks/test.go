package magetasks

// TestAll runs the full test suite.
func TestAll() error {
	PrintH2Header("Tests")

	if err := run("Go Test", "go", "test", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}

	PrintSuccess("All tests passed")
	return nil
}

// TestCoverage runs tests with a coverage profile and prints the per-function
// summary.
func TestCoverage() error {
	PrintH2Header("Test Coverage")

	if err := run("Go Test", "go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}
	_ = run("Coverage Summary", "go", "tool", "cover", "-func=coverage.out")

	PrintSuccess("Coverage report generated")
	return nil
}

// TestRace runs tests under the race detector.
func TestRace() error {
	PrintH2Header("Race Detector")

	if err := run("Go Test", "go", "test", "-race", "./..."); err != nil {
		PrintError("Race detector found issues")
		return err
	}

	PrintSuccess("No race conditions detected")
	return nil
}
