// Package report renders and persists the per-binary text artifacts of a
// run. The format is a stable contract: downstream tooling greps these
// files, so the section layout never varies with the result's content
// beyond the optional ERRORS block.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/SwathantraPulicherla/ai-test-runner/pkg/unityout"
)

const (
	bannerWidth  = 60
	sectionWidth = 20
	errorsWidth  = 10

	// reportPattern matches report artifacts from any previous run.
	reportPattern = "*_report.txt"
	reportSuffix  = "_report.txt"
)

// TestResult records one executed test binary. Immutable once recorded.
type TestResult struct {
	Name     string
	ExitCode int
	Stdout   string
	Stderr   string
	Tally    unityout.Tally
	TimedOut bool
	Duration time.Duration
}

// Success reports whether the binary exited zero. Individual assertion
// failures normally drive the exit code too, so this is the per-executable
// verdict.
func (r TestResult) Success() bool {
	return r.ExitCode == 0
}

// Render produces the report text for one result.
func Render(res TestResult) string {
	banner := strings.Repeat("=", bannerWidth)
	rule := strings.Repeat("-", sectionWidth)

	status := "FAILED"
	if res.Success() {
		status = "PASSED"
	}

	var b strings.Builder
	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "TEST REPORT: %s\n", res.Name)
	b.WriteString(banner + "\n\n")

	b.WriteString("EXECUTION SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Test Executable: %s\n", res.Name)
	fmt.Fprintf(&b, "Exit Code: %d\n", res.ExitCode)
	fmt.Fprintf(&b, "Overall Status: %s\n", status)
	fmt.Fprintf(&b, "Individual Tests Run: %d\n", res.Tally.Total)
	fmt.Fprintf(&b, "Individual Tests Passed: %d\n", res.Tally.Passed)
	fmt.Fprintf(&b, "Individual Tests Failed: %d\n\n", res.Tally.Failed)

	if res.Stderr != "" {
		b.WriteString("ERRORS\n")
		b.WriteString(strings.Repeat("-", errorsWidth) + "\n")
		fmt.Fprintf(&b, "%s\n\n", res.Stderr)
	}

	b.WriteString("DETAILED OUTPUT\n")
	b.WriteString(rule + "\n")
	if res.Stdout != "" {
		b.WriteString(res.Stdout)
	} else {
		b.WriteString("(No output captured)\n")
	}

	b.WriteString("\n" + banner + "\n")
	return b.String()
}

// WriteAll persists one report per result into dir, creating it if needed.
// Stale report files from earlier runs are removed first so the directory
// always reflects exactly the last run. Returns the written paths.
func WriteAll(dir string, results []TestResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}
	if err := clearStale(dir); err != nil {
		return nil, err
	}

	var paths []string
	for _, res := range results {
		path := filepath.Join(dir, res.Name+reportSuffix)
		if err := os.WriteFile(path, []byte(Render(res)), 0o644); err != nil {
			return paths, fmt.Errorf("writing report for %s: %w", res.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func clearStale(dir string) error {
	stale, err := doublestar.Glob(os.DirFS(dir), reportPattern)
	if err != nil {
		return fmt.Errorf("globbing stale reports: %w", err)
	}
	for _, name := range stale {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("removing stale report %s: %w", name, err)
		}
	}
	return nil
}
