// Package coverage drives the external lcov/genhtml pipeline after a test
// run and parses the resulting per-file listing. Coverage never fails a
// run: every error here is downgraded to a warning by the caller.
package coverage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/SwathantraPulicherla/ai-test-runner/internal/tools"
)

// Artifact names inside the build directory.
const (
	captureFile = "coverage.info"
	sourceFile  = "coverage_source.info"
	// HTMLDir holds the genhtml output tree.
	HTMLDir = "coverage_html"
)

// listPattern matches one `<file> | <hit>/<total> | <pct>%` listing line.
var listPattern = regexp.MustCompile(`^(.+?)\s*\|\s*(\d+)/(\d+)\s*\|\s*([0-9.]+)%`)

// Runner abstracts the external-process layer so the pipeline is testable
// without lcov installed. tools.Run satisfies it.
type Runner func(ctx context.Context, dir, name string, args ...string) (*tools.Result, error)

// FileCoverage is one source file's line coverage.
type FileCoverage struct {
	Name    string
	Hit     int
	Total   int
	Percent float64
}

// Summary aggregates the per-file rows of one listing.
type Summary struct {
	Files []FileCoverage
	Hit   int
	Total int
}

// Percent returns the aggregate line rate, 0 when nothing was instrumented.
func (s Summary) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Hit) / float64(s.Total) * 100
}

// ParseList scans a coverage listing and returns the per-file rows plus
// aggregate totals. Lines that do not match the listing shape are skipped;
// a tool-emitted aggregate row (name "Total") is ignored so files are not
// counted twice.
func ParseList(r io.Reader) (Summary, error) {
	var summary Summary
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := listPattern.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if strings.EqualFold(strings.TrimSuffix(name, ":"), "total") {
			continue
		}
		hit, _ := strconv.Atoi(m[2])
		total, _ := strconv.Atoi(m[3])
		pct, _ := strconv.ParseFloat(m[4], 64)
		summary.Files = append(summary.Files, FileCoverage{
			Name:    name,
			Hit:     hit,
			Total:   total,
			Percent: pct,
		})
		summary.Hit += hit
		summary.Total += total
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scanning coverage listing: %w", err)
	}
	return summary, nil
}

// Generate captures coverage data inside buildDir, restricts it to the
// production sources, renders the HTML tree, and returns the parsed
// listing. lcov and genhtml name the configured tool binaries. The first
// failing step aborts the phase.
func Generate(ctx context.Context, run Runner, buildDir, lcov, genhtml string) (Summary, error) {
	steps := [][]string{
		{lcov, "--capture", "--directory", ".", "--output-file", captureFile, "--ignore-errors", "unused"},
		{lcov, "--extract", captureFile, "*/src/*.c", "--output-file", sourceFile, "--ignore-errors", "unused,empty"},
		{genhtml, sourceFile, "--output-directory", HTMLDir},
	}
	for _, step := range steps {
		if _, err := run(ctx, buildDir, step[0], step[1:]...); err != nil {
			return Summary{}, fmt.Errorf("%s: %w", strings.Join(step[:2], " "), err)
		}
	}

	res, err := run(ctx, buildDir, lcov, "--list", sourceFile)
	if err != nil {
		return Summary{}, fmt.Errorf("%s --list: %w", lcov, err)
	}
	return ParseList(strings.NewReader(res.Stdout))
}

// IndexPath returns the HTML report entry point under buildDir when genhtml
// produced one.
func IndexPath(buildDir string) (string, bool) {
	path := filepath.Join(buildDir, HTMLDir, "index.html")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
