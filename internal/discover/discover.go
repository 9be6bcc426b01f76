// Package discover locates the generated test sources that an earlier
// verification step confirmed to compile. Verification is recorded as one
// marker file per test under the repository's verification report
// directory; only marked tests take part in a run.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// markerPattern matches verification marker file names.
const markerPattern = "*compiles_yes.txt"

// markerSuffix is stripped from a marker's stem to recover the test name.
const markerSuffix = "_compiles_yes"

// testPrefix links a test file name to its module under test.
const testPrefix = "test_"

// ErrNoVerificationDir reports a repository without a verification report
// directory. Nothing can run without one.
var ErrNoVerificationDir = errors.New("verification report directory not found")

// TestCase is one verified-compilable test source file.
type TestCase struct {
	Name   string // test file stem, e.g. test_sensor
	Path   string // path to the test source under the tests directory
	Marker string // path to the verification marker
	Module string // module under test, e.g. sensor
}

// ModuleName derives the module under test from a test file stem. Exactly
// one leading test_ prefix is trimmed, so a module whose own name embeds
// the prefix survives intact.
func ModuleName(base string) string {
	return strings.TrimPrefix(base, testPrefix)
}

// Find scans verificationDir for markers and maps each to its test source
// under testsDir. Markers whose test file is missing are returned in
// skipped for the caller to warn about. Results are sorted by test name.
func Find(testsDir, verificationDir string) (cases []TestCase, skipped []string, err error) {
	info, err := os.Stat(verificationDir)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoVerificationDir, verificationDir)
	}

	markers, err := doublestar.Glob(os.DirFS(verificationDir), markerPattern)
	if err != nil {
		return nil, nil, fmt.Errorf("globbing markers in %s: %w", verificationDir, err)
	}
	sort.Strings(markers)

	for _, marker := range markers {
		base := strings.TrimSuffix(strings.TrimSuffix(marker, ".txt"), markerSuffix)
		markerPath := filepath.Join(verificationDir, marker)
		testPath := filepath.Join(testsDir, base+".c")
		if _, statErr := os.Stat(testPath); statErr != nil {
			skipped = append(skipped, markerPath)
			continue
		}
		cases = append(cases, TestCase{
			Name:   base,
			Path:   testPath,
			Marker: markerPath,
			Module: ModuleName(base),
		})
	}
	return cases, skipped, nil
}
