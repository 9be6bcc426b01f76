// Package unityout parses the line-oriented output convention of the Unity
// C test framework into an assertion-level tally. Unity prints one
// `file:line:name:PASS|FAIL|IGNORE` line per assertion and closes with a
// `N Tests M Failures K Ignored` summary; both shapes are recognized and
// the summary, when present, is authoritative.
package unityout

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	// initialBufSize is the starting line buffer; maxBufSize bounds a
	// single line. Test output lines are small, but a runaway printf in a
	// test binary should not kill the parse.
	initialBufSize = 64 * 1024
	maxBufSize     = 1024 * 1024
)

// summaryPattern matches Unity's closing line, e.g. "5 Tests 2 Failures 0 Ignored".
var summaryPattern = regexp.MustCompile(`^(\d+)\s+Tests\s+(\d+)\s+Failures\s+(\d+)\s+Ignored`)

// Tally aggregates the individual assertion results of one test binary.
type Tally struct {
	Total   int
	Passed  int
	Failed  int
	Ignored int
	// FromSummary is set when an authoritative summary line was seen and
	// overrode the per-line counts.
	FromSummary bool
}

// ParseStream scans r line by line and returns the final Tally.
//
// Per trimmed line, the first matching rule wins: a `:PASS` marker counts a
// pass, a `:FAIL` marker a failure, a `:IGNORE` marker an ignore (reported
// but never part of the line-scan total). A summary line captures all three
// numbers; the last summary seen wins and overrides the per-line tally no
// matter where in the stream it appeared. A scanner error returns the
// partial tally alongside the wrapped error.
func ParseStream(r io.Reader) (Tally, error) {
	var passes, fails, ignores int
	var summary *Tally

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufSize), maxBufSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.Contains(line, ":PASS"):
			passes++
		case strings.Contains(line, ":FAIL"):
			fails++
		case strings.Contains(line, ":IGNORE"):
			ignores++
		default:
			if m := summaryPattern.FindStringSubmatch(line); m != nil {
				total, _ := strconv.Atoi(m[1])
				failed, _ := strconv.Atoi(m[2])
				ignored, _ := strconv.Atoi(m[3])
				summary = &Tally{
					Total:       total,
					Passed:      total - failed,
					Failed:      failed,
					Ignored:     ignored,
					FromSummary: true,
				}
			}
		}
	}

	tally := Tally{
		Total:   passes + fails,
		Passed:  passes,
		Failed:  fails,
		Ignored: ignores,
	}
	if summary != nil {
		tally = *summary
	}
	if err := scanner.Err(); err != nil {
		return tally, fmt.Errorf("scanning test output: %w", err)
	}
	return tally, nil
}

// ParseBytes is a convenience wrapper over ParseStream for captured output.
// A scan error (only possible on a pathological over-long line) yields the
// partial tally.
func ParseBytes(output []byte) Tally {
	tally, _ := ParseStream(bytes.NewReader(output))
	return tally
}
