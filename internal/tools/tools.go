// Package tools runs the external programs the pipeline depends on (cmake,
// test binaries, lcov, genhtml) with explicit working directories and
// captured output. It also preflights PATH lookups so a missing required
// tool aborts before any work begins.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// TimeoutExitCode is the sentinel recorded when a process is killed at its
// deadline; it never collides with a real exit status.
const TimeoutExitCode = -1

// ErrNonZeroExit is returned when a command runs to completion but exits
// with a non-zero code. Use errors.Is to check for it; the Result carries
// the actual code.
var ErrNonZeroExit = errors.New("command exited with non-zero code")

// Result captures one external process invocation. It is non-nil whenever
// the invocation was attempted, including on failure.
type Result struct {
	Command  string
	Args     []string
	Dir      string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// Check returns the subset of names that cannot be resolved on PATH.
func Check(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Run executes name with args in dir, capturing stdout and stderr.
//
// Error semantics:
//   - (result, nil) when the command exits zero
//   - (result, error wrapping ErrNonZeroExit) on a non-zero exit
//   - (result, error wrapping exec.ErrNotFound) when the executable is
//     missing; the result carries exit code 127
//   - (result, error wrapping the context error) when ctx ends the run;
//     the result carries TimeoutExitCode and TimedOut on deadline
func Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	res := &Result{Command: name, Args: args, Dir: dir}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren can hold the output pipes open past the kill; bound the
	// post-cancel wait so a timed-out target cannot wedge the whole run.
	cmd.WaitDelay = 10 * time.Second

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if err == nil {
		res.ExitCode = 0
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = TimeoutExitCode
		res.TimedOut = errors.Is(ctxErr, context.DeadlineExceeded)
		return res, fmt.Errorf("running %s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%s: %w", name, ErrNonZeroExit)
	}

	if isNotFound(err) {
		res.ExitCode = 127
		return res, fmt.Errorf("running %s: %w", name, err)
	}

	res.ExitCode = 1
	return res, fmt.Errorf("running %s: %w", name, err)
}

// RunTimeout is Run bounded by a wall-clock deadline. A non-positive
// timeout means no bound beyond ctx.
func RunTimeout(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (*Result, error) {
	if timeout <= 0 {
		return Run(ctx, dir, name, args...)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return Run(tctx, dir, name, args...)
}

// isNotFound checks whether the error indicates a missing executable,
// with string fallbacks for platform edge cases.
func isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := err.Error()
	if strings.Contains(msg, "executable file not found") {
		return true
	}
	if runtime.GOOS != "windows" && strings.Contains(msg, "no such file or directory") {
		return true
	}
	return false
}
