// Package runner orchestrates one full run: discovery, dependency
// analysis, staging, selection, build, execution, reporting, coverage, and
// the final verdict. Phases run strictly in that order; each one prints
// its own status through the console layer.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/SwathantraPulicherla/ai-test-runner/internal/cmake"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/config"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/console"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/coverage"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/depmap"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/discover"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/progress"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/report"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/selector"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/tools"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/unity"
	"github.com/SwathantraPulicherla/ai-test-runner/pkg/csource"
	"github.com/SwathantraPulicherla/ai-test-runner/pkg/unityout"
)

// Failures main maps to a non-zero exit.
var (
	ErrNoTests     = errors.New("no compilable tests found")
	ErrBuildFailed = errors.New("build failed")
	ErrTestsFailed = errors.New("tests failed")
)

// Runner drives one run against one repository.
type Runner struct {
	cfg  *config.Config
	out  *console.Printer
	prog *progress.Runner
}

// New returns a Runner printing through out with prog animating the
// long-running phases.
func New(cfg *config.Config, out *console.Printer, prog *progress.Runner) *Runner {
	return &Runner{cfg: cfg, out: out, prog: prog}
}

// Run executes the full pipeline. The returned error is nil only when the
// final verdict is a success.
func (r *Runner) Run(ctx context.Context) error {
	r.out.Title("AI Test Runner")
	r.out.KV("Repository", r.cfg.RepoPath)
	r.out.KV("Output dir", r.cfg.BuildDir())

	cases, err := r.discoverTests()
	if err != nil {
		return err
	}

	r.out.Phase("analyzing dependencies")
	deps, err := depmap.Build(r.cfg.SourceDir())
	if err != nil {
		r.out.Warnf("Dependency scan failed: %v", err)
		deps = depmap.Empty()
	}
	r.out.Successf("Analyzed %d source modules", len(deps.Modules()))
	for _, module := range deps.Modules() {
		if ds := deps.Dependencies(module); len(ds) > 0 {
			r.out.Verbosef("  %s depends on %s", module, strings.Join(ds, ", "))
		}
	}

	if err := r.stage(ctx, cases); err != nil {
		return err
	}

	if err := r.emitDescriptor(cases, deps); err != nil {
		return err
	}

	if err := r.build(ctx); err != nil {
		return err
	}

	results, err := r.execute(ctx)
	if err != nil {
		return err
	}

	r.out.Phase("writing reports")
	paths, err := report.WriteAll(r.cfg.ReportsDir(), results)
	if err != nil {
		return fmt.Errorf("writing test reports: %w", err)
	}
	r.out.Successf("Generated %d test reports in %s", len(paths), r.cfg.ReportsDir())
	for _, p := range paths {
		r.out.Verbosef("  %s", filepath.Base(p))
	}

	r.coverage(ctx)

	v := verdictOf(results)
	r.printSummary(results, v)
	r.out.Blank()
	r.printVerdict(v)
	if !v.Success() {
		return ErrTestsFailed
	}
	return nil
}

func (r *Runner) discoverTests() ([]discover.TestCase, error) {
	r.out.Phase("discovering tests")
	cases, skipped, err := discover.Find(r.cfg.TestsDir(), r.cfg.VerificationDir())
	if err != nil {
		r.out.Failf("%v", err)
		return nil, fmt.Errorf("discovering tests: %w", err)
	}
	for _, marker := range skipped {
		r.out.Warnf("Marker without a test file, skipping: %s", marker)
	}
	if len(cases) == 0 {
		r.out.Failf("No compilable tests found. Run AI test generation first.")
		return nil, ErrNoTests
	}
	r.out.Successf("Found %d compilable tests", len(cases))
	for _, tc := range cases {
		r.out.Verbosef("  %s (module %s)", tc.Name, tc.Module)
	}
	return cases, nil
}

func (r *Runner) stage(ctx context.Context, cases []discover.TestCase) error {
	r.out.Phase("staging build tree")
	if err := os.MkdirAll(r.cfg.BuildDir(), 0o755); err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}

	var source unity.Source
	stageErr := r.prog.Run(ctx, "Staging Unity framework", func() error {
		var err error
		source, err = unity.Stage(ctx, r.cfg.UnityDir, r.cfg.UnityURL, r.cfg.BuildDir())
		return err
	})
	switch {
	case stageErr != nil:
		r.out.Warnf("Unity framework not available, tests may not compile: %v", stageErr)
	case source == unity.SourceLocal:
		r.out.Verbosef("  copied framework from %s", r.cfg.UnityDir)
	case source == unity.SourceDownload:
		r.out.Verbosef("  downloaded framework from %s", r.cfg.UnityURL)
	}

	if err := r.stageSources(); err != nil {
		return err
	}
	return r.stageTests(cases)
}

func (r *Runner) stageSources() error {
	srcDir := r.cfg.SourceDir()
	dest := filepath.Join(r.cfg.BuildDir(), "src")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := os.Stat(srcDir); err != nil {
		r.out.Warnf("Source directory not found: %s", srcDir)
		return nil
	}

	count := 0
	for _, pattern := range []string{"*.c", "*.h"} {
		names, err := doublestar.Glob(os.DirFS(srcDir), pattern)
		if err != nil {
			return fmt.Errorf("globbing %s under %s: %w", pattern, srcDir, err)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := copyFile(filepath.Join(srcDir, name), filepath.Join(dest, name)); err != nil {
				return fmt.Errorf("staging source %s: %w", name, err)
			}
			r.out.Verbosef("  copied %s", name)
			count++
		}
	}
	r.out.Successf("Staged %d source files", count)
	return nil
}

func (r *Runner) stageTests(cases []discover.TestCase) error {
	dest := filepath.Join(r.cfg.BuildDir(), "tests")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	for _, tc := range cases {
		if err := copyFile(tc.Path, filepath.Join(dest, tc.Name+".c")); err != nil {
			return fmt.Errorf("staging test %s: %w", tc.Name, err)
		}
		r.out.Verbosef("  copied %s.c", tc.Name)
	}
	r.out.Successf("Staged %d test files", len(cases))
	return nil
}

func (r *Runner) emitDescriptor(cases []discover.TestCase, deps *depmap.Map) error {
	r.out.Phase("selecting sources")
	selections := make([]selector.Selection, 0, len(cases))
	for _, tc := range cases {
		stubs, err := csource.ReadStubs(tc.Path)
		if err != nil {
			r.out.Warnf("Stub scan failed for %s: %v", tc.Name, err)
		}
		if stubs.Len() > 0 {
			r.out.Verbosef("  %s stubs: %s", tc.Name, strings.Join(stubs.Names(), ", "))
		}
		if tc.Module != "main" && !deps.Has(tc.Module) {
			r.out.Warnf("No source file for module %s (wanted by %s)", tc.Module, tc.Name)
		}

		sel := selector.Select(tc, stubs, deps)
		for _, ex := range sel.Excluded {
			r.out.Verbosef("  %s: excluding src/%s.c (test defines %s)", tc.Name, ex.Module, ex.Function)
		}
		selections = append(selections, sel)
	}

	if _, err := cmake.Write(r.cfg.BuildDir(), selections); err != nil {
		return fmt.Errorf("writing build descriptor: %w", err)
	}
	r.out.Successf("Created CMakeLists.txt with %d test targets", len(selections))
	return nil
}

func (r *Runner) build(ctx context.Context) error {
	r.out.Phase("building tests")
	if err := r.cmakeStep(ctx, "Configuring build", "."); err != nil {
		return err
	}
	return r.cmakeStep(ctx, "Compiling test targets", "--build", ".")
}

// cmakeStep runs one cmake invocation inside the build tree. On failure the
// captured output is printed so the user can diagnose without re-running by
// hand.
func (r *Runner) cmakeStep(ctx context.Context, label string, args ...string) error {
	var res *tools.Result
	err := r.prog.Run(ctx, label, func() error {
		var runErr error
		res, runErr = tools.Run(ctx, r.cfg.BuildDir(), r.cfg.Tools.CMake, args...)
		return runErr
	})
	if err == nil {
		return nil
	}
	if res != nil {
		r.out.Detail(res.Stdout)
		r.out.Detail(res.Stderr)
	}
	return fmt.Errorf("%s: %w", strings.ToLower(label), ErrBuildFailed)
}

func (r *Runner) execute(ctx context.Context) ([]report.TestResult, error) {
	r.out.Phase("running tests")
	exes := findExecutables(r.cfg.BuildDir())
	if len(exes) == 0 {
		r.out.Warnf("No test executables found")
		return nil, nil
	}

	results := make([]report.TestResult, 0, len(exes))
	for _, exe := range exes {
		res := r.runBinary(ctx, exe)
		results = append(results, res)
		r.reportBinary(res)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("run interrupted: %w", ctx.Err())
		}
	}
	return results, nil
}

func (r *Runner) runBinary(ctx context.Context, path string) report.TestResult {
	name := filepath.Base(path)
	r.out.Verbosef("  running %s", name)

	res, err := tools.RunTimeout(ctx, r.cfg.Timeout, r.cfg.BuildDir(), path)
	tr := report.TestResult{
		Name:     name,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		TimedOut: res.TimedOut,
		Duration: res.Duration,
	}
	if res.TimedOut {
		// Partial output is kept for the report, but counts from a killed
		// binary are not trustworthy.
		tr.Stderr = "Test timed out"
		return tr
	}
	tr.Tally = unityout.ParseBytes([]byte(res.Stdout))
	if err != nil && !errors.Is(err, tools.ErrNonZeroExit) && tr.Stderr == "" {
		tr.Stderr = err.Error()
	}
	return tr
}

func (r *Runner) reportBinary(res report.TestResult) {
	switch {
	case res.TimedOut:
		r.out.Failf("%s timed out after %s", res.Name, r.cfg.Timeout)
	case res.Tally.Total > 0 && res.Success():
		r.out.Successf("%s (%d/%d tests passed)", res.Name, res.Tally.Passed, res.Tally.Total)
	case res.Tally.Total > 0:
		r.out.Failf("%s (%d/%d tests passed)", res.Name, res.Tally.Passed, res.Tally.Total)
	case res.Success():
		r.out.Successf("%s (exit code: %d)", res.Name, res.ExitCode)
	default:
		r.out.Failf("%s (exit code: %d)", res.Name, res.ExitCode)
	}
}

// coverage runs the lcov pipeline and prints the per-file table. Failures
// never fail the run.
func (r *Runner) coverage(ctx context.Context) {
	r.out.Phase("generating coverage")
	var cov coverage.Summary
	err := r.prog.Run(ctx, "Running lcov and genhtml", func() error {
		var genErr error
		cov, genErr = coverage.Generate(ctx, tools.Run, r.cfg.BuildDir(), r.cfg.Tools.Lcov, r.cfg.Tools.Genhtml)
		return genErr
	})
	if err != nil {
		r.out.Warnf("Coverage generation failed: %v", err)
		r.out.Infof("Install lcov for coverage reports: sudo apt-get install lcov")
		return
	}
	if len(cov.Files) == 0 {
		r.out.Warnf("Coverage listing contained no source files")
		return
	}

	rows := [][]string{{"File", "Lines", "Coverage"}}
	for _, f := range cov.Files {
		rows = append(rows, []string{f.Name, fmt.Sprintf("%d/%d", f.Hit, f.Total), fmt.Sprintf("%.1f%%", f.Percent)})
	}
	rows = append(rows, []string{"TOTAL", fmt.Sprintf("%d/%d", cov.Hit, cov.Total), fmt.Sprintf("%.1f%%", cov.Percent())})
	r.out.Blank()
	r.out.Table(rows)
}

// Verdict aggregates the outcome of one run.
type Verdict struct {
	Executables       int
	ExecutablesPassed int
	Individual        int
	IndividualPassed  int
	IndividualFailed  int
}

func verdictOf(results []report.TestResult) Verdict {
	v := Verdict{Executables: len(results)}
	for _, res := range results {
		if res.Success() {
			v.ExecutablesPassed++
		}
		v.Individual += res.Tally.Total
		v.IndividualPassed += res.Tally.Passed
		v.IndividualFailed += res.Tally.Failed
	}
	return v
}

// Success prefers assertion-level counts when any were parsed; otherwise
// every executable must have exited zero. A run with no binaries at all is
// vacuously successful.
func (v Verdict) Success() bool {
	if v.Individual > 0 {
		return v.IndividualPassed == v.Individual
	}
	return v.ExecutablesPassed == v.Executables
}

func (r *Runner) printSummary(results []report.TestResult, v Verdict) {
	r.out.Banner("TEST EXECUTION SUMMARY")
	r.out.Infof("Test executables run: %d", v.Executables)
	r.out.Infof("Test executables passed: %d", v.ExecutablesPassed)
	r.out.Infof("Test executables failed: %d", v.Executables-v.ExecutablesPassed)
	r.out.Blank()
	r.out.Infof("Individual test functions run: %d", v.Individual)
	r.out.Infof("Individual test functions passed: %d", v.IndividualPassed)
	r.out.Infof("Individual test functions failed: %d", v.IndividualFailed)

	if v.ExecutablesPassed != v.Executables {
		r.out.Blank()
		r.out.Infof("Failed test executables:")
		for _, res := range results {
			if res.Success() {
				continue
			}
			r.out.Failf("%s", res.Name)
			r.out.Detail(res.Stderr)
		}
	}

	r.out.Blank()
	r.out.KV("Build directory", r.cfg.BuildDir())
	if idx, ok := coverage.IndexPath(r.cfg.BuildDir()); ok {
		r.out.KV("Coverage report", idx)
	}
}

func (r *Runner) printVerdict(v Verdict) {
	if v.Individual > 0 {
		if v.Success() {
			r.out.Successf("COMPLETED: %d/%d individual test functions passed", v.IndividualPassed, v.Individual)
		} else {
			r.out.Failf("COMPLETED: %d/%d individual test functions passed", v.IndividualPassed, v.Individual)
		}
		return
	}
	if v.Success() {
		r.out.Successf("COMPLETED: %d/%d test executables passed", v.ExecutablesPassed, v.Executables)
	} else {
		r.out.Failf("COMPLETED: %d/%d test executables passed", v.ExecutablesPassed, v.Executables)
	}
}

// findExecutables lists the test binaries in dir: regular files whose name
// contains "test" but not "CTest", with no extension besides .exe, carrying
// the executable bit. Sorted for a stable run order.
func findExecutables(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, "test") || strings.Contains(name, "CTest") {
			continue
		}
		if ext := filepath.Ext(name); ext != "" && ext != ".exe" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		// Windows has no execute bit; the name filter has to carry it there.
		if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
