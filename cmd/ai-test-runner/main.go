// ai-test-runner compiles and executes AI-generated Unity tests for a C
// repository.
//
// Usage:
//
//	ai-test-runner --repo-path ../sensor-firmware
//	ai-test-runner --repo-path . --output build -v
//
// One invocation runs the whole pipeline: discover verified tests under
// tests/verification_report/, select the production sources each test
// needs, emit CMakeLists.txt, build with cmake, run every test binary,
// write per-test reports, and produce an lcov/genhtml coverage tree.
//
// Exit codes:
//
//	0  every individual test assertion passed
//	1  pipeline failure (missing tools, build error, failed tests)
//	2  flag or configuration errors
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/SwathantraPulicherla/ai-test-runner/internal/config"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/console"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/discover"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/progress"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/runner"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/tools"
	"github.com/SwathantraPulicherla/ai-test-runner/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ai-test-runner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	repoPath := fs.String("repo-path", ".", "Path to the C repository under test")
	output := fs.String("output", "build", "Build directory, relative to the repo unless absolute")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.BoolVar(verbose, "v", false, "Verbose output (shorthand)")
	themeFlag := fs.String("theme", "", "Console theme: default, mono (auto when empty)")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	cfg, err := config.Load(*repoPath, *output, *verbose)
	if err != nil && !errors.Is(err, config.ErrConfigFile) {
		fmt.Fprintf(stderr, "ai-test-runner: %v\n", err)
		return 2
	}
	if *themeFlag != "" {
		cfg.Theme = *themeFlag
	}

	interactive := isTTYWriter(stdout)
	printer := console.NewPrinter(stdout, selectTheme(cfg.Theme, interactive), cfg.Verbose)
	if err != nil {
		printer.Warnf("Ignoring project config: %v", err)
	}

	if missing := tools.Check(cfg.Tools.CMake); len(missing) > 0 {
		printer.Failf("Required tools not found: %s", strings.Join(missing, ", "))
		printInstallHints(printer)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(cfg, printer, progress.New(printer, interactive, termWidth(stdout)))
	if err := r.Run(ctx); err != nil {
		if !reported(err) {
			printer.Failf("%v", err)
		}
		return 1
	}
	return 0
}

// reported lists the failures the pipeline already surfaced on its own
// console; printing them again would duplicate the closing line.
func reported(err error) bool {
	return errors.Is(err, runner.ErrTestsFailed) ||
		errors.Is(err, runner.ErrBuildFailed) ||
		errors.Is(err, runner.ErrNoTests) ||
		errors.Is(err, discover.ErrNoVerificationDir)
}

// selectTheme resolves the console theme. NO_COLOR and non-TTY output both
// force the mono theme regardless of the configured name.
func selectTheme(name string, interactive bool) console.Theme {
	if os.Getenv("NO_COLOR") != "" || !interactive {
		return console.MonoTheme()
	}
	return console.ThemeByName(name)
}

func printInstallHints(p *console.Printer) {
	p.Infof("Install CMake to build and run tests:")
	p.Infof("  Ubuntu/Debian: sudo apt-get install cmake build-essential")
	p.Infof("  macOS:         brew install cmake")
	p.Infof("  Windows:       https://cmake.org/download/")
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width for w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}
