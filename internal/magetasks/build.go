package magetasks

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BuildAll builds the ai-test-runner binary with version metadata stamped
// into internal/version.
func BuildAll() error {
	PrintH2Header("Build")

	fmt.Println("Building ai-test-runner...")
	if err := goRun("build", "-ldflags", ldflags(), "-o", BinPath, MainPackage); err != nil {
		PrintError("Build failed")
		return err
	}

	PrintSuccess(fmt.Sprintf("Built: %s", BinPath))
	return nil
}

// Install installs the binary into GOBIN with the same stamped metadata.
func Install() error {
	PrintH2Header("Install")

	if err := goRun("install", "-ldflags", ldflags(), MainPackage); err != nil {
		PrintError("Install failed")
		return err
	}

	PrintSuccess("Installed ai-test-runner")
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	PrintH2Header("Clean")

	if err := os.RemoveAll("./bin"); err != nil {
		return err
	}
	_ = goRun("clean", "-cache")

	PrintSuccess("Cleaned build artifacts")
	return nil
}

func ldflags() string {
	version := gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*")
	commit := gitOutput("unknown", "rev-parse", "--short", "HEAD")
	date := time.Now().UTC().Format(time.RFC3339)

	pkg := ModulePath + "/internal/version"
	return fmt.Sprintf("-s -w -X '%s.Version=%s' -X '%s.CommitHash=%s' -X '%s.BuildDate=%s'",
		pkg, version, pkg, commit, pkg, date)
}

func goRun(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func gitOutput(fallback string, args ...string) string {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return fallback
	}
	return strings.TrimSpace(string(out))
}
