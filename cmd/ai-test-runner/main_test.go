package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeRepo scaffolds a minimal C repository with one verified test and a
// project config pointing every external tool at toolPath.
func writeRepo(t *testing.T, toolPath string) string {
	t.Helper()
	repo := t.TempDir()
	mustWrite := func(rel, body string) {
		path := filepath.Join(repo, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("src/demo.c", "int demo_id(int v) {\n    return v;\n}\n")
	mustWrite("tests/test_demo.c", "void test_id(void) {}\nint main(void) { return 0; }\n")
	mustWrite("tests/verification_report/test_demo_compiles_yes.txt", "yes\n")
	mustWrite("unity_ref/src/unity.c", "/* framework */\n")
	mustWrite(".ai-test-runner.yaml",
		"unity_dir: unity_ref\n"+
			"tools:\n"+
			"  cmake: "+toolPath+"\n"+
			"  lcov: "+toolPath+"\n"+
			"  genhtml: "+toolPath+"\n")
	return repo
}

func TestRun_VersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--version"}, &stdout, &stderr)

	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout.String(), "ai-test-runner 1.0.0") {
		t.Errorf("missing version line, got: %s", stdout.String())
	}
}

func TestRun_UnknownFlagExitTwo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--no-such-flag"}, &stdout, &stderr)

	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "flag provided but not defined") {
		t.Errorf("expected usage error on stderr, got: %s", stderr.String())
	}
}

func TestRun_HelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)

	if code != 0 {
		t.Errorf("expected exit code 0 for --help, got %d", code)
	}
	if !strings.Contains(stderr.String(), "repo-path") {
		t.Errorf("expected flag listing in usage, got: %s", stderr.String())
	}
}

func TestRun_MissingToolExitOne(t *testing.T) {
	repo := writeRepo(t, "definitely-not-an-installed-tool")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--repo-path", repo}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "Required tools not found") {
		t.Errorf("missing preflight failure, got:\n%s", out)
	}
	if !strings.Contains(out, "sudo apt-get install cmake") {
		t.Errorf("missing install hints, got:\n%s", out)
	}
}

func TestRun_MissingVerificationDirExitOne(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh as a stand-in tool")
	}
	repo := t.TempDir()
	// sh resolves on PATH, so preflight passes and discovery fails.
	yaml := []byte("tools:\n  cmake: sh\n")
	if err := os.WriteFile(filepath.Join(repo, ".ai-test-runner.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"--repo-path", repo}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "verification report directory not found") {
		t.Errorf("missing discovery failure, got:\n%s", stdout.String())
	}
}

func TestRun_EndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	// Fake cmake: the --build step drops a passing test binary.
	toolDir := t.TempDir()
	tool := filepath.Join(toolDir, "cmake")
	script := `#!/bin/sh
if [ "$1" = "--build" ]; then
    printf '#!/bin/sh\necho "tests/test_demo.c:5:test_id:PASS"\necho "1 Tests 0 Failures 0 Ignored"\n' > test_demo
    chmod +x test_demo
fi
exit 0
`
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	repo := writeRepo(t, tool)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--repo-path", repo, "--output", "build", "-v"}, &stdout, &stderr)

	out := stdout.String()
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; output:\n%s\nstderr:\n%s", code, out, stderr.String())
	}
	if !strings.Contains(out, "COMPLETED: 1/1 individual test functions passed") {
		t.Errorf("missing success verdict, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(repo, "tests", "test_reports", "test_demo_report.txt")); err != nil {
		t.Errorf("report file not written: %v", err)
	}
}

func TestRun_FailingTestsExitOne(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	toolDir := t.TempDir()
	tool := filepath.Join(toolDir, "cmake")
	script := `#!/bin/sh
if [ "$1" = "--build" ]; then
    printf '#!/bin/sh\necho "tests/test_demo.c:5:test_id:FAIL: boom"\necho "1 Tests 1 Failures 0 Ignored"\nexit 1\n' > test_demo
    chmod +x test_demo
fi
exit 0
`
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	repo := writeRepo(t, tool)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--repo-path", repo}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "COMPLETED: 0/1 individual test functions passed") {
		t.Errorf("missing failure verdict, got:\n%s", stdout.String())
	}
}

func TestSelectTheme(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	if got := selectTheme("default", true).Name; got != "default" {
		t.Errorf("interactive default: got theme %q", got)
	}
	if got := selectTheme("mono", true).Name; got != "mono" {
		t.Errorf("explicit mono: got theme %q", got)
	}
	if got := selectTheme("default", false).Name; got != "mono" {
		t.Errorf("non-TTY should force mono, got %q", got)
	}

	t.Setenv("NO_COLOR", "1")
	if got := selectTheme("default", true).Name; got != "mono" {
		t.Errorf("NO_COLOR should force mono, got %q", got)
	}
}
