package magetasks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitialize(t *testing.T) {
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	defer os.Chdir(originalDir)

	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("changing to temp directory: %v", err)
	}

	if err := Initialize(); err != nil {
		t.Errorf("Initialize() returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "bin")); os.IsNotExist(err) {
		t.Error("Initialize() should create the bin directory")
	}

	// EvalSymlinks handles macOS /private/var tmp aliasing.
	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(ProjectRoot)
	if actualRoot != expectedRoot {
		t.Errorf("ProjectRoot = %s, want %s", actualRoot, expectedRoot)
	}
}

func TestPaths(t *testing.T) {
	if ModulePath != "github.com/SwathantraPulicherla/ai-test-runner" {
		t.Errorf("ModulePath = %s", ModulePath)
	}
	if BinPath != "./bin/ai-test-runner" {
		t.Errorf("BinPath = %s", BinPath)
	}
	if MainPackage != "./cmd/ai-test-runner" {
		t.Errorf("MainPackage = %s", MainPackage)
	}
}

func TestLdflagsStampVersionPackage(t *testing.T) {
	flags := ldflags()
	for _, want := range []string{
		ModulePath + "/internal/version.Version=",
		ModulePath + "/internal/version.CommitHash=",
		ModulePath + "/internal/version.BuildDate=",
	} {
		if !strings.Contains(flags, want) {
			t.Errorf("ldflags missing %q, got: %s", want, flags)
		}
	}
}
