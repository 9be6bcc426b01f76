package magetasks

import (
	"os"
	"path/filepath"
)

var (
	// ModulePath is the Go module path, used to address internal/version
	// variables in ldflags.
	ModulePath = "github.com/SwathantraPulicherla/ai-test-runner"

	// BinPath is the output path for the built binary.
	BinPath = "./bin/ai-test-runner"

	// MainPackage is the package built into BinPath.
	MainPackage = "./cmd/ai-test-runner"

	// ProjectRoot is the root directory of the project, set by Initialize.
	ProjectRoot string
)

// Initialize records the project root and ensures the bin directory
// exists. Call it from the Magefile init().
func Initialize() error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	ProjectRoot = root
	return os.MkdirAll(filepath.Join(ProjectRoot, "bin"), 0o750)
}
