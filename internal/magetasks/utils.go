package magetasks

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// run executes a named step with output attached to the caller's terminal.
func run(label, name string, args ...string) error {
	fmt.Printf("-- %s: %s %s\n", label, name, strings.Join(args, " "))
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// IsCommandNotFound reports whether err indicates a missing executable,
// covering exec.ErrNotFound plus platform message fallbacks.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	for _, needle := range []string{
		"executable file not found",
		"no such file or directory",
	} {
		if strings.Contains(err.Error(), needle) {
			return true
		}
	}
	return false
}
