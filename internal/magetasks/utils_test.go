package magetasks

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"
)

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exec.ErrNotFound", exec.ErrNotFound, true},
		{"wrapped exec.ErrNotFound", fmt.Errorf("running step: %w", exec.ErrNotFound), true},
		{"executable file not found", errors.New(`exec: "staticcheck": executable file not found in $PATH`), true},
		{"no such file or directory", errors.New("fork/exec ./tool: no such file or directory"), true},
		{"unrelated error", errors.New("exit status 1"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCommandNotFound(tt.err); got != tt.want {
				t.Errorf("IsCommandNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
