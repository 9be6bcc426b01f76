// Package cmake renders the build descriptor the external build consumes.
// The descriptor is write-only: nothing in this tool ever parses it back,
// so the format lives entirely in this package.
package cmake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SwathantraPulicherla/ai-test-runner/internal/selector"
)

// FileName is the descriptor written into the build tree.
const FileName = "CMakeLists.txt"

// header carries the fixed build settings: C99, coverage instrumentation on
// both compile and link, the MinGW duplicate-symbol fallback, and the shared
// Unity source variable that per-target source lists reference.
const header = `cmake_minimum_required(VERSION 3.10)
project(AITestRunner LANGUAGES C)

# C standard
set(CMAKE_C_STANDARD 99)
set(CMAKE_C_STANDARD_REQUIRED ON)

# Coverage flags
set(CMAKE_C_FLAGS "${CMAKE_C_FLAGS} --coverage")
set(CMAKE_EXE_LINKER_FLAGS "${CMAKE_EXE_LINKER_FLAGS} --coverage")

# Windows/MinGW fallback
if(MINGW)
    set(CMAKE_EXE_LINKER_FLAGS "${CMAKE_EXE_LINKER_FLAGS} -Wl,--allow-multiple-definition")
endif()

# Include directories
include_directories(src)
include_directories(${CMAKE_SOURCE_DIR}/unity/src)
include_directories(tests)

# Unity source
set(UNITY_SRC ${CMAKE_SOURCE_DIR}/unity/src/unity.c)
`

// Generate renders the descriptor for the given selections, one executable
// and one registered test per selection, byte-deterministic for fixed input.
func Generate(selections []selector.Selection) string {
	var b strings.Builder
	b.WriteString(header)
	for _, sel := range selections {
		b.WriteString("\n# ")
		b.WriteString(sel.Comment)
		b.WriteByte('\n')
		fmt.Fprintf(&b, "add_executable(%s\n", sel.Target)
		for _, src := range sel.Sources {
			fmt.Fprintf(&b, "    %s\n", src)
		}
		b.WriteString(")\n")
		fmt.Fprintf(&b, "add_test(NAME %s COMMAND %s)\n", sel.Target, sel.Target)
	}
	b.WriteString("\nenable_testing()\n")
	return b.String()
}

// Write persists the rendered descriptor into dir and returns its path.
func Write(dir string, selections []selector.Selection) (string, error) {
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(Generate(selections)), 0o644); err != nil {
		return "", fmt.Errorf("writing build descriptor: %w", err)
	}
	return path, nil
}
