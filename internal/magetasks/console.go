package magetasks

import "fmt"

// Plain stdout helpers for task output. The mage binary is tooling, not
// the product; it does not pull in the runner's console layer.

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	fmt.Printf("\n=== %s ===\n\n", title)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	printMark("✅", msg)
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	printMark("⚠️ ", msg)
}

// PrintError prints an error message.
func PrintError(msg string) {
	printMark("❌", msg)
}

func printMark(mark, msg string) {
	fmt.Printf("%s %s\n", mark, msg)
}
