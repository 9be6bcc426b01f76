// Package magetasks provides the build tasks behind the Magefile.
//
// Tasks cover building the ai-test-runner binary with stamped version
// metadata, running the Go test suite, linting, and cleanup. The Magefile
// groups them into namespaces; this package holds the implementations.
package magetasks
