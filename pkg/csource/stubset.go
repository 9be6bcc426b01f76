package csource

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// TestPrefix marks generated test entry points. Functions with this prefix
// are never treated as stubs.
const TestPrefix = "test_"

// fixtureHooks are the Unity lifecycle functions a test file defines as a
// matter of course. They are scaffolding, not stand-ins for production code.
var fixtureHooks = map[string]struct{}{
	"setUp":         {},
	"tearDown":      {},
	"suiteSetUp":    {},
	"suiteTearDown": {},
}

// A StubSet holds the names of helper functions a test file defines itself.
// Any production source file that defines one of these names would collide
// at link time, so the set drives file-level exclusion during selection.
type StubSet map[string]struct{}

// Has reports whether name is in the set.
func (s StubSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name into the set.
func (s StubSet) Add(name string) {
	s[name] = struct{}{}
}

// Len returns the number of names in the set.
func (s StubSet) Len() int {
	return len(s)
}

// Names returns the stub names in sorted order.
func (s StubSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stubs scans src for function definitions and returns the ones that act as
// stand-ins for production code. Test entry points (test_*), Unity fixture
// hooks, and main are excluded.
func Stubs(src []byte) StubSet {
	set := make(StubSet)
	for _, def := range ScanDefinitions(src) {
		if strings.HasPrefix(def.Name, TestPrefix) {
			continue
		}
		if _, hook := fixtureHooks[def.Name]; hook {
			continue
		}
		if def.Name == "main" {
			continue
		}
		set.Add(def.Name)
	}
	return set
}

// ReadStubs reads the file at path and returns its stub set. On a read
// error the returned set is empty but usable, so a caller can log the
// failure and continue with no exclusions.
func ReadStubs(path string) (StubSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StubSet{}, fmt.Errorf("reading test source: %w", err)
	}
	return Stubs(data), nil
}
