// Package selector decides which production sources compile into each test
// target. It is the core policy of the tool: a test file that defines its
// own version of a production function must not be linked against the file
// that really implements it, while every unstubbed call still needs its
// implementing file present.
package selector

import (
	"github.com/SwathantraPulicherla/ai-test-runner/internal/discover"
	"github.com/SwathantraPulicherla/ai-test-runner/pkg/csource"
)

// DependencyMap is the read-only view of the production sources the
// selector consults. *depmap.Map satisfies it.
type DependencyMap interface {
	// Has reports whether src/<module>.c exists.
	Has(module string) bool
	// Modules returns every module name, sorted.
	Modules() []string
	// FunctionsOf returns the functions <module>.c defines.
	FunctionsOf(module string) []string
	// Dependencies returns the transitive callee closure of module,
	// excluding module itself, in deterministic order.
	Dependencies(module string) []string
}

// unitySource is the framework placeholder every target compiles; the build
// descriptor resolves it.
const unitySource = "${UNITY_SRC}"

// entryModule names the module whose test links the full application.
const entryModule = "main"

// An Exclusion records a production file dropped from a target because the
// test supplies its own definition of one of its functions.
type Exclusion struct {
	Module   string
	Function string
}

// Selection is the compile plan for one test target. Sources are
// build-tree-relative with forward slashes, ordered, the test file first
// and the framework second.
type Selection struct {
	Target      string
	Comment     string
	Sources     []string
	Excluded    []Exclusion
	Integration bool
}

// Select computes the Selection for one test case.
//
// Entry-point tests (module main) link the full application source set,
// ignoring both the dependency closure and the stub set. Every other test
// starts from its module plus the module's transitive dependencies, then
// drops any file whose functions intersect the stubs. Exclusion is per
// file, all or nothing: a file providing one stubbed and one needed
// function is dropped whole, and the build surfaces the missing symbol.
func Select(tc discover.TestCase, stubs csource.StubSet, deps DependencyMap) Selection {
	sel := Selection{
		Target:  tc.Name,
		Sources: []string{"tests/" + tc.Name + ".c", unitySource},
	}

	if tc.Module == entryModule {
		sel.Integration = true
		sel.Comment = "Testing main() - include all application sources"
		sel.Sources = append(sel.Sources, "src/main.c")
		for _, module := range deps.Modules() {
			if module == entryModule {
				continue
			}
			sel.Sources = append(sel.Sources, "src/"+module+".c")
		}
		return sel
	}

	sel.Comment = "Testing " + tc.Module + " - module + deps (stubs override real)"

	candidates := make([]string, 0, 1)
	if deps.Has(tc.Module) {
		candidates = append(candidates, tc.Module)
	}
	candidates = append(candidates, deps.Dependencies(tc.Module)...)

	for _, module := range candidates {
		if !deps.Has(module) {
			continue
		}
		if fn, shadowed := shadowedBy(deps.FunctionsOf(module), stubs); shadowed {
			sel.Excluded = append(sel.Excluded, Exclusion{Module: module, Function: fn})
			continue
		}
		sel.Sources = append(sel.Sources, "src/"+module+".c")
	}
	return sel
}

// shadowedBy returns the first function in fns that the stub set covers.
func shadowedBy(fns []string, stubs csource.StubSet) (string, bool) {
	for _, fn := range fns {
		if stubs.Has(fn) {
			return fn, true
		}
	}
	return "", false
}
