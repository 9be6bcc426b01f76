// Package depmap builds a file-level dependency map for the C sources of a
// repository. The contract is textual, not semantic: a module is one .c file
// under the source directory, named by its stem; a module defines the
// functions csource finds in it; module A depends on module B when A's text
// references a function B defines. Self-references and references to unknown
// names (library calls, macros) carry no edges. Headers are never parsed;
// the map answers linkage questions, not include questions.
package depmap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/SwathantraPulicherla/ai-test-runner/pkg/csource"
)

// closureCacheSize bounds the memoized transitive closures. Repositories
// rarely hold more modules than this, so in practice every closure is
// computed once.
const closureCacheSize = 128

// Map is an immutable view of the modules under one source directory.
// Build it once, then query from any goroutine.
type Map struct {
	files    []string            // paths of every module file, sorted
	paths    map[string]string   // module -> source path
	funcs    map[string][]string // module -> defined function names, sorted
	owners   map[string]string   // function name -> owning module
	refs     map[string][]string // module -> directly referenced modules, sorted
	closures *lru.Cache[string, []string]
}

// Empty returns a usable map with no modules. Callers that degrade after a
// failed scan query it freely and get empty answers.
func Empty() *Map {
	cache, _ := lru.New[string, []string](closureCacheSize)
	return &Map{
		paths:    make(map[string]string),
		funcs:    make(map[string][]string),
		owners:   make(map[string]string),
		refs:     make(map[string][]string),
		closures: cache,
	}
}

// Build scans every .c file directly under dir and returns the resulting
// map. A missing or empty directory yields an empty map, not an error; the
// callers treat "no production sources" as a per-test condition, not a
// fatal one.
func Build(dir string) (*Map, error) {
	names, err := doublestar.Glob(os.DirFS(dir), "*.c")
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", dir, err)
	}
	sort.Strings(names)

	m := Empty()
	contents := make(map[string][]byte, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		module := strings.TrimSuffix(name, ".c")
		m.files = append(m.files, path)
		m.paths[module] = path
		contents[module] = data

		var fns []string
		for _, def := range csource.ScanDefinitions(data) {
			fns = append(fns, def.Name)
			// First definition wins on duplicates across modules.
			if _, taken := m.owners[def.Name]; !taken {
				m.owners[def.Name] = module
			}
		}
		sort.Strings(fns)
		m.funcs[module] = fns
	}

	for module, data := range contents {
		seen := make(map[string]struct{})
		var direct []string
		for _, ref := range csource.ScanReferences(data) {
			owner, known := m.owners[ref]
			if !known || owner == module {
				continue
			}
			if _, dup := seen[owner]; dup {
				continue
			}
			seen[owner] = struct{}{}
			direct = append(direct, owner)
		}
		sort.Strings(direct)
		m.refs[module] = direct
	}
	return m, nil
}

// Modules returns every module name in sorted order.
func (m *Map) Modules() []string {
	modules := make([]string, 0, len(m.funcs))
	for module := range m.funcs {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

// SourceFiles returns the absolute paths of every module file, sorted.
func (m *Map) SourceFiles() []string {
	return append([]string(nil), m.files...)
}

// Has reports whether a module named module exists.
func (m *Map) Has(module string) bool {
	_, ok := m.paths[module]
	return ok
}

// Path returns the absolute path of the module's source file.
func (m *Map) Path(module string) (string, bool) {
	path, ok := m.paths[module]
	return path, ok
}

// FunctionsOf returns the function names module defines, sorted. Unknown
// modules yield nil.
func (m *Map) FunctionsOf(module string) []string {
	return m.funcs[module]
}

// OwnerOf returns the module that defines fn.
func (m *Map) OwnerOf(fn string) (string, bool) {
	owner, ok := m.owners[fn]
	return owner, ok
}

// Dependencies returns the transitive dependency closure of module, sorted.
// The module itself is never part of its own closure, even through a cycle.
// The returned slice is shared with the cache; callers must not modify it.
func (m *Map) Dependencies(module string) []string {
	if deps, ok := m.closures.Get(module); ok {
		return deps
	}

	visited := map[string]struct{}{module: {}}
	queue := append([]string(nil), m.refs[module]...)
	var deps []string
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, done := visited[next]; done {
			continue
		}
		visited[next] = struct{}{}
		deps = append(deps, next)
		queue = append(queue, m.refs[next]...)
	}
	sort.Strings(deps)

	m.closures.Add(module, deps)
	return deps
}
