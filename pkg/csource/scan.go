// Package csource extracts function definitions and references from C
// source text. The scan is a deliberately narrow tokenizer (an optional
// return-type token, an identifier, a parenthesized parameter list, an
// opening block), not a C parser: nested braces, macros, and unusual
// formatting may over- or under-match. That trade-off is intentional; the
// callers only need the function names a generated test file defines and
// the symbols a production file mentions.
package csource

import (
	"bytes"
	"regexp"
)

// Definition is one function definition found in a source file.
type Definition struct {
	Name string
	Line int // 1-based
}

// definitionPattern matches `[type] name(params) {` shapes. The return-type
// token is optional so old-style definitions still match; keyword filtering
// below rejects the control-flow constructs that would otherwise slip in
// (`else if (x) {` must not yield a phantom `if`).
var definitionPattern = regexp.MustCompile(`(?:\b[A-Za-z_]\w*[\s*]+)?([A-Za-z_]\w*)\s*\(([^)]*)\)\s*\{`)

// referencePattern matches any identifier directly followed by a call-style
// open paren.
var referencePattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)

// keywords are rejected as captured names: an identifier by definition
// excludes reserved words.
var keywords = map[string]struct{}{
	"auto": {}, "break": {}, "case": {}, "char": {}, "const": {},
	"continue": {}, "default": {}, "do": {}, "double": {}, "else": {},
	"enum": {}, "extern": {}, "float": {}, "for": {}, "goto": {},
	"if": {}, "inline": {}, "int": {}, "long": {}, "register": {},
	"restrict": {}, "return": {}, "short": {}, "signed": {}, "sizeof": {},
	"static": {}, "struct": {}, "switch": {}, "typedef": {}, "union": {},
	"unsigned": {}, "void": {}, "volatile": {}, "while": {},
}

// ScanDefinitions returns the function definitions found in src, in source
// order.
func ScanDefinitions(src []byte) []Definition {
	var defs []Definition
	for _, loc := range definitionPattern.FindAllSubmatchIndex(src, -1) {
		name := string(src[loc[2]:loc[3]])
		if _, reserved := keywords[name]; reserved {
			continue
		}
		line := 1 + bytes.Count(src[:loc[2]], []byte{'\n'})
		defs = append(defs, Definition{Name: name, Line: line})
	}
	return defs
}

// ScanReferences returns the distinct identifiers in src that appear
// directly before a call-style paren, in first-appearance order. Reserved
// words are excluded. Definitions count as references too; callers that
// build dependency edges drop self-owned names.
func ScanReferences(src []byte) []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, m := range referencePattern.FindAllSubmatch(src, -1) {
		name := string(m[1])
		if _, reserved := keywords[name]; reserved {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}
	return refs
}
