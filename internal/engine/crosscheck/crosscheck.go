// Package crosscheck re-derives module specifiers with a full tree-sitter
// parse and reports where the token-level extractor disagrees.
package crosscheck

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"jsdeps/internal/engine/extract"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type Dialect uint8

const (
	JavaScript Dialect = iota
	TypeScript
	TSX
)

func (d Dialect) String() string {
	switch d {
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	default:
		return "javascript"
	}
}

// DialectFor picks the grammar for a file by extension. The JavaScript
// grammar accepts JSX.
func DialectFor(file string) Dialect {
	switch path.Ext(file) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return JavaScript
	}
}

// Reference is one literal specifier found by the parser.
type Reference struct {
	Kind      extract.Kind
	Specifier string
	Line      int
}

// Mismatch is a specifier found by only one side.
type Mismatch struct {
	File      string
	Specifier string
	Line      int
	// Missing is true when the parser saw the specifier and the extractor
	// did not; false means the extractor reported one the parser did not.
	Missing bool
}

func (m Mismatch) String() string {
	side := "extra"
	if m.Missing {
		side = "missing"
	}
	return fmt.Sprintf("%s:%d: %s %q", m.File, m.Line, side, m.Specifier)
}

type Checker struct {
	pools map[Dialect]*parserPool
}

func New() *Checker {
	return &Checker{pools: map[Dialect]*parserPool{
		JavaScript: newParserPool(sitter.NewLanguage(tree_sitter_javascript.Language())),
		TypeScript: newParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())),
		TSX:        newParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())),
	}}
}

// References parses src and returns its literal specifiers in source order.
func (c *Checker) References(file string, src []byte) ([]Reference, error) {
	pool := c.pools[DialectFor(file)]
	sp := pool.get()
	defer pool.put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree", file)
	}
	defer tree.Close()

	var refs []Reference
	stack := []*sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref, ok := reference(node, src); ok {
			refs = append(refs, ref)
		}
		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			if ch := node.NamedChild(uint(i)); ch != nil {
				stack = append(stack, ch)
			}
		}
	}
	return refs, nil
}

func reference(node *sitter.Node, src []byte) (Reference, bool) {
	line := int(node.StartPosition().Row) + 1
	switch node.Kind() {
	case "import_statement", "export_statement":
		source := node.ChildByFieldName("source")
		if source == nil {
			return Reference{}, false
		}
		kind := extract.StaticImport
		if node.Kind() == "export_statement" {
			kind = extract.ReExportNamed
		}
		spec, ok := stringValue(source, src)
		return Reference{Kind: kind, Specifier: spec, Line: line}, ok
	case "import_require_clause":
		source := node.ChildByFieldName("source")
		if source == nil {
			return Reference{}, false
		}
		spec, ok := stringValue(source, src)
		return Reference{Kind: extract.RequireCall, Specifier: spec, Line: line}, ok
	case "call_expression":
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")
		if fn == nil || args == nil || args.NamedChildCount() == 0 {
			return Reference{}, false
		}
		kind := extract.DynamicImport
		switch {
		case fn.Kind() == "import":
			if args.NamedChildCount() > 2 {
				return Reference{}, false
			}
		case fn.Kind() == "identifier" && fn.Utf8Text(src) == "require":
			kind = extract.RequireCall
			if args.NamedChildCount() != 1 {
				return Reference{}, false
			}
		default:
			return Reference{}, false
		}
		spec, ok := stringValue(args.NamedChild(0), src)
		return Reference{Kind: kind, Specifier: spec, Line: line}, ok
	}
	return Reference{}, false
}

// stringValue returns the contents of a string node or of a template string
// without substitutions.
func stringValue(node *sitter.Node, src []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	text := node.Utf8Text(src)
	switch node.Kind() {
	case "string":
	case "template_string":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if ch := node.NamedChild(i); ch != nil && ch.Kind() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// Compare checks the extractor's literal specifiers for file against the
// parser's. Specifiers are compared as multisets so that ordering differences
// between the two walks do not count.
func (c *Checker) Compare(file string, src []byte, stmts []extract.DependencyStatement) ([]Mismatch, error) {
	refs, err := c.References(file, src)
	if err != nil {
		return nil, err
	}

	want := make(map[string][]int)
	for _, ref := range refs {
		want[ref.Specifier] = append(want[ref.Specifier], ref.Line)
	}
	var out []Mismatch
	for _, st := range stmts {
		if !st.HasSpecifier() {
			continue
		}
		spec := *st.Specifier
		if lines := want[spec]; len(lines) > 0 {
			want[spec] = lines[1:]
			continue
		}
		out = append(out, Mismatch{File: file, Specifier: spec, Line: st.Range.Line})
	}
	for spec, lines := range want {
		for _, line := range lines {
			out = append(out, Mismatch{File: file, Specifier: spec, Line: line, Missing: true})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return strings.Compare(out[i].Specifier, out[j].Specifier) < 0
	})
	return out, nil
}
