// Package extract recognises dependency-relevant statements in a token
// stream: static imports and exports, re-exports, default exports,
// require calls and dynamic imports.
package extract

import (
	"fmt"

	"jsdeps/internal/core/errors"
)

type Kind uint8

const (
	StaticImport Kind = iota
	StaticExport
	ReExportAll
	ReExportNamed
	DefaultExportDecl
	RequireCall
	DynamicImport
)

var kindNames = [...]string{
	StaticImport:      "StaticImport",
	StaticExport:      "StaticExport",
	ReExportAll:       "ReExportAll",
	ReExportNamed:     "ReExportNamed",
	DefaultExportDecl: "DefaultExportDecl",
	RequireCall:       "RequireCall",
	DynamicImport:     "DynamicImport",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown statement kind %q", text)
	}
	*k = parsed
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Kinds lists every statement kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ImportedName is one binding of a statement. Default bindings use Name
// "default" and namespace bindings use Name "*"; Alias is the local (or, for
// exports, public) name when it differs.
type ImportedName struct {
	Name   string
	Alias  string
	IsType bool
}

// Public is the name the binding is visible under.
func (n ImportedName) Public() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

type Range struct {
	Start  int
	End    int
	Line   int
	Column int
}

type DependencyStatement struct {
	Kind Kind
	// Specifier is nil when the module argument is not a literal string.
	Specifier     *string
	IsTypeOnly    bool
	IsDefault     bool
	IsNamespace   bool
	ImportedNames []ImportedName
	ReExport      bool
	SourceFile    string
	Range         Range
}

// HasSpecifier reports whether the statement names another module.
func (s DependencyStatement) HasSpecifier() bool {
	return s.Specifier != nil
}

// SpecifierText returns the specifier or "" when it is unresolvable.
func (s DependencyStatement) SpecifierText() string {
	if s.Specifier == nil {
		return ""
	}
	return *s.Specifier
}

// Dynamic reports whether the statement is evaluated at runtime.
func (s DependencyStatement) Dynamic() bool {
	return s.Kind == RequireCall || s.Kind == DynamicImport
}

// Diagnostic is a recoverable problem found while extracting one file.
type Diagnostic struct {
	Code    errors.ErrorCode
	Message string
	File    string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: [%s] %s", d.File, d.Line, d.Column, d.Code, d.Message)
}

type Result struct {
	Statements  []DependencyStatement
	Exports     []string
	Diagnostics []Diagnostic
}
