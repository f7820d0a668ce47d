// Package scanner tokenizes JavaScript and TypeScript source text with just
// enough context to tell regexes from division, generics from JSX from
// comparisons, and template text from interpolated expressions.
package scanner

import "fmt"

type Kind uint8

const (
	EOF Kind = iota
	Identifier
	Keyword
	StringLiteral
	TemplateLiteralSpan
	TemplateExprStart
	TemplateExprEnd
	RegexLiteral
	LineComment
	BlockComment
	Punctuator
	Operator
	Number
	Whitespace
	JSXText
	Invalid
)

var kindNames = [...]string{
	EOF:                 "EOF",
	Identifier:          "Identifier",
	Keyword:             "Keyword",
	StringLiteral:       "StringLiteral",
	TemplateLiteralSpan: "TemplateLiteralSpan",
	TemplateExprStart:   "TemplateExprStart",
	TemplateExprEnd:     "TemplateExprEnd",
	RegexLiteral:        "RegexLiteral",
	LineComment:         "LineComment",
	BlockComment:        "BlockComment",
	Punctuator:          "Punctuator",
	Operator:            "Operator",
	Number:              "Number",
	Whitespace:          "Whitespace",
	JSXText:             "JSXText",
	Invalid:             "Invalid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Token is a classified span of the source. Text is always the exact source
// slice [Start, End).
type Token struct {
	Kind   Kind
	Text   string
	Start  int
	End    int
	Line   int
	Column int
}

// Significant reports whether the token matters to statement recognition.
func (t Token) Significant() bool {
	switch t.Kind {
	case Whitespace, LineComment, BlockComment:
		return false
	}
	return true
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsWord reports whether the token is an identifier or keyword spelled word.
func (t Token) IsWord(word string) bool {
	return (t.Kind == Identifier || t.Kind == Keyword) && t.Text == word
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Text, t.Line, t.Column)
}

var keywords = map[string]struct{}{
	"import":    {},
	"export":    {},
	"from":      {},
	"as":        {},
	"default":   {},
	"type":      {},
	"function":  {},
	"class":     {},
	"const":     {},
	"let":       {},
	"var":       {},
	"async":     {},
	"require":   {},
	"interface": {},
}

// IsKeyword reports whether word is in the closed keyword set.
func IsKeyword(word string) bool {
	if word == "function*" {
		return true
	}
	_, ok := keywords[word]
	return ok
}

// Reserved words scanned as keywords that never end an expression. The
// contextual ones (from, as, type, async, require, let, interface) are usable
// as plain identifiers and so may.
var leadingKeywords = map[string]struct{}{
	"import":    {},
	"export":    {},
	"default":   {},
	"function":  {},
	"function*": {},
	"class":     {},
	"const":     {},
	"var":       {},
}

// Reserved words that scan as identifiers but put the scanner in expression
// position.
var operatorWords = map[string]struct{}{
	"return":     {},
	"typeof":     {},
	"instanceof": {},
	"in":         {},
	"of":         {},
	"new":        {},
	"delete":     {},
	"void":       {},
	"throw":      {},
	"case":       {},
	"do":         {},
	"else":       {},
	"yield":      {},
	"await":      {},
}

var punctuators = map[string]struct{}{
	"{": {}, "}": {}, "(": {}, ")": {}, "[": {}, "]": {},
	"<": {}, ">": {}, ",": {}, ";": {}, ".": {}, "...": {},
	"*": {}, "+": {},
}

// Multi-character operators, longest first within each leading byte.
var operators = []string{
	"...", "===", "!==", "**=", "&&=", "||=", "??=",
	"=>", "==", "!=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "%=", "&=", "|=", "^=", "**",
}

func punctuatorKind(text string) Kind {
	if _, ok := punctuators[text]; ok {
		return Punctuator
	}
	return Operator
}

// Issue is a recoverable lexical problem. Scanning continues past it.
type Issue struct {
	Offset  int
	Line    int
	Column  int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%d:%d: %s", i.Line, i.Column, i.Message)
}
