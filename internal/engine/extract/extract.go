package extract

import (
	"jsdeps/internal/core/errors"
	"jsdeps/internal/engine/scanner"
)

type Options struct {
	JSX        bool
	MaxNesting int
}

type extractor struct {
	cur     cursor
	file    string
	res     Result
	exports map[string]struct{}
	watch   *declWatch
}

// Extract scans one file and returns its dependency statements in source
// order, its exported names and any recoverable diagnostics. It never fails.
func Extract(file, src string, opts Options) Result {
	e := &extractor{
		cur:     cursor{sc: scanner.New(src, scanner.Options{JSX: opts.JSX, MaxNesting: opts.MaxNesting})},
		file:    file,
		exports: make(map[string]struct{}),
	}
	e.run()
	for _, issue := range e.cur.sc.Issues() {
		e.res.Diagnostics = append(e.res.Diagnostics, Diagnostic{
			Code:    errors.CodeLexRecoverable,
			Message: issue.Message,
			File:    file,
			Line:    issue.Line,
			Column:  issue.Column,
		})
	}
	return e.res
}

func (e *extractor) run() {
	for {
		tok := e.cur.peek(0)
		if tok.Kind == scanner.EOF {
			return
		}
		e.track(tok)
		if e.call() {
			continue
		}
		switch {
		case tok.Is(scanner.Keyword, "import") && !e.afterMember():
			e.importStatement()
		case tok.Is(scanner.Keyword, "export") && !e.afterMember():
			e.exportStatement()
		default:
			e.cur.next()
		}
	}
}

// call recognises require(...) and import(...) at the cursor. Only the
// keyword is consumed, so calls nested in the arguments are still seen.
func (e *extractor) call() bool {
	tok := e.cur.peek(0)
	var kind Kind
	switch {
	case tok.Is(scanner.Keyword, "require"):
		kind = RequireCall
	case tok.Is(scanner.Keyword, "import"):
		kind = DynamicImport
	default:
		return false
	}
	if !e.cur.peek(1).Is(scanner.Punctuator, "(") || e.afterMember() || e.cur.prev.IsWord("function") {
		return false
	}

	st := e.statement(kind, tok)
	if lit, ok := literal(e.cur.peek(2)); ok && e.soleArgument(kind) {
		st.Specifier = &lit
		st.Range.End = e.cur.peek(3).End
	}
	e.cur.next()
	e.res.Statements = append(e.res.Statements, st)
	return true
}

// soleArgument checks the tokens after the literal at peek(2). Dynamic
// imports may carry an options object as a second argument.
func (e *extractor) soleArgument(kind Kind) bool {
	after := e.cur.peek(3)
	if after.Is(scanner.Punctuator, ")") {
		return true
	}
	if !after.Is(scanner.Punctuator, ",") {
		return false
	}
	return kind == DynamicImport || e.cur.peek(4).Is(scanner.Punctuator, ")")
}

func (e *extractor) afterMember() bool {
	p := e.cur.prev
	return p.Is(scanner.Punctuator, ".") || p.Is(scanner.Operator, "?.")
}

func (e *extractor) statement(kind Kind, start scanner.Token) DependencyStatement {
	return DependencyStatement{
		Kind:       kind,
		SourceFile: e.file,
		Range:      Range{Start: start.Start, End: start.End, Line: start.Line, Column: start.Column},
	}
}

// emit closes st at the last consumed token and records it.
func (e *extractor) emit(st DependencyStatement) int {
	st.Range.End = e.cur.prev.End
	e.res.Statements = append(e.res.Statements, st)
	return len(e.res.Statements) - 1
}

func (e *extractor) export(name string) {
	if _, ok := e.exports[name]; ok {
		return
	}
	e.exports[name] = struct{}{}
	e.res.Exports = append(e.res.Exports, name)
}

func (e *extractor) unexport(name string) {
	if _, ok := e.exports[name]; !ok {
		return
	}
	delete(e.exports, name)
	for i, n := range e.res.Exports {
		if n == name {
			e.res.Exports = append(e.res.Exports[:i], e.res.Exports[i+1:]...)
			return
		}
	}
}

func (e *extractor) skipped(at scanner.Token, msg string) {
	e.res.Diagnostics = append(e.res.Diagnostics, Diagnostic{
		Code:    errors.CodeExtractSkipped,
		Message: msg,
		File:    e.file,
		Line:    at.Line,
		Column:  at.Column,
	})
}

// skipImportAttributes consumes a trailing `with { ... }` or `assert { ... }`.
func (e *extractor) skipImportAttributes() {
	if (e.cur.atWord("with") || e.cur.atWord("assert")) && e.cur.peek(1).Is(scanner.Punctuator, "{") &&
		e.cur.peek(1).Line == e.cur.prev.Line {
		e.cur.next()
		e.skipBalanced()
	}
}

// skipBalanced consumes a bracketed group starting at the cursor.
func (e *extractor) skipBalanced() {
	depth := 0
	for {
		tok := e.cur.peek(0)
		if tok.Kind == scanner.EOF {
			return
		}
		if e.call() {
			continue
		}
		e.cur.next()
		depth += nesting(tok)
		if depth <= 0 {
			return
		}
	}
}

// nesting is +1 for openers, -1 for closers and 0 otherwise.
func nesting(tok scanner.Token) int {
	switch tok.Kind {
	case scanner.Punctuator:
		switch tok.Text {
		case "(", "[", "{":
			return 1
		case ")", "]", "}":
			return -1
		}
	case scanner.TemplateExprStart:
		return 1
	case scanner.TemplateExprEnd:
		return -1
	}
	return 0
}

func isName(tok scanner.Token) bool {
	return tok.Kind == scanner.Identifier || tok.Kind == scanner.Keyword
}
