package extract

import "jsdeps/internal/engine/scanner"

// declWatch follows the initializer of an exported variable. A comma at the
// initializer's own level means a second declarator, and the statement is
// withdrawn. The watch ends at `;`, or at a line break where automatic
// semicolon insertion closes the initializer.
type declWatch struct {
	stmts []int
	names []string
	start scanner.Token
	line  int
	depth int
	angle int
	ended bool
}

func (e *extractor) track(tok scanner.Token) {
	w := e.watch
	if w == nil {
		return
	}
	top := w.depth == 0 && w.angle == 0
	switch {
	case top && tok.Is(scanner.Punctuator, ","):
		e.retract(w)
		e.watch = nil
		return
	case top && tok.Is(scanner.Punctuator, ";"):
		e.watch = nil
		return
	case top && tok.Line > w.line && (startsStatement(tok) || w.ended && continuesLine(tok)):
		e.watch = nil
		return
	case tok.Is(scanner.Punctuator, "<"):
		w.angle++
	case tok.Is(scanner.Punctuator, ">"):
		if w.angle > 0 {
			w.angle--
		}
	default:
		w.depth += nesting(tok)
		if w.depth < 0 {
			e.watch = nil
			return
		}
	}
	w.line = tok.Line
	w.ended = endsOperand(tok)
}

var infixWords = map[string]struct{}{
	"in": {}, "instanceof": {}, "as": {}, "satisfies": {}, "of": {},
}

// endsOperand reports whether tok can be the last token of an expression.
func endsOperand(tok scanner.Token) bool {
	switch tok.Kind {
	case scanner.Identifier, scanner.Keyword:
		_, infix := infixWords[tok.Text]
		return !infix
	case scanner.StringLiteral, scanner.Number, scanner.RegexLiteral, scanner.TemplateLiteralSpan:
		return true
	case scanner.Punctuator:
		return tok.Text == ")" || tok.Text == "]" || tok.Text == "}"
	}
	return false
}

// continuesLine reports whether tok, first on a new line after a complete
// operand, starts a new statement rather than extending the expression.
func continuesLine(tok scanner.Token) bool {
	switch tok.Kind {
	case scanner.Identifier, scanner.Keyword:
		_, infix := infixWords[tok.Text]
		return !infix
	case scanner.StringLiteral, scanner.Number:
		return true
	}
	return false
}

func (e *extractor) retract(w *declWatch) {
	drop := make(map[int]struct{}, len(w.stmts))
	for _, i := range w.stmts {
		drop[i] = struct{}{}
	}
	kept := e.res.Statements[:0]
	for i, st := range e.res.Statements {
		if _, ok := drop[i]; !ok {
			kept = append(kept, st)
		}
	}
	e.res.Statements = kept
	for _, name := range w.names {
		e.unexport(name)
	}
	e.skipped(w.start, "multiple declarators in an exported variable statement are not supported")
}
