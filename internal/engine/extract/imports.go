package extract

import "jsdeps/internal/engine/scanner"

func (e *extractor) importStatement() {
	start := e.cur.next()
	if e.cur.atPunct(".") || e.cur.at(scanner.Operator, ":") || e.cur.at(scanner.Operator, "=") {
		return
	}

	st := e.statement(StaticImport, start)
	if tok := e.cur.peek(0); tok.Kind == scanner.StringLiteral {
		e.cur.next()
		spec := unquote(tok.Text)
		st.Specifier = &spec
		e.skipImportAttributes()
		e.emit(st)
		return
	}

	if e.typeModifier() {
		st.IsTypeOnly = true
		e.cur.next()
	}

	needFrom := false
	if tok := e.cur.peek(0); isName(tok) && !(tok.IsWord("from") && e.cur.peek(1).Kind == scanner.StringLiteral) {
		if e.cur.peek(1).Is(scanner.Operator, "=") {
			// import x = require("m"); the call is recorded on its own.
			return
		}
		e.cur.next()
		st.IsDefault = true
		st.ImportedNames = append(st.ImportedNames, ImportedName{Name: "default", Alias: tok.Text})
		needFrom = true
		if e.cur.atPunct(",") {
			e.cur.next()
			needFrom = false
		}
	}

	if !needFrom {
		switch {
		case e.cur.atPunct("*"):
			e.cur.next()
			alias := e.cur.peek(1)
			if !e.cur.atWord("as") || !isName(alias) {
				e.skipped(start, "malformed namespace import")
				return
			}
			e.cur.next()
			e.cur.next()
			st.IsNamespace = true
			st.ImportedNames = append(st.ImportedNames, ImportedName{Name: "*", Alias: alias.Text})
		case e.cur.atPunct("{"):
			names, _, ok := e.namedList()
			if !ok {
				e.skipped(start, "malformed import clause")
				return
			}
			st.ImportedNames = append(st.ImportedNames, names...)
			if !st.IsDefault && allTyped(names) {
				st.IsTypeOnly = true
			}
		default:
			e.skipped(start, "malformed import declaration")
			return
		}
	}

	spec, ok := e.fromClause()
	if !ok {
		e.skipped(start, "import declaration without module specifier")
		return
	}
	st.Specifier = &spec
	e.emit(st)
}

// typeModifier reports whether the `type` at the cursor marks a type-only
// import rather than naming a default binding called "type".
func (e *extractor) typeModifier() bool {
	if !e.cur.atWord("type") && !e.cur.atWord("typeof") {
		return false
	}
	next := e.cur.peek(1)
	switch {
	case next.Is(scanner.Punctuator, "{"), next.Is(scanner.Punctuator, "*"):
		return true
	case next.IsWord("from"):
		return e.cur.peek(2).Kind != scanner.StringLiteral
	}
	return isName(next)
}

// fromClause consumes `from "m"` plus any import attributes.
func (e *extractor) fromClause() (string, bool) {
	if !e.cur.atWord("from") {
		return "", false
	}
	tok := e.cur.peek(1)
	if tok.Kind != scanner.StringLiteral {
		return "", false
	}
	e.cur.next()
	e.cur.next()
	e.skipImportAttributes()
	return unquote(tok.Text), true
}

// namedList parses a braced binding list. It reports whether any name or
// alias was written as a string literal.
func (e *extractor) namedList() (names []ImportedName, hasString bool, ok bool) {
	e.cur.next()
	for {
		tok := e.cur.peek(0)
		switch {
		case tok.Is(scanner.Punctuator, "}"):
			e.cur.next()
			return names, hasString, true
		case tok.Is(scanner.Punctuator, ","):
			e.cur.next()
			continue
		case !isName(tok) && tok.Kind != scanner.StringLiteral:
			return names, hasString, false
		}

		var n ImportedName
		if tok.IsWord("type") && e.inlineType() {
			n.IsType = true
			e.cur.next()
			tok = e.cur.peek(0)
		}
		e.cur.next()
		n.Name = bindingText(tok, &hasString)
		if e.cur.atWord("as") {
			alias := e.cur.peek(1)
			if !isName(alias) && alias.Kind != scanner.StringLiteral {
				return names, hasString, false
			}
			e.cur.next()
			e.cur.next()
			n.Alias = bindingText(alias, &hasString)
		}
		names = append(names, n)
	}
}

// inlineType decides whether `type` inside braces is a modifier.
func (e *extractor) inlineType() bool {
	next := e.cur.peek(1)
	if next.IsWord("as") {
		after := e.cur.peek(2)
		return after.Is(scanner.Punctuator, ",") || after.Is(scanner.Punctuator, "}") || after.IsWord("as")
	}
	return isName(next) || next.Kind == scanner.StringLiteral
}

func bindingText(tok scanner.Token, hasString *bool) string {
	if tok.Kind == scanner.StringLiteral {
		*hasString = true
		return unquote(tok.Text)
	}
	return tok.Text
}

func allTyped(names []ImportedName) bool {
	for _, n := range names {
		if !n.IsType {
			return false
		}
	}
	return len(names) > 0
}
