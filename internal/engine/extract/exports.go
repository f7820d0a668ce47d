package extract

import "jsdeps/internal/engine/scanner"

const maxPatternDepth = 256

func (e *extractor) exportStatement() {
	start := e.cur.next()
	tok := e.cur.peek(0)
	switch {
	case tok.Is(scanner.Operator, ":"):
		// Object key named export.
	case tok.Is(scanner.Operator, "="):
		e.cur.next()
		st := e.statement(DefaultExportDecl, start)
		st.IsDefault = true
		st.ImportedNames = []ImportedName{{Name: "default"}}
		e.emit(st)
		e.export("default")
	case tok.Is(scanner.Punctuator, "*"):
		e.exportStar(start, false)
	case tok.Is(scanner.Punctuator, "{"):
		e.exportClause(start, false)
	case tok.IsWord("type") && e.cur.peek(1).Is(scanner.Punctuator, "{"):
		e.cur.next()
		e.exportClause(start, true)
	case tok.IsWord("type") && e.cur.peek(1).Is(scanner.Punctuator, "*"):
		e.cur.next()
		e.exportStar(start, true)
	case tok.IsWord("default"):
		e.exportDefault(start)
	case tok.IsWord("as") && e.cur.peek(1).IsWord("namespace"):
		// UMD global name, not a module binding.
	case tok.IsWord("import"):
		e.cur.next()
		e.skipped(start, "export import alias is not supported")
	default:
		e.exportDeclaration(start)
	}
}

func (e *extractor) exportStar(start scanner.Token, typeOnly bool) {
	e.cur.next()
	st := e.statement(ReExportAll, start)
	st.ReExport = true
	st.IsTypeOnly = typeOnly
	if e.cur.atWord("as") {
		alias := e.cur.peek(1)
		if alias.Kind == scanner.StringLiteral {
			e.skipped(start, "string literal export names are not supported")
			return
		}
		if !isName(alias) {
			e.skipped(start, "malformed namespace re-export")
			return
		}
		e.cur.next()
		e.cur.next()
		st.IsNamespace = true
		st.ImportedNames = []ImportedName{{Name: "*", Alias: alias.Text}}
	}
	spec, ok := e.fromClause()
	if !ok {
		e.skipped(start, "export * without module specifier")
		return
	}
	st.Specifier = &spec
	e.emit(st)
	if st.IsNamespace {
		e.export(st.ImportedNames[0].Alias)
	}
}

func (e *extractor) exportClause(start scanner.Token, typeOnly bool) {
	names, hasString, ok := e.namedList()
	if !ok {
		e.skipped(start, "malformed export clause")
		return
	}
	st := e.statement(StaticExport, start)
	st.IsTypeOnly = typeOnly || allTyped(names)
	st.ImportedNames = names
	if e.cur.atWord("from") {
		spec, ok := e.fromClause()
		if !ok {
			e.skipped(start, "re-export without module specifier")
			return
		}
		st.Kind = ReExportNamed
		st.ReExport = true
		st.Specifier = &spec
	}
	if hasString {
		e.skipped(start, "string literal export names are not supported")
		return
	}
	for _, n := range names {
		if n.Public() == "default" {
			st.IsDefault = true
		}
	}
	e.emit(st)
	for _, n := range names {
		e.export(n.Public())
	}
}

func (e *extractor) exportDefault(start scanner.Token) {
	e.cur.next()
	st := e.statement(DefaultExportDecl, start)
	st.IsDefault = true
	st.ImportedNames = []ImportedName{{Name: "default", Alias: e.defaultName()}}
	e.emit(st)
	e.export("default")
}

// defaultName consumes the header of a named default function, class or
// interface declaration and returns its local name.
func (e *extractor) defaultName() string {
	i := 0
	if (e.cur.atWord("async") && isFunction(e.cur.peek(1))) || (e.cur.atWord("abstract") && e.cur.peek(1).IsWord("class")) {
		i = 1
	}
	head := e.cur.peek(i)
	nameAt := i + 1
	switch {
	case isFunction(head):
		if e.cur.peek(nameAt).Is(scanner.Punctuator, "*") {
			nameAt++
		}
	case head.IsWord("class"), head.IsWord("interface"):
	default:
		return ""
	}
	name := e.cur.peek(nameAt)
	if !isName(name) || name.IsWord("extends") || name.IsWord("implements") {
		return ""
	}
	e.consume(nameAt + 1)
	return name.Text
}

func (e *extractor) exportDeclaration(start scanner.Token) {
	i := 0
	for {
		t := e.cur.peek(i)
		if t.IsWord("declare") || t.IsWord("abstract") || (t.IsWord("async") && isFunction(e.cur.peek(i+1))) {
			i++
			continue
		}
		break
	}

	head := e.cur.peek(i)
	nameAt := i + 1
	typeOnly := false
	switch {
	case isFunction(head):
		if e.cur.peek(nameAt).Is(scanner.Punctuator, "*") {
			nameAt++
		}
	case head.IsWord("const") && e.cur.peek(i+1).IsWord("enum"):
		nameAt++
	case head.IsWord("const"), head.IsWord("let"), head.IsWord("var"):
		e.consume(i + 1)
		e.exportBindings(start)
		return
	case head.IsWord("interface"):
		typeOnly = true
	case head.IsWord("type"):
		after := e.cur.peek(i + 2)
		if !after.Is(scanner.Operator, "=") && !after.Is(scanner.Punctuator, "<") {
			e.skipped(start, "unrecognized export form")
			return
		}
		typeOnly = true
	case head.IsWord("class"), head.IsWord("enum"), head.IsWord("namespace"), head.IsWord("module"):
	default:
		e.skipped(start, "unrecognized export form")
		return
	}

	name := e.cur.peek(nameAt)
	if !isName(name) {
		e.skipped(start, "export declaration without a name")
		return
	}
	e.consume(nameAt + 1)
	st := e.statement(StaticExport, start)
	st.IsTypeOnly = typeOnly
	st.ImportedNames = []ImportedName{{Name: name.Text, IsType: typeOnly}}
	e.emit(st)
	e.export(name.Text)
}

// exportBindings handles the declarator after `export const|let|var`.
func (e *extractor) exportBindings(start scanner.Token) {
	var names []string
	switch tok := e.cur.peek(0); {
	case tok.Is(scanner.Punctuator, "{"), tok.Is(scanner.Punctuator, "["):
		bound, ok := e.pattern(0)
		if !ok {
			e.skipped(start, "malformed destructuring pattern")
			return
		}
		names = bound
	case isName(tok):
		e.cur.next()
		if e.cur.at(scanner.Operator, "!") {
			e.cur.next()
		}
		names = []string{tok.Text}
	default:
		e.skipped(start, "malformed exported variable")
		return
	}

	if e.cur.at(scanner.Operator, ":") {
		e.skipType()
	}
	if e.cur.atPunct(",") {
		e.skipped(start, "multiple declarators in an exported variable statement are not supported")
		return
	}

	var emitted []int
	for _, name := range names {
		st := e.statement(StaticExport, start)
		st.ImportedNames = []ImportedName{{Name: name}}
		emitted = append(emitted, e.emit(st))
		e.export(name)
	}
	if e.cur.at(scanner.Operator, "=") && len(emitted) > 0 {
		e.watch = &declWatch{stmts: emitted, names: names, start: start, line: e.cur.peek(0).Line}
	}
}

// pattern walks a destructuring pattern and returns the bound names.
// Default values are skipped, not evaluated.
func (e *extractor) pattern(depth int) ([]string, bool) {
	if depth > maxPatternDepth {
		return nil, false
	}
	open := e.cur.next()
	closing := "}"
	if open.Text == "[" {
		closing = "]"
	}

	var names []string
	for {
		tok := e.cur.peek(0)
		switch {
		case tok.Kind == scanner.EOF:
			return names, false
		case tok.Is(scanner.Punctuator, closing):
			e.cur.next()
			return names, true
		case tok.Is(scanner.Punctuator, ","), tok.Is(scanner.Punctuator, "..."):
			e.cur.next()
			continue
		}

		if closing == "]" {
			bound, ok := e.element(depth)
			if !ok {
				return names, false
			}
			names = append(names, bound...)
			continue
		}

		switch {
		case tok.Is(scanner.Punctuator, "["):
			e.skipBalanced()
		case isName(tok), tok.Kind == scanner.StringLiteral, tok.Kind == scanner.Number:
			e.cur.next()
		default:
			return names, false
		}
		if e.cur.at(scanner.Operator, ":") {
			e.cur.next()
			bound, ok := e.element(depth)
			if !ok {
				return names, false
			}
			names = append(names, bound...)
			continue
		}
		if !isName(tok) {
			return names, false
		}
		names = append(names, tok.Text)
		if e.cur.at(scanner.Operator, "=") {
			e.cur.next()
			e.skipDefault()
		}
	}
}

func (e *extractor) element(depth int) ([]string, bool) {
	var names []string
	switch tok := e.cur.peek(0); {
	case tok.Is(scanner.Punctuator, "{"), tok.Is(scanner.Punctuator, "["):
		bound, ok := e.pattern(depth + 1)
		if !ok {
			return nil, false
		}
		names = bound
	case isName(tok):
		e.cur.next()
		names = []string{tok.Text}
	default:
		return nil, false
	}
	if e.cur.at(scanner.Operator, "=") {
		e.cur.next()
		e.skipDefault()
	}
	return names, true
}

// skipDefault consumes a default-value expression up to the next
// separator at its own nesting level.
func (e *extractor) skipDefault() {
	depth := 0
	for {
		tok := e.cur.peek(0)
		if tok.Kind == scanner.EOF {
			return
		}
		if depth == 0 && (tok.Is(scanner.Punctuator, ",") || tok.Is(scanner.Punctuator, "}") || tok.Is(scanner.Punctuator, "]")) {
			return
		}
		if e.call() {
			continue
		}
		e.cur.next()
		depth += nesting(tok)
	}
}

// skipType consumes a type annotation starting at ':'.
func (e *extractor) skipType() {
	e.cur.next()
	depth, angle := 0, 0
	line := e.cur.prev.Line
	for {
		tok := e.cur.peek(0)
		if tok.Kind == scanner.EOF {
			return
		}
		if depth == 0 && angle == 0 {
			if tok.Is(scanner.Operator, "=") || tok.Is(scanner.Punctuator, ",") || tok.Is(scanner.Punctuator, ";") {
				return
			}
			if tok.Line > line && startsStatement(tok) {
				return
			}
		}
		switch {
		case tok.Is(scanner.Punctuator, "<"):
			angle++
		case tok.Is(scanner.Punctuator, ">") && angle > 0:
			angle--
		default:
			depth += nesting(tok)
			if depth < 0 {
				return
			}
		}
		e.cur.next()
		line = tok.Line
	}
}

func (e *extractor) consume(n int) {
	for i := 0; i < n; i++ {
		e.cur.next()
	}
}

func isFunction(tok scanner.Token) bool {
	return tok.Is(scanner.Keyword, "function") || tok.Is(scanner.Keyword, "function*")
}

var statementWords = map[string]struct{}{
	"import": {}, "export": {}, "const": {}, "let": {}, "var": {},
	"function": {}, "function*": {}, "class": {}, "interface": {},
	"if": {}, "for": {}, "while": {}, "return": {}, "switch": {},
	"try": {}, "throw": {}, "do": {},
}

func startsStatement(tok scanner.Token) bool {
	if !isName(tok) {
		return false
	}
	_, ok := statementWords[tok.Text]
	return ok
}
