package scanner

import (
	"strings"
)

const DefaultMaxNesting = 512

type Options struct {
	// JSX permits JSX elements in expression position.
	JSX bool
	// MaxNesting caps the mode stack. Zero means DefaultMaxNesting.
	MaxNesting int
}

// Scanner produces tokens lazily. It never fails: malformed spans come back
// as Invalid tokens (or as the construct's own kind when it runs to EOF) and
// are recorded as issues.
type Scanner struct {
	src        string
	opts       Options
	maxNesting int

	pos  int
	line int
	col  int

	tokStart int
	tokLine  int
	tokCol   int

	stack []frame

	prev       Token
	prevPrev   Token
	exprEnded  bool
	forceEnded bool
	spanClosed bool

	issues  []Issue
	eofSeen bool
}

func New(src string, opts Options) *Scanner {
	s := &Scanner{}
	s.Reset(src, opts)
	return s
}

// Reset rewinds the scanner onto a new source.
func (s *Scanner) Reset(src string, opts Options) {
	s.src = src
	s.opts = opts
	s.maxNesting = opts.MaxNesting
	if s.maxNesting <= 0 {
		s.maxNesting = DefaultMaxNesting
	}
	s.pos, s.line, s.col = 0, 1, 1
	s.stack = append(s.stack[:0], frame{mode: ModeNormal})
	s.prev, s.prevPrev = Token{}, Token{}
	s.exprEnded, s.forceEnded, s.spanClosed = false, false, false
	s.issues = nil
	s.eofSeen = false
}

// Issues returns the recoverable problems seen so far.
func (s *Scanner) Issues() []Issue {
	return s.issues
}

// Next returns the next token. Once the input is exhausted every call
// returns an EOF token.
func (s *Scanner) Next() Token {
	if s.pos >= len(s.src) {
		return s.eof()
	}
	s.tokStart, s.tokLine, s.tokCol = s.pos, s.line, s.col

	var tok Token
	switch s.top().mode {
	case ModeTemplate:
		tok = s.scanTemplateSpan()
	case ModeJSXText:
		tok = s.scanJSXText()
	case ModeJSXTag:
		tok = s.scanJSXTag()
	default:
		tok = s.scanNormal()
	}
	s.observe(tok)
	return tok
}

// Tokenize scans src to completion. The returned slice ends with EOF.
func Tokenize(src string, opts Options) ([]Token, []Issue) {
	s := New(src, opts)
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, s.Issues()
		}
	}
}

func (s *Scanner) eof() Token {
	if !s.eofSeen {
		s.eofSeen = true
		if len(s.stack) > 1 {
			s.tokStart, s.tokLine, s.tokCol = s.pos, s.line, s.col
			s.issue("unterminated " + s.top().mode.String() + " construct at end of input")
		}
	}
	return Token{Kind: EOF, Start: len(s.src), End: len(s.src), Line: s.line, Column: s.col}
}

func (s *Scanner) emit(kind Kind) Token {
	text := s.src[s.tokStart:s.pos]
	tok := Token{Kind: kind, Text: text, Start: s.tokStart, End: s.pos, Line: s.tokLine, Column: s.tokCol}
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		s.line += strings.Count(text, "\n")
		s.col = len(text) - i
	} else {
		s.col += len(text)
	}
	return tok
}

func (s *Scanner) issue(msg string) {
	s.issues = append(s.issues, Issue{Offset: s.tokStart, Line: s.tokLine, Column: s.tokCol, Message: msg})
}

// recoverInvalid closes the current token as an opaque run.
func (s *Scanner) recoverInvalid(msg string) Token {
	s.issue(msg)
	return s.emit(Invalid)
}

// overflow gives up on the rest of the input once the nesting cap is hit.
func (s *Scanner) overflow() Token {
	s.issue("nesting limit exceeded; rest of input left unscanned")
	s.pos = len(s.src)
	return s.emit(Invalid)
}

// observe updates the regex/JSX context from a freshly scanned token.
func (s *Scanner) observe(tok Token) {
	if !tok.Significant() {
		return
	}
	ends := false
	switch tok.Kind {
	case Identifier:
		_, op := operatorWords[tok.Text]
		ends = !op || s.afterDot()
	case Keyword:
		_, lead := leadingKeywords[tok.Text]
		ends = !lead || s.afterDot()
	case StringLiteral, Number, RegexLiteral:
		ends = true
	case TemplateLiteralSpan:
		ends = s.spanClosed
	case Punctuator:
		ends = tok.Text == ")" || tok.Text == "]" || tok.Text == "}"
	case Operator:
		ends = tok.Text == "++" || tok.Text == "--"
	}
	if s.forceEnded {
		ends = true
		s.forceEnded = false
	}
	s.exprEnded = ends
	s.prevPrev, s.prev = s.prev, tok
}

func (s *Scanner) afterDot() bool {
	return s.prev.Is(Punctuator, ".") || s.prev.Is(Operator, "?.")
}

func (s *Scanner) peekByte(k int) byte {
	if i := s.pos + k; i < len(s.src) {
		return s.src[i]
	}
	return 0
}

func (s *Scanner) scanNormal() Token {
	c := s.src[s.pos]
	if s.spaceAt(s.pos) > 0 {
		return s.scanWhitespace()
	}
	switch {
	case c == '/':
		if tok, ok := s.scanComment(); ok {
			return tok
		}
		if !s.exprEnded {
			return s.scanRegex()
		}
		if s.peekByte(1) == '=' {
			s.pos += 2
		} else {
			s.pos++
		}
		return s.emit(Operator)
	case c == '"' || c == '\'':
		return s.scanString(c)
	case c == '`':
		if !s.push(frame{mode: ModeTemplate, fresh: true}) {
			return s.overflow()
		}
		return s.scanTemplateSpan()
	case isDigit(c) || (c == '.' && isDigit(s.peekByte(1))):
		return s.scanNumber()
	case c == '#' && s.pos == 0 && s.peekByte(1) == '!':
		s.skipLine()
		return s.emit(LineComment)
	case c == '#' && s.pos+1 < len(s.src) && s.identStartAt(s.pos+1) > 0:
		s.pos++
		return s.scanIdentifier()
	case c == '{':
		s.top().braces++
		s.pos++
		return s.emit(Punctuator)
	case c == '}':
		return s.scanCloseBrace()
	case c == '<':
		return s.scanLess()
	case c == '>':
		return s.scanGreater()
	}
	if s.identStartAt(s.pos) > 0 {
		return s.scanIdentifier()
	}
	return s.scanPunct()
}

func (s *Scanner) scanWhitespace() Token {
	for s.pos < len(s.src) {
		n := s.spaceAt(s.pos)
		if n == 0 {
			break
		}
		s.pos += n
	}
	return s.emit(Whitespace)
}

// scanComment scans a line or block comment starting at '/'.
func (s *Scanner) scanComment() (Token, bool) {
	switch s.peekByte(1) {
	case '/':
		s.skipLine()
		return s.emit(LineComment), true
	case '*':
		end := strings.Index(s.src[s.pos+2:], "*/")
		if end < 0 {
			s.pos = len(s.src)
			s.issue("unterminated block comment")
			return s.emit(BlockComment), true
		}
		s.pos += 2 + end + 2
		return s.emit(BlockComment), true
	}
	return Token{}, false
}

func (s *Scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		s.pos++
	}
}

func (s *Scanner) scanString(quote byte) Token {
	s.pos++
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; c {
		case quote:
			s.pos++
			return s.emit(StringLiteral)
		case '\\':
			s.pos++
			if s.pos+1 < len(s.src) && s.src[s.pos] == '\r' && s.src[s.pos+1] == '\n' {
				s.pos += 2
			} else if s.pos < len(s.src) {
				s.pos++
			}
		case '\n', '\r':
			return s.recoverInvalid("unterminated string literal")
		default:
			s.pos++
		}
	}
	return s.recoverInvalid("unterminated string literal")
}

func (s *Scanner) scanRegex() Token {
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n' || c == '\r':
			return s.recoverInvalid("unterminated regular expression")
		case c == '\\':
			s.pos++
			if s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
		case c == '[':
			inClass = true
			s.pos++
		case c == ']':
			inClass = false
			s.pos++
		case c == '/' && !inClass:
			s.pos++
			for s.pos < len(s.src) && isWordByte(s.src[s.pos]) {
				s.pos++
			}
			return s.emit(RegexLiteral)
		default:
			s.pos++
		}
	}
	return s.recoverInvalid("unterminated regular expression")
}

func (s *Scanner) scanNumber() Token {
	radix := s.src[s.pos] == '0' && strings.IndexByte("xXbBoO", s.peekByte(1)) >= 0
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if !isWordByte(c) && c != '.' {
			break
		}
		s.pos++
		if (c == 'e' || c == 'E') && !radix && (s.peekByte(0) == '+' || s.peekByte(0) == '-') {
			s.pos++
		}
	}
	return s.emit(Number)
}

func (s *Scanner) scanIdentifier() Token {
	for s.pos < len(s.src) {
		n := s.identPartAt(s.pos)
		if n == 0 {
			break
		}
		s.pos += n
	}
	word := s.src[s.tokStart:s.pos]
	if word == "function" && s.peekByte(0) == '*' {
		s.pos++
		return s.emit(Keyword)
	}
	if _, ok := keywords[word]; ok {
		return s.emit(Keyword)
	}
	return s.emit(Identifier)
}

func (s *Scanner) scanCloseBrace() Token {
	f := s.top()
	s.pos++
	if f.braces > 0 {
		f.braces--
		return s.emit(Punctuator)
	}
	switch f.closer {
	case closeTemplate:
		s.pop()
		return s.emit(TemplateExprEnd)
	case closeJSX:
		s.pop()
	}
	return s.emit(Punctuator)
}

// scanLess decides between a generic argument list, a JSX tag and a
// comparison. Anything ambiguous is a comparison.
func (s *Scanner) scanLess() Token {
	if s.exprEnded {
		if s.prev.Kind == Identifier || s.prev.Kind == Keyword {
			if end := s.matchGenericClose(s.pos + 1); end > 0 && (s.inTypePosition() || s.callFollows(end)) {
				return s.openGeneric()
			}
		}
		return s.scanComparison()
	}
	if s.opts.JSX && s.jsxStartsAt(s.pos+1) && !s.genericArrowAt(s.pos+1) {
		if !s.push(frame{mode: ModeJSXTag}) {
			return s.overflow()
		}
		s.pos++
		return s.emit(Punctuator)
	}
	if s.matchGenericClose(s.pos+1) > 0 {
		return s.openGeneric()
	}
	return s.scanComparison()
}

func (s *Scanner) openGeneric() Token {
	s.top().generic++
	s.pos++
	return s.emit(Punctuator)
}

func (s *Scanner) scanComparison() Token {
	for _, op := range []string{"<<=", "<<", "<="} {
		if strings.HasPrefix(s.src[s.pos:], op) {
			s.pos += len(op)
			return s.emit(Operator)
		}
	}
	s.pos++
	return s.emit(Punctuator)
}

func (s *Scanner) scanGreater() Token {
	if f := s.top(); f.generic > 0 {
		f.generic--
		s.pos++
		return s.emit(Punctuator)
	}
	for _, op := range []string{">>>=", ">>>", ">>=", ">>", ">="} {
		if strings.HasPrefix(s.src[s.pos:], op) {
			s.pos += len(op)
			return s.emit(Operator)
		}
	}
	s.pos++
	return s.emit(Punctuator)
}

func (s *Scanner) scanPunct() Token {
	rest := s.src[s.pos:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		if op == "?." && len(rest) > 2 && isDigit(rest[2]) {
			continue
		}
		s.pos += len(op)
		return s.emit(punctuatorKind(op))
	}
	if strings.IndexByte("()[],;.*+=:?!~-%&|^@#", rest[0]) >= 0 {
		s.pos++
		return s.emit(punctuatorKind(rest[:1]))
	}
	s.pos += runeWidth(rest)
	return s.recoverInvalid("unexpected character")
}
