package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxGenericLookahead = 1024

// matchGenericClose looks for the '>' closing a type argument list opened
// just before i. It returns the offset after that '>' or -1 when the text
// reads more like an expression.
func (s *Scanner) matchGenericClose(i int) int {
	depth := 1
	var nest []byte
	limit := min(len(s.src), i+maxGenericLookahead)
	for i < limit {
		c := s.src[i]
		switch {
		case c == '<':
			depth++
		case c == '>':
			depth--
			if depth == 0 {
				if len(nest) > 0 {
					return -1
				}
				return i + 1
			}
		case c == '(' || c == '[' || c == '{':
			nest = append(nest, c)
		case c == ')' || c == ']' || c == '}':
			if len(nest) == 0 || nest[len(nest)-1] != openerOf(c) {
				return -1
			}
			nest = nest[:len(nest)-1]
		case c == '=':
			if i+1 < len(s.src) && s.src[i+1] == '>' {
				i += 2
				continue
			}
			return -1
		case c == '&' || c == '|':
			if i+1 < len(s.src) && s.src[i+1] == c {
				return -1
			}
		case c == ';':
			if len(nest) == 0 {
				return -1
			}
		case c == '"' || c == '\'':
			j := strings.IndexByte(s.src[i+1:limit], c)
			if j < 0 || strings.ContainsAny(s.src[i+1:i+1+j], "\r\n") {
				return -1
			}
			i += j + 2
			continue
		case c == ',' || c == '.' || c == ':' || c == '?' || c == '-' || c == '+':
		case isWordByte(c) || c == '$' || isSpaceByte(c) || c >= utf8.RuneSelf:
		default:
			return -1
		}
		i++
	}
	return -1
}

func openerOf(c byte) byte {
	switch c {
	case ')':
		return '('
	case ']':
		return '['
	}
	return '{'
}

// inTypePosition reports whether the identifier before '<' sits in a type.
func (s *Scanner) inTypePosition() bool {
	if s.top().generic > 0 {
		return true
	}
	p := s.prevPrev
	if p.Is(Operator, ":") {
		return true
	}
	switch {
	case p.IsWord("extends"), p.IsWord("implements"), p.IsWord("as"),
		p.IsWord("satisfies"), p.IsWord("keyof"), p.IsWord("is"):
		return true
	}
	return false
}

// callFollows reports whether a call or tagged template follows offset i.
func (s *Scanner) callFollows(i int) bool {
	for i < len(s.src) && isSpaceByte(s.src[i]) {
		i++
	}
	return i < len(s.src) && (s.src[i] == '(' || s.src[i] == '`')
}

func (s *Scanner) jsxStartsAt(i int) bool {
	if i >= len(s.src) {
		return false
	}
	return s.src[i] == '>' || s.identStartAt(i) > 0
}

// genericArrowAt recognises "<T," and "<T extends U" which open a generic
// arrow function rather than a JSX tag.
func (s *Scanner) genericArrowAt(i int) bool {
	j := i
	for j < len(s.src) {
		n := s.identPartAt(j)
		if n == 0 {
			break
		}
		j += n
	}
	if j == i {
		return false
	}
	for j < len(s.src) && isSpaceByte(s.src[j]) {
		j++
	}
	if j < len(s.src) && s.src[j] == ',' {
		return true
	}
	if !strings.HasPrefix(s.src[j:], "extends") {
		return false
	}
	k := j + len("extends")
	if k >= len(s.src) || !isSpaceByte(s.src[k]) {
		return false
	}
	for k < len(s.src) && isSpaceByte(s.src[k]) {
		k++
	}
	return k < len(s.src) && strings.IndexByte("=/>", s.src[k]) < 0
}

func (s *Scanner) spaceAt(i int) int {
	c := s.src[i]
	if c < utf8.RuneSelf {
		if isSpaceByte(c) {
			return 1
		}
		return 0
	}
	r, w := utf8.DecodeRuneInString(s.src[i:])
	if r == '\uFEFF' || (r != utf8.RuneError && unicode.IsSpace(r)) {
		return w
	}
	return 0
}

func (s *Scanner) identStartAt(i int) int {
	c := s.src[i]
	switch {
	case c == '_' || c == '$' || isASCIILetter(c):
		return 1
	case c == '\\':
		return s.unicodeEscapeAt(i)
	case c < utf8.RuneSelf:
		return 0
	}
	r, w := utf8.DecodeRuneInString(s.src[i:])
	if r != utf8.RuneError && (unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)) {
		return w
	}
	return 0
}

func (s *Scanner) identPartAt(i int) int {
	if n := s.identStartAt(i); n > 0 {
		return n
	}
	c := s.src[i]
	if isDigit(c) {
		return 1
	}
	if c < utf8.RuneSelf {
		return 0
	}
	r, w := utf8.DecodeRuneInString(s.src[i:])
	if r == '\u200C' || r == '\u200D' || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) {
		return w
	}
	return 0
}

// unicodeEscapeAt returns the width of a \uXXXX or \u{X...} escape at i.
func (s *Scanner) unicodeEscapeAt(i int) int {
	rest := s.src[i:]
	if len(rest) < 3 || rest[1] != 'u' {
		return 0
	}
	if rest[2] == '{' {
		end := strings.IndexByte(rest, '}')
		if end < 4 || end > 10 || !isHex(rest[3:end]) {
			return 0
		}
		return end + 1
	}
	if len(rest) >= 6 && isHex(rest[2:6]) {
		return 6
	}
	return 0
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && (c|0x20 < 'a' || c|0x20 > 'f') {
			return false
		}
	}
	return s != ""
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isASCIILetter(c byte) bool {
	c |= 0x20
	return c >= 'a' && c <= 'z'
}

func isWordByte(c byte) bool {
	return c == '_' || isDigit(c) || isASCIILetter(c)
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func runeWidth(s string) int {
	_, w := utf8.DecodeRuneInString(s)
	if w == 0 {
		return 1
	}
	return w
}
