package extract

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"jsdeps/internal/engine/scanner"
)

// literal returns the value of a string literal or of a template literal
// without interpolation.
func literal(tok scanner.Token) (string, bool) {
	switch tok.Kind {
	case scanner.StringLiteral:
		return unquote(tok.Text), true
	case scanner.TemplateLiteralSpan:
		t := tok.Text
		if len(t) >= 2 && t[0] == '`' && t[len(t)-1] == '`' {
			return unquote(t), true
		}
	}
	return "", false
}

// unquote strips the delimiters of a JavaScript string and decodes its
// escape sequences. Malformed escapes are kept literally.
func unquote(text string) string {
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if r, ok := hexRune(body, i+1, i+3); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteByte(e)
			}
		case 'u':
			if i+1 < len(body) && body[i+1] == '{' {
				if end := strings.IndexByte(body[i:], '}'); end > 0 {
					if r, ok := hexRune(body, i+2, i+end); ok {
						b.WriteRune(r)
						i += end
						continue
					}
				}
			} else if r, ok := hexRune(body, i+1, i+5); ok {
				b.WriteRune(r)
				i += 4
				continue
			}
			b.WriteByte(e)
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexRune(s string, from, to int) (rune, bool) {
	if from >= to || to > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[from:to], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}
