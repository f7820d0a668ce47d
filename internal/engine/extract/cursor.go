package extract

import "jsdeps/internal/engine/scanner"

// cursor reads significant tokens with a small lookahead window.
type cursor struct {
	sc   *scanner.Scanner
	buf  []scanner.Token
	prev scanner.Token
}

func (c *cursor) peek(n int) scanner.Token {
	for len(c.buf) <= n {
		tok := c.sc.Next()
		if tok.Kind != scanner.EOF && !tok.Significant() {
			continue
		}
		c.buf = append(c.buf, tok)
	}
	return c.buf[n]
}

func (c *cursor) next() scanner.Token {
	tok := c.peek(0)
	if tok.Kind != scanner.EOF {
		c.buf = c.buf[1:]
		c.prev = tok
	}
	return tok
}

func (c *cursor) at(kind scanner.Kind, text string) bool {
	return c.peek(0).Is(kind, text)
}

func (c *cursor) atPunct(text string) bool {
	return c.peek(0).Is(scanner.Punctuator, text)
}

func (c *cursor) atWord(word string) bool {
	return c.peek(0).IsWord(word)
}
