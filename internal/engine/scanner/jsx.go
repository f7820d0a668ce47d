package scanner

import "strings"

func (s *Scanner) scanJSXText() Token {
	switch s.src[s.pos] {
	case '<':
		if !s.push(frame{mode: ModeJSXTag}) {
			return s.overflow()
		}
		s.pos++
		return s.emit(Punctuator)
	case '{':
		if !s.push(frame{mode: ModeNormal, closer: closeJSX}) {
			return s.overflow()
		}
		s.pos++
		return s.emit(Punctuator)
	}
	for s.pos < len(s.src) && s.src[s.pos] != '<' && s.src[s.pos] != '{' {
		s.pos++
	}
	return s.emit(JSXText)
}

func (s *Scanner) scanJSXTag() Token {
	f := s.top()
	c := s.src[s.pos]
	if s.spaceAt(s.pos) > 0 {
		return s.scanWhitespace()
	}
	switch c {
	case '/':
		if tok, ok := s.scanComment(); ok {
			return tok
		}
		if f.named {
			f.selfClosing = true
		} else {
			f.closing = true
		}
		s.pos++
		return s.emit(Operator)
	case '>':
		s.pos++
		tok := s.emit(Punctuator)
		s.closeTag()
		return tok
	case '{':
		if !s.push(frame{mode: ModeNormal, closer: closeJSX}) {
			return s.overflow()
		}
		s.pos++
		return s.emit(Punctuator)
	case '"', '\'':
		s.pos++
		if i := strings.IndexByte(s.src[s.pos:], c); i >= 0 {
			s.pos += i + 1
			return s.emit(StringLiteral)
		}
		s.pos = len(s.src)
		return s.recoverInvalid("unterminated JSX attribute string")
	case '=':
		s.pos++
		return s.emit(Operator)
	}
	if s.identStartAt(s.pos) > 0 {
		for s.pos < len(s.src) {
			if n := s.identPartAt(s.pos); n > 0 {
				s.pos += n
				continue
			}
			if b := s.src[s.pos]; b == '-' || b == ':' || b == '.' {
				s.pos++
				continue
			}
			break
		}
		f.named = true
		return s.emit(Identifier)
	}
	s.pos += runeWidth(s.src[s.pos:])
	return s.recoverInvalid("unexpected character in JSX tag")
}

// closeTag runs after a tag's '>': opening tags move into their children,
// closing and self-closing tags end an element.
func (s *Scanner) closeTag() {
	tag := *s.top()
	s.pop()
	switch {
	case tag.closing:
		if s.top().mode == ModeJSXText {
			s.pop()
		}
		s.endElement()
	case tag.selfClosing:
		s.endElement()
	default:
		// Replaces the popped tag frame, so the nesting cap cannot trip.
		s.push(frame{mode: ModeJSXText})
	}
}

func (s *Scanner) endElement() {
	if s.top().mode == ModeNormal {
		s.forceEnded = true
	}
}
