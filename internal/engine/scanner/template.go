package scanner

// scanTemplateSpan scans literal template text up to the closing backtick or
// the next "${". The "${" itself comes back as its own token and pushes a
// Normal frame whose unmatched '}' returns here.
func (s *Scanner) scanTemplateSpan() Token {
	if f := s.top(); f.fresh {
		f.fresh = false
		s.pos++
	}
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos = min(s.pos+2, len(s.src))
		case '`':
			s.pos++
			s.pop()
			s.spanClosed = true
			return s.emit(TemplateLiteralSpan)
		case '$':
			if s.peekByte(1) != '{' {
				s.pos++
				continue
			}
			if s.pos > s.tokStart {
				s.spanClosed = false
				return s.emit(TemplateLiteralSpan)
			}
			if !s.push(frame{mode: ModeNormal, closer: closeTemplate}) {
				return s.overflow()
			}
			s.pos += 2
			return s.emit(TemplateExprStart)
		default:
			s.pos++
		}
	}
	s.issue("unterminated template literal")
	s.pop()
	s.spanClosed = true
	return s.emit(TemplateLiteralSpan)
}
