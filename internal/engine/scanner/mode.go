package scanner

type Mode uint8

const (
	ModeNormal Mode = iota
	ModeTemplate
	ModeJSXText
	ModeJSXTag
)

func (m Mode) String() string {
	switch m {
	case ModeTemplate:
		return "Template"
	case ModeJSXText:
		return "JsxText"
	case ModeJSXTag:
		return "JsxTag"
	default:
		return "Normal"
	}
}

// closer records what pops a Normal frame when its own braces are balanced.
type closer uint8

const (
	closeNone closer = iota
	closeTemplate
	closeJSX
)

type frame struct {
	mode Mode

	// Normal frames.
	braces  int
	generic int
	closer  closer

	// Template frames: the opening backtick has not been consumed yet.
	fresh bool

	// JSXTag frames.
	named       bool
	closing     bool
	selfClosing bool
}

func (s *Scanner) top() *frame {
	return &s.stack[len(s.stack)-1]
}

// push enters a new mode. It fails once the nesting cap is reached.
func (s *Scanner) push(f frame) bool {
	if len(s.stack) >= s.maxNesting {
		return false
	}
	s.stack = append(s.stack, f)
	return true
}

func (s *Scanner) pop() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Mode returns the active lexical mode.
func (s *Scanner) Mode() Mode {
	return s.top().mode
}

// Depth returns the number of frames on the mode stack, 1 at top level.
func (s *Scanner) Depth() int {
	return len(s.stack)
}
