package session

import "fmt"

// keySequences maps named control keys to their literal escape-sequence
// encodings, as expected by full-screen programs running on the pty.
var keySequences = map[string]string{
	"left":       "\x1b[D",
	"right":      "\x1b[C",
	"up":         "\x1b[A",
	"down":       "\x1b[B",
	"escape":     "\x1b",
	"home":       "\x1b[H",
	"end":        "\x1b[4~",
	"insert":     "\x1b[2~",
	"delete":     "\x1b[3~",
	"pageup":     "\x1b[5~",
	"pagedown":   "\x1b[6~",
	"ctrl+left":  "\x1b[1;5D",
	"ctrl+right": "\x1b[1;5C",
	"ctrl+up":    "\x1b[1;5A",
	"ctrl+down":  "\x1b[1;5B",
}

// MouseKind identifies the kind of a host mouse event.
type MouseKind int

const (
	MouseMove MouseKind = iota
	MouseDown
	MouseUp
)

// ForwardKey translates a host key event into terminal bytes and writes them
// to the pty. name is the host's key name (looked up in the fixed table, then
// in the session's configured overrides); ch is the literal character for
// printable keys, or zero when there is none.
//
// Returns true if the event was consumed. After the session has terminated
// every event is consumed without a write; unrecognized keys with no literal
// character are dropped.
func (s *Session) ForwardKey(name string, ch rune) bool {
	if s.state.Frozen() {
		return true
	}

	seq, ok := s.keymap[name]
	if !ok {
		seq, ok = keySequences[name]
	}
	if !ok {
		if ch == 0 {
			return false
		}
		seq = string(ch)
	}

	s.writeInput([]byte(seq))
	return true
}

// ForwardMouse translates a host mouse event into an SGR mouse-reporting
// sequence carrying 1-based coordinates and writes it to the pty. Button
// release is distinguished by the sequence's final character.
//
// Returns true if the event was consumed; after termination events are
// consumed without a write.
func (s *Session) ForwardMouse(kind MouseKind, x, y int) bool {
	if s.state.Frozen() {
		return true
	}

	var seq string
	switch kind {
	case MouseMove:
		seq = sgrMouse(35, x, y, 'M')
	case MouseDown:
		seq = sgrMouse(0, x, y, 'M')
	case MouseUp:
		seq = sgrMouse(0, x, y, 'm')
	default:
		return false
	}

	s.writeInput([]byte(seq))
	return true
}

// sgrMouse encodes one SGR mouse report.
func sgrMouse(button, x, y int, final byte) string {
	return fmt.Sprintf("\x1b[<%d;%d;%d%c", button, x+1, y+1, final)
}

// writeInput writes bytes to the pty, suppressing failures: a write error
// here means the descriptor is closing and the session is ending anyway.
func (s *Session) writeInput(data []byte) {
	s.mu.Lock()
	p := s.pty
	s.mu.Unlock()

	if p == nil || s.closed.Load() {
		return
	}
	if _, err := p.Write(data); err != nil {
		s.logger.Debug("input write suppressed: %v", err)
	}
}
