// Package surface adapts a tcell screen to the session's host-surface
// boundary: redraw requests become posted events, tcell input events are
// translated into the session's named-key and mouse vocabulary, and styled
// segment rows are drawn onto the screen.
package surface

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termpanel/internal/emulation"
	"github.com/dshills/termpanel/internal/renderer"
	"github.com/dshills/termpanel/internal/session"
)

// RedrawEvent is posted into the tcell event queue when the session requests
// a redraw. A nil Rows slice means the whole surface.
type RedrawEvent struct {
	when time.Time
	Rows []int
}

// When returns the event timestamp.
func (e *RedrawEvent) When() time.Time {
	return e.when
}

// Screen implements session.Surface on top of a tcell screen.
type Screen struct {
	screen      tcell.Screen
	prevButtons tcell.ButtonMask
}

// New wraps an initialized tcell screen.
func New(screen tcell.Screen) *Screen {
	return &Screen{screen: screen}
}

// RedrawRows posts a row-limited redraw request.
func (s *Screen) RedrawRows(rows []int) {
	_ = s.screen.PostEvent(&RedrawEvent{when: time.Now(), Rows: rows})
}

// RedrawAll posts a full-surface redraw request.
func (s *Screen) RedrawAll() {
	_ = s.screen.PostEvent(&RedrawEvent{when: time.Now()})
}

// DrawRow paints one segment row at the given row, clearing the remainder of
// the line. Wide runes advance two columns.
func (s *Screen) DrawRow(y int, row []renderer.Segment) {
	width, _ := s.screen.Size()
	x := 0
	for _, seg := range row {
		for _, r := range seg.Text {
			if x >= width {
				break
			}
			s.screen.SetContent(x, y, r, nil, seg.Style)
			w := emulation.RuneWidth(r)
			if w < 1 {
				w = 1
			}
			x += w
		}
	}
	for ; x < width; x++ {
		s.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}

// keyNames maps tcell special keys to the session's key names.
var keyNames = map[tcell.Key]string{
	tcell.KeyLeft:   "left",
	tcell.KeyRight:  "right",
	tcell.KeyUp:     "up",
	tcell.KeyDown:   "down",
	tcell.KeyEscape: "escape",
	tcell.KeyHome:   "home",
	tcell.KeyEnd:    "end",
	tcell.KeyInsert: "insert",
	tcell.KeyDelete: "delete",
	tcell.KeyPgUp:   "pageup",
	tcell.KeyPgDn:   "pagedown",
}

// KeyEvent translates a tcell key event into the session's (name, literal)
// pair. Control-arrow combinations get "ctrl+" prefixed names. Keys with
// neither a name nor a literal character come back as ("", 0).
func (s *Screen) KeyEvent(ev *tcell.EventKey) (string, rune) {
	if name, ok := keyNames[ev.Key()]; ok {
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			switch name {
			case "left", "right", "up", "down":
				return "ctrl+" + name, 0
			}
		}
		return name, 0
	}

	switch ev.Key() {
	case tcell.KeyRune:
		return "", ev.Rune()
	case tcell.KeyEnter:
		return "enter", '\r'
	case tcell.KeyTab:
		return "tab", '\t'
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace", 0x7f
	}

	// Control characters (ctrl+a .. ctrl+z and friends) have literal bytes.
	if ev.Key() < tcell.Key(0x20) {
		return "", rune(ev.Key())
	}
	return "", 0
}

// MouseEvent translates a tcell mouse event into the session's mouse kind by
// tracking button transitions: press, release, or plain movement.
func (s *Screen) MouseEvent(ev *tcell.EventMouse) (session.MouseKind, int, int) {
	x, y := ev.Position()
	buttons := ev.Buttons() & tcell.ButtonMask(0xff)

	kind := session.MouseMove
	switch {
	case buttons != 0 && s.prevButtons == 0:
		kind = session.MouseDown
	case buttons == 0 && s.prevButtons != 0:
		kind = session.MouseUp
	}
	s.prevButtons = buttons

	return kind, x, y
}
