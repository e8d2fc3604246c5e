package session

import (
	"testing"

	"github.com/dshills/termpanel/internal/emulation"
	"github.com/dshills/termpanel/internal/renderer"
)

// scriptEngine is a controllable engine for state and session tests. Each
// Feed invokes onFeed so tests can script cursor movement and dirty rows.
type scriptEngine struct {
	cols, rows int
	cursor     emulation.Cursor
	visible    bool
	dirty      []int
	feeds      []string
	onFeed     func(e *scriptEngine, text string)
	cells      map[[2]int]emulation.Cell
	resized    [][2]int
}

func newScriptEngine(cols, rows int) *scriptEngine {
	return &scriptEngine{
		cols:  cols,
		rows:  rows,
		cells: make(map[[2]int]emulation.Cell),
	}
}

func (e *scriptEngine) Feed(text string) {
	e.feeds = append(e.feeds, text)
	if e.onFeed != nil {
		e.onFeed(e, text)
	}
}

func (e *scriptEngine) Cell(x, y int) emulation.Cell {
	if cell, ok := e.cells[[2]int{x, y}]; ok {
		return cell
	}
	return emulation.EmptyCell()
}

func (e *scriptEngine) Cursor() emulation.Cursor { return e.cursor }
func (e *scriptEngine) CursorVisible() bool      { return e.visible }
func (e *scriptEngine) Size() (int, int)         { return e.cols, e.rows }
func (e *scriptEngine) DirtyRows() []int         { return e.dirty }
func (e *scriptEngine) ClearDirty()              { e.dirty = nil }

func (e *scriptEngine) Resize(cols, rows int) {
	e.cols, e.rows = cols, rows
	e.resized = append(e.resized, [2]int{cols, rows})
}

func TestStateFeedMarksEngineDirtyRows(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)
	drainDirty(st)

	eng.onFeed = func(e *scriptEngine, _ string) {
		e.dirty = []int{2}
	}
	st.Feed("data")

	dirty := st.DirtyRows()
	if len(dirty) != 2 || dirty[0] != 0 || dirty[1] != 2 {
		t.Errorf("expected rows [0 2] dirty (cursor row and content row), got %v", dirty)
	}
	if len(eng.feeds) != 1 || eng.feeds[0] != "data" {
		t.Errorf("expected engine to receive feed, got %v", eng.feeds)
	}
	if eng.dirty != nil {
		t.Error("expected engine dirty signal to be drained")
	}
}

func TestStateCursorMoveDirtiesBothRows(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)

	// First feed establishes the cursor on row 1.
	eng.onFeed = func(e *scriptEngine, _ string) {
		e.cursor = emulation.Cursor{X: 0, Y: 1}
	}
	st.Feed("a")
	drainDirty(st)

	// Moving the cursor to row 3 without content changes dirties rows 1 and 3.
	eng.onFeed = func(e *scriptEngine, _ string) {
		e.cursor = emulation.Cursor{X: 0, Y: 3}
	}
	st.Feed("b")

	dirty := st.DirtyRows()
	if len(dirty) != 2 || dirty[0] != 1 || dirty[1] != 3 {
		t.Errorf("expected rows [1 3] dirty, got %v", dirty)
	}
}

func TestStateCursorStationaryNoExtraDirty(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)
	st.Feed("a")
	drainDirty(st)

	st.Feed("b") // cursor unchanged, no engine dirty rows

	if dirty := st.DirtyRows(); dirty != nil {
		t.Errorf("expected no dirty rows, got %v", dirty)
	}
}

func TestStateLineCaches(t *testing.T) {
	eng := newScriptEngine(3, 2)
	cell := emulation.EmptyCell()
	cell.Rune = 'x'
	eng.cells[[2]int{0, 0}] = cell

	st := NewState(eng)

	row := st.Line(0)
	if got := renderer.RowText(row); got != "x  " {
		t.Errorf("expected %q, got %q", "x  ", got)
	}

	// Mutating the engine without a feed must not change the cached row.
	cell.Rune = 'y'
	eng.cells[[2]int{0, 0}] = cell

	row = st.Line(0)
	if got := renderer.RowText(row); got != "x  " {
		t.Errorf("expected cached %q, got %q", "x  ", got)
	}
}

func TestStateFreeze(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)

	st.Freeze([]string{"final", "content"})

	if !st.Frozen() {
		t.Fatal("expected state to be frozen")
	}
	if got := renderer.RowText(st.Line(0)); got != "final" {
		t.Errorf("expected %q, got %q", "final", got)
	}
	if got := renderer.RowText(st.Line(1)); got != "content" {
		t.Errorf("expected %q, got %q", "content", got)
	}
	if row := st.Line(2); row != nil {
		t.Errorf("expected nil past frozen content, got %v", row)
	}
	if row := st.Line(-1); row != nil {
		t.Errorf("expected nil for negative row, got %v", row)
	}
	if dirty := st.DirtyRows(); dirty != nil {
		t.Errorf("expected no dirty rows when frozen, got %v", dirty)
	}
}

func TestStateFreezeIdempotent(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)

	st.Freeze([]string{"first"})
	st.Freeze([]string{"second"})

	if got := renderer.RowText(st.Line(0)); got != "first" {
		t.Errorf("expected first freeze to win, got %q", got)
	}
}

func TestStateFreezeNilLines(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)

	st.Freeze(nil)

	if !st.Frozen() {
		t.Fatal("expected state to be frozen")
	}
	if row := st.Line(0); row != nil {
		t.Errorf("expected no rows, got %v", row)
	}
}

func TestStateFeedAfterFreezeIgnored(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)
	st.Freeze([]string{})

	st.Feed("late output")

	if len(eng.feeds) != 0 {
		t.Errorf("expected no feeds after freeze, got %v", eng.feeds)
	}
}

func TestStateResize(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)
	eng.onFeed = func(e *scriptEngine, _ string) {
		e.cursor = emulation.Cursor{X: 5, Y: 2}
	}
	st.Feed("a")
	drainDirty(st)

	st.Resize(20, 6)

	if len(eng.resized) != 1 || eng.resized[0] != [2]int{20, 6} {
		t.Errorf("expected engine resize to 20x6, got %v", eng.resized)
	}
	if dirty := st.DirtyRows(); len(dirty) != 6 {
		t.Errorf("expected all 6 rows dirty, got %v", dirty)
	}

	cols, rows := st.Size()
	if cols != 20 || rows != 6 {
		t.Errorf("expected 20x6, got %dx%d", cols, rows)
	}
}

func TestStateResizeShrinkDropsOldRows(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)
	st.Line(3) // populate the cache for a row that will disappear

	st.Resize(10, 2)

	if row := st.Line(3); row != nil {
		t.Errorf("expected empty row past the new bottom, got %v", row)
	}
}

func TestStateResizeAfterFreezeIgnored(t *testing.T) {
	eng := newScriptEngine(10, 4)
	st := NewState(eng)
	st.Freeze([]string{})

	st.Resize(20, 6)

	if len(eng.resized) != 0 {
		t.Errorf("expected no engine resize after freeze, got %v", eng.resized)
	}
}

// drainDirty renders every dirty row so the dirty set empties.
func drainDirty(st *State) {
	for _, y := range st.DirtyRows() {
		st.Line(y)
	}
}
