package session

import (
	"sync"

	"github.com/dshills/termpanel/internal/emulation"
	"github.com/dshills/termpanel/internal/renderer"
	"github.com/dshills/termpanel/internal/renderer/linecache"
)

// State owns the decode engine, the line cache, and cursor-position
// bookkeeping for one session. Once frozen it serves a static line list and
// the engine is no longer fed.
type State struct {
	mu     sync.Mutex
	eng    emulation.Engine
	cache  *linecache.Cache
	cursor *emulation.Cursor // last-rendered cursor position, nil before first feed
	frozen []string          // non-nil once the session has terminated
}

// NewState creates terminal state around the given engine.
func NewState(eng emulation.Engine) *State {
	_, rows := eng.Size()
	return &State{
		eng:   eng,
		cache: linecache.New(rows),
	}
}

// Feed forwards decoded output to the engine and accumulates dirty rows.
//
// Cursor movement dirties both the vacated and the newly occupied row even
// when their cell content is unchanged: only one row may show the caret.
// The engine's own dirty signal is drained afterwards so it is never
// double-counted across feeds. Feeding a frozen state is a no-op.
func (s *State) Feed(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen != nil {
		return
	}

	s.eng.Feed(text)

	cur := s.eng.Cursor()
	if s.cursor == nil || cur != *s.cursor {
		s.cache.MarkRow(cur.Y)
		if s.cursor != nil {
			s.cache.MarkRow(s.cursor.Y)
		}
		s.cursor = &cur
	}

	s.cache.MarkRows(s.eng.DirtyRows())
	s.eng.ClearDirty()
}

// Line returns the styled row at y.
//
// After freeze it returns a plain slice of the frozen content, or nil when y
// is out of range. Live rows are recomputed lazily: a dirty row is rebuilt
// from the engine's grid (with the reverse-video flip at the cursor cell) and
// cached before being returned.
func (s *State) Line(y int) []renderer.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen != nil {
		if y < 0 || y >= len(s.frozen) {
			return nil
		}
		return renderer.PlainRow(s.frozen[y])
	}

	if s.cache.Dirty(y) {
		row := renderer.BuildRow(s.eng, y, s.eng.Cursor(), s.eng.CursorVisible())
		s.cache.Put(y, row)
		return row
	}

	row, _ := s.cache.Get(y)
	return row
}

// DirtyRows returns a snapshot of the rows awaiting redraw, ascending.
func (s *State) DirtyRows() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen != nil {
		return nil
	}
	return s.cache.DirtyRows()
}

// Freeze replaces live rendering with a static line list. Subsequent Feed
// calls are no-ops; dirty tracking stops mattering.
func (s *State) Freeze(lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen != nil {
		return
	}
	if lines == nil {
		lines = []string{}
	}
	s.frozen = lines
}

// Frozen returns true once Freeze has been called.
func (s *State) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen != nil
}

// Resize replaces the grid. All prior dirty and cache state is discarded and
// every row of the new geometry becomes dirty. The cursor bookkeeping resets;
// the next feed re-derives it.
func (s *State) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen != nil {
		return
	}

	s.eng.Resize(cols, rows)
	s.eng.ClearDirty()
	s.cache.Reset(rows)
	s.cursor = nil
}

// Size returns the grid dimensions.
func (s *State) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Size()
}
