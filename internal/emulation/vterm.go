package emulation

import (
	"sort"

	"github.com/hinshun/vt10x"
)

// vt10x glyph mode bits.
const (
	modeReverse   int16 = 1 << 0
	modeUnderline int16 = 1 << 1
	modeBold      int16 = 1 << 2
	modeItalic    int16 = 1 << 4
	modeBlink     int16 = 1 << 5
)

// vt10x colors at or above this value are the terminal defaults.
const vtDefaultColor vt10x.Color = 1 << 24

// VTerm adapts a vt10x virtual terminal to the Engine interface.
//
// vt10x does not expose a change signal, so VTerm derives the dirty-row set by
// hashing each row's cells after every feed and comparing against the previous
// hash. Dirty rows accumulate until ClearDirty.
type VTerm struct {
	vt    vt10x.Terminal
	cols  int
	rows  int
	hash  []uint64
	dirty map[int]struct{}
}

// NewVTerm creates a vt10x-backed engine with the given grid size.
func NewVTerm(cols, rows int) *VTerm {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}

	v := &VTerm{
		vt:    vt10x.New(vt10x.WithSize(cols, rows)),
		cols:  cols,
		rows:  rows,
		hash:  make([]uint64, rows),
		dirty: make(map[int]struct{}),
	}

	v.rescan()
	v.markAll()
	return v
}

// Feed forwards decoded output to the virtual terminal and accumulates the
// rows whose contents changed.
func (v *VTerm) Feed(text string) {
	if text == "" {
		return
	}
	_, _ = v.vt.Write([]byte(text))

	for y := 0; y < v.rows; y++ {
		h := v.rowHash(y)
		if h != v.hash[y] {
			v.hash[y] = h
			v.dirty[y] = struct{}{}
		}
	}
}

// Cell returns the cell at the given position.
func (v *VTerm) Cell(x, y int) Cell {
	if x < 0 || x >= v.cols || y < 0 || y >= v.rows {
		return EmptyCell()
	}

	g := v.vt.Cell(x, y)
	r := g.Char
	if r == 0 {
		r = ' '
	}

	width := RuneWidth(r)
	if width == 0 {
		width = 1
	}

	return Cell{
		Rune:       r,
		Width:      width,
		Foreground: convertColor(g.FG),
		Background: convertColor(g.BG),
		Attributes: convertMode(g.Mode),
	}
}

// Cursor returns the current cursor position.
func (v *VTerm) Cursor() Cursor {
	c := v.vt.Cursor()
	return Cursor{X: c.X, Y: c.Y}
}

// CursorVisible returns whether the cursor should be shown.
func (v *VTerm) CursorVisible() bool {
	return v.vt.CursorVisible()
}

// Size returns the grid dimensions.
func (v *VTerm) Size() (cols, rows int) {
	return v.cols, v.rows
}

// DirtyRows returns the accumulated dirty rows in ascending order.
func (v *VTerm) DirtyRows() []int {
	if len(v.dirty) == 0 {
		return nil
	}
	rows := make([]int, 0, len(v.dirty))
	for y := range v.dirty {
		rows = append(rows, y)
	}
	sort.Ints(rows)
	return rows
}

// ClearDirty resets the dirty-row signal.
func (v *VTerm) ClearDirty() {
	clear(v.dirty)
}

// Resize replaces the grid and marks every row dirty.
func (v *VTerm) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}

	v.vt.Resize(cols, rows)
	v.cols = cols
	v.rows = rows
	v.hash = make([]uint64, rows)
	v.rescan()
	v.markAll()
}

// rowHash computes an FNV-1a hash of a row's visible content.
func (v *VTerm) rowHash(y int) uint64 {
	var h uint64 = 14695981039346656037
	mix := func(u uint64) {
		h ^= u
		h *= 1099511628211
	}
	for x := 0; x < v.cols; x++ {
		g := v.vt.Cell(x, y)
		mix(uint64(g.Char))
		mix(uint64(g.FG))
		mix(uint64(g.BG))
		mix(uint64(uint16(g.Mode)))
	}
	return h
}

func (v *VTerm) rescan() {
	for y := 0; y < v.rows; y++ {
		v.hash[y] = v.rowHash(y)
	}
}

func (v *VTerm) markAll() {
	for y := 0; y < v.rows; y++ {
		v.dirty[y] = struct{}{}
	}
}

// convertColor converts a vt10x color to an engine Color.
func convertColor(c vt10x.Color) Color {
	if c >= vtDefaultColor {
		return Color{Default: true}
	}
	if c < 256 {
		return ColorFromIndex(int(c))
	}
	return ColorFromRGB(uint8(c>>16), uint8(c>>8), uint8(c))
}

// convertMode converts vt10x glyph mode bits to cell attributes.
func convertMode(mode int16) CellAttributes {
	var attrs CellAttributes
	if mode&modeReverse != 0 {
		attrs |= AttrReverse
	}
	if mode&modeUnderline != 0 {
		attrs |= AttrUnderline
	}
	if mode&modeBold != 0 {
		attrs |= AttrBold
	}
	if mode&modeItalic != 0 {
		attrs |= AttrItalic
	}
	if mode&modeBlink != 0 {
		attrs |= AttrBlink
	}
	return attrs
}
