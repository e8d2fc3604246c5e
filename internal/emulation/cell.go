package emulation

// Color represents a terminal color as reported by the engine.
type Color struct {
	R, G, B uint8
	Index   int  // -1 for RGB, 0-255 for indexed
	Default bool // Use default fg/bg
}

// DefaultForeground is the default foreground color.
var DefaultForeground = Color{Default: true}

// DefaultBackground is the default background color.
var DefaultBackground = Color{Default: true}

// ColorFromIndex returns a palette color (0-255).
func ColorFromIndex(index int) Color {
	if index < 0 || index > 255 {
		return Color{Default: true}
	}
	return Color{Index: index}
}

// ColorFromRGB creates a true color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Index: -1}
}

// Equals returns true if two colors are equal.
func (c Color) Equals(other Color) bool {
	if c.Default != other.Default {
		return false
	}
	if c.Default {
		return true
	}
	if c.Index >= 0 || other.Index >= 0 {
		return c.Index == other.Index
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// CellAttributes represents text attributes for a cell.
type CellAttributes uint16

const (
	AttrNone      CellAttributes = 0
	AttrBold      CellAttributes = 1 << 0
	AttrItalic    CellAttributes = 1 << 1
	AttrUnderline CellAttributes = 1 << 2
	AttrBlink     CellAttributes = 1 << 3
	AttrReverse   CellAttributes = 1 << 4
	AttrStrike    CellAttributes = 1 << 5
)

// Has returns true if the attribute is set.
func (a CellAttributes) Has(attr CellAttributes) bool {
	return a&attr != 0
}

// Cell represents a single character cell in the engine's grid.
type Cell struct {
	Rune       rune
	Width      int // 1 for normal, 2 for wide chars, 0 for continuation cells
	Foreground Color
	Background Color
	Attributes CellAttributes
}

// EmptyCell returns a cell with default values.
func EmptyCell() Cell {
	return Cell{
		Rune:       ' ',
		Width:      1,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
		Attributes: AttrNone,
	}
}

// IsContinuation returns true if this is the zero-width trailing cell of a
// double-width character.
func (c Cell) IsContinuation() bool {
	return c.Width == 0
}
