// Package emulation defines the boundary to the terminal decode engine: the
// component that interprets a byte stream of escape sequences and maintains a
// cell grid plus cursor state. The engine is consumed as an opaque capability;
// this package does not parse escape sequences itself.
package emulation

// Cursor is a cursor position on the grid (0-indexed).
type Cursor struct {
	X int
	Y int
}

// Engine is the decode-engine contract. Implementations own a cols×rows cell
// grid, a cursor, and a settable/clearable dirty-row signal. An Engine is not
// safe for concurrent use; callers serialize access.
type Engine interface {
	// Feed forwards decoded terminal output to the engine, updating the grid,
	// cursor, and dirty-row signal.
	Feed(text string)

	// Cell returns the cell at the given position.
	// Returns an empty cell if out of bounds.
	Cell(x, y int) Cell

	// Cursor returns the current cursor position.
	Cursor() Cursor

	// CursorVisible returns whether the cursor should be shown.
	CursorVisible() bool

	// Size returns the grid dimensions.
	Size() (cols, rows int)

	// DirtyRows returns the rows changed since the last ClearDirty,
	// in ascending order.
	DirtyRows() []int

	// ClearDirty resets the dirty-row signal.
	ClearDirty()

	// Resize replaces the grid with one of the given dimensions.
	// All rows become dirty.
	Resize(cols, rows int)
}
