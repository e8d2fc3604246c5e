package renderer

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termpanel/internal/emulation"
)

// Segment is a run of characters sharing one style, the unit consumed by the
// host's rendering surface. A double-width character contributes one rune to
// Text but occupies two columns.
type Segment struct {
	Text  string
	Style tcell.Style
}

// PlainRow returns a row holding unstyled text. Returns nil for empty text.
func PlainRow(text string) []Segment {
	if text == "" {
		return nil
	}
	return []Segment{{Text: text, Style: tcell.StyleDefault}}
}

// BuildRow renders row y of the engine's grid as a segment list.
//
// The cell under the cursor (when visible and on this row) gets its
// reverse-video attribute flipped. When a glyph occupies two columns, the
// following continuation column is skipped, never emitted as its own cell.
// Adjacent cells with equal styles are merged into a single segment.
func BuildRow(eng emulation.Engine, y int, cursor emulation.Cursor, cursorVisible bool) []Segment {
	cols, rows := eng.Size()
	if y < 0 || y >= rows {
		return nil
	}

	var (
		segments []Segment
		run      strings.Builder
		runStyle tcell.Style
		started  bool
	)

	flush := func() {
		if run.Len() > 0 {
			segments = append(segments, Segment{Text: run.String(), Style: runStyle})
			run.Reset()
		}
	}

	skip := false
	for x := 0; x < cols; x++ {
		if skip {
			skip = false
			continue
		}

		cell := eng.Cell(x, y)
		if cell.Width == 2 {
			skip = true
		}

		atCursor := cursorVisible && x == cursor.X && y == cursor.Y
		style := MapStyle(cell, atCursor)

		if !started || style != runStyle {
			flush()
			runStyle = style
			started = true
		}
		run.WriteRune(cell.Rune)
	}
	flush()

	return segments
}

// RowText returns the plain text of a segment row.
func RowText(row []Segment) string {
	var sb strings.Builder
	for _, seg := range row {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}
