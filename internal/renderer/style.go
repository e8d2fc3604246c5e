// Package renderer translates decode-engine cells into the host's styling
// primitives: tcell styles and runs of equally-styled text (segments).
package renderer

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termpanel/internal/emulation"
)

// MapStyle converts an engine cell's attributes into a tcell style.
// When flipReverse is true the reverse-video attribute is inverted, which is
// how the live cursor cell is highlighted.
func MapStyle(cell emulation.Cell, flipReverse bool) tcell.Style {
	style := tcell.StyleDefault

	if !cell.Foreground.Default {
		style = style.Foreground(convertColor(cell.Foreground))
	}
	if !cell.Background.Default {
		style = style.Background(convertColor(cell.Background))
	}

	attrs := cell.Attributes
	if attrs.Has(emulation.AttrBold) {
		style = style.Bold(true)
	}
	if attrs.Has(emulation.AttrItalic) {
		style = style.Italic(true)
	}
	if attrs.Has(emulation.AttrUnderline) {
		style = style.Underline(true)
	}
	if attrs.Has(emulation.AttrBlink) {
		style = style.Blink(true)
	}
	if attrs.Has(emulation.AttrStrike) {
		style = style.StrikeThrough(true)
	}

	reverse := attrs.Has(emulation.AttrReverse)
	if flipReverse {
		reverse = !reverse
	}
	if reverse {
		style = style.Reverse(true)
	}

	return style
}

// convertColor converts an engine color to a tcell color.
func convertColor(c emulation.Color) tcell.Color {
	if c.Default {
		return tcell.ColorDefault
	}
	if c.Index >= 0 {
		return tcell.PaletteColor(c.Index)
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
