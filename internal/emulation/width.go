package emulation

import "github.com/mattn/go-runewidth"

// RuneWidth returns the display width of a rune: 0 for control and combining
// characters, 1 for normal characters, 2 for wide (CJK) characters. Width is a
// static property of the character; runewidth memoizes its lookup tables
// process-wide, so no further caching is layered on top.
func RuneWidth(r rune) int {
	if r == 0 {
		return 0
	}
	return runewidth.RuneWidth(r)
}
