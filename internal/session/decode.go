package session

import (
	"strings"
	"unicode/utf8"
)

// utf8Decoder decodes a byte stream into text, tolerating multi-byte
// sequences split across reads. Undecodable trailing bytes are buffered and
// prefixed to the next chunk before decoding is retried; a byte that still
// cannot start a valid sequence after more input has arrived is silently
// discarded rather than stalling or corrupting the stream.
type utf8Decoder struct {
	pending []byte
}

// Decode appends p to any buffered tail and returns the decoded prefix.
func (d *utf8Decoder) Decode(p []byte) string {
	b := p
	if len(d.pending) > 0 {
		b = append(d.pending, p...)
		d.pending = nil
	}

	var sb strings.Builder
	sb.Grow(len(b))

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			if incompletePrefix(b) {
				// Possibly the head of a rune split across reads; hold it.
				d.pending = append(d.pending, b...)
				break
			}
			// Second failure for these bytes: drop one and resynchronize.
			b = b[1:]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}

	return sb.String()
}

// Pending returns the number of buffered undecoded bytes.
func (d *utf8Decoder) Pending() int {
	return len(d.pending)
}

// incompletePrefix returns true if b could be the beginning of a valid UTF-8
// sequence whose remaining bytes have not arrived yet.
func incompletePrefix(b []byte) bool {
	if len(b) >= utf8.UTFMax {
		return false
	}

	lead := b[0]
	var want int
	switch {
	case lead&0xE0 == 0xC0:
		want = 2
	case lead&0xF0 == 0xE0:
		want = 3
	case lead&0xF8 == 0xF0:
		want = 4
	default:
		return false
	}

	if len(b) >= want {
		return false
	}
	for _, c := range b[1:] {
		if c&0xC0 != 0x80 {
			return false
		}
	}
	return true
}
