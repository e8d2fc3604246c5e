package session

import (
	"strings"
)

// readChunkSize is the fixed read size of the I/O loop.
const readChunkSize = 4096

// readLoop is the session's I/O loop: one goroutine per session, running from
// Start until the child's end-of-stream. It reads pty output in fixed chunks,
// decodes it tolerant of split multi-byte sequences, feeds the terminal
// state, and requests a redraw of exactly the rows that are dirty at that
// point. End-of-stream (zero-length read or read error) is the normal
// terminal state, not a crash: it triggers the freeze sequence.
func (s *Session) readLoop() {
	defer close(s.done)

	var dec utf8Decoder
	buf := make([]byte, readChunkSize)

	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			if text := dec.Decode(buf[:n]); text != "" {
				s.state.Feed(text)
				if s.surface != nil {
					if rows := s.state.DirtyRows(); len(rows) > 0 {
						s.surface.RedrawRows(rows)
					}
				}
			}
		}
		if err != nil {
			s.logger.Debug("read loop ending: %v", err)
			break
		}
	}

	s.finish()
}

// finish runs the freeze sequence: reclaim the exchange file, read the final
// content, freeze the terminal state into a static line list, request a
// full-surface redraw, and reap the child.
func (s *Session) finish() {
	s.mu.Lock()
	exch := s.exchange
	cmd := s.cmd
	p := s.pty
	s.mu.Unlock()

	var content string
	if exch != nil {
		exch.reclaim()
		text, err := exch.Text()
		if err != nil {
			s.logger.Warn("final content unavailable: %v", err)
		} else {
			content = text
		}
	}

	s.state.Freeze(splitLines(content))

	if p != nil {
		_ = p.Close()
	}
	if cmd != nil && cmd.Process != nil {
		state, _ := cmd.Process.Wait()
		if state != nil {
			s.mu.Lock()
			s.exitCode = state.ExitCode()
			s.exitSet = true
			s.mu.Unlock()
			s.logger.Info("child exited: %s", state.String())
		}
	}

	s.advance(PhaseTerminated)

	if s.surface != nil {
		s.surface.RedrawAll()
	}
}

// splitLines splits final content into display lines, treating empty content
// as no lines at all.
func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.Split(content, "\n")
	// A trailing newline does not produce a trailing empty row.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
