package session

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/creack/pty"
)

// PTY represents the master side of a pseudo-terminal attached to a child
// process.
type PTY interface {
	// Read reads child output from the master descriptor.
	Read(p []byte) (n int, err error)

	// Write sends input bytes to the child.
	Write(p []byte) (n int, err error)

	// Resize issues the window-size-change control to the descriptor.
	Resize(cols, rows int) error

	// Close closes the master descriptor.
	Close() error
}

// spawnPTY starts command attached to a new pseudo-terminal with the given
// geometry. The child sees TERM, LC_ALL and the initial COLUMNS/LINES in its
// environment on top of extraEnv; geometry is re-asserted through the winsize
// control after every resize. The returned command has been started; the
// caller reaps it.
func spawnPTY(command string, args, extraEnv []string, term, locale string, cols, rows int) (PTY, *exec.Cmd, error) {
	if _, err := exec.LookPath(command); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrSpawn, command, err)
	}

	cmd := exec.Command(command, args...)
	cmd.Env = append([]string{
		"TERM=" + term,
		"LC_ALL=" + locale,
		"COLUMNS=" + strconv.Itoa(cols),
		"LINES=" + strconv.Itoa(rows),
	}, extraEnv...)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrSpawn, command, err)
	}

	return &masterPTY{file: master}, cmd, nil
}

// masterPTY wraps the creack/pty master file.
type masterPTY struct {
	file *os.File
}

func (p *masterPTY) Read(buf []byte) (int, error) {
	return p.file.Read(buf)
}

func (p *masterPTY) Write(data []byte) (int, error) {
	return p.file.Write(data)
}

func (p *masterPTY) Resize(cols, rows int) error {
	if cols < 1 || rows < 1 {
		return ErrInvalidSize
	}
	return pty.Setsize(p.file, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

func (p *masterPTY) Close() error {
	return p.file.Close()
}
