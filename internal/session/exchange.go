package session

import (
	"fmt"
	"os"
	"sync"
)

// Exchange is the transient file used to pass initial and final content
// between the host and the child program. The file is visible to the child by
// path; the host may read or write it only while it owns it — ownership is an
// exclusive handoff, never shared access.
type Exchange struct {
	mu    sync.Mutex
	path  string
	owned bool // true while the host owns the file
}

// newExchange creates a uniquely-named transient file carrying the given
// filename suffix (the child program's syntax-mode hint). The host owns the
// file until it is handed to the child.
func newExchange(suffix string) (*Exchange, error) {
	f, err := os.CreateTemp("", "termpanel-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create exchange file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("create exchange file: %w", err)
	}

	return &Exchange{path: path, owned: true}, nil
}

// Path returns the file's path, as passed to the child program.
func (e *Exchange) Path() string {
	return e.path
}

// Text returns the full content of the file.
// Fails with ErrFileBusy while the child owns the file.
func (e *Exchange) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.owned {
		return "", ErrFileBusy
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return "", fmt.Errorf("read exchange file: %w", err)
	}
	return string(data), nil
}

// SetText overwrites the file's content, truncating to the new length.
// Fails with ErrFileBusy while the child owns the file.
func (e *Exchange) SetText(value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.owned {
		return ErrFileBusy
	}
	if err := os.WriteFile(e.path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write exchange file: %w", err)
	}
	return nil
}

// handOff transfers ownership to the child. Called just before spawn.
func (e *Exchange) handOff() {
	e.mu.Lock()
	e.owned = false
	e.mu.Unlock()
}

// reclaim returns ownership to the host. Called once the child has exited.
func (e *Exchange) reclaim() {
	e.mu.Lock()
	e.owned = true
	e.mu.Unlock()
}

// remove deletes the file. Called when the last reader is done with it.
func (e *Exchange) remove() error {
	return os.Remove(e.path)
}
