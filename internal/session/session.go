package session

import (
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/termpanel/internal/emulation"
	"github.com/dshills/termpanel/internal/logging"
	"github.com/dshills/termpanel/internal/renderer"
)

// Phase is a session lifecycle phase. Transitions are strictly forward.
type Phase int32

const (
	// PhaseCreated means the session exists but no child has been spawned.
	PhaseCreated Phase = iota
	// PhaseSpawned means the child process has been started.
	PhaseSpawned
	// PhaseRunning means the I/O loop is consuming child output.
	PhaseRunning
	// PhaseTerminated means the child exited and the view is frozen.
	PhaseTerminated
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseSpawned:
		return "spawned"
	case PhaseRunning:
		return "running"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Surface is the host rendering boundary. The session requests redraws
// through it; the host pulls styled rows back via RenderLine.
type Surface interface {
	// RedrawRows requests a redraw of the given rows (full-width regions).
	RedrawRows(rows []int)

	// RedrawAll requests a full-surface redraw.
	RedrawAll()
}

// Options configures a new session.
type Options struct {
	// Command is the program to embed (e.g. "vim").
	Command string

	// Args are additional arguments placed before the exchange-file path.
	Args []string

	// Env are extra environment variables for the child, as KEY=VALUE.
	Env []string

	// Suffix is the exchange file's extension hint (e.g. ".py"), driving the
	// child program's syntax mode. Defaults to ".txt".
	Suffix string

	// Content is the initial exchange-file content, if any.
	Content string

	// Cols and Rows set the initial grid geometry (defaults 80x24).
	Cols int
	Rows int

	// Term and Locale are passed to the child as TERM and LC_ALL.
	Term   string
	Locale string

	// Keymap holds named-key overrides merged over the built-in escape table.
	Keymap map[string]string

	// Surface receives redraw requests. Optional.
	Surface Surface

	// Logger for lifecycle and loop events. Defaults to logging.Null.
	Logger *logging.Logger

	// Engine overrides the decode engine. Defaults to a vt10x-backed engine
	// of the configured geometry.
	Engine emulation.Engine

	// spawn overrides process creation in tests.
	spawn spawnFunc
}

type spawnFunc func(command string, args, extraEnv []string, term, locale string, cols, rows int) (PTY, *exec.Cmd, error)

// Session embeds one interactive terminal program. It owns the child process,
// the pty master descriptor, the exchange file, and the terminal state, and
// runs one I/O loop goroutine from Start until termination.
type Session struct {
	id    string
	opts  Options
	state *State

	mu       sync.Mutex
	pty      PTY
	cmd      *exec.Cmd
	exchange *Exchange
	pending  *geometry // resize awaiting spawn completion
	exitCode int
	exitSet  bool

	phase   atomic.Int32
	started atomic.Bool
	closed  atomic.Bool
	spawned chan struct{} // closed once the child exists
	done    chan struct{} // closed when the I/O loop has finished

	keymap  map[string]string
	surface Surface
	logger  *logging.Logger
}

type geometry struct {
	cols int
	rows int
}

// New creates a session in the Created phase. Start spawns the child.
func New(opts Options) *Session {
	if opts.Command == "" {
		opts.Command = "vim"
	}
	if opts.Suffix == "" {
		opts.Suffix = ".txt"
	}
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	if opts.Term == "" {
		opts.Term = "linux"
	}
	if opts.Locale == "" {
		opts.Locale = "en_GB.UTF-8"
	}
	if opts.Logger == nil {
		opts.Logger = logging.Null
	}
	if opts.Engine == nil {
		opts.Engine = emulation.NewVTerm(opts.Cols, opts.Rows)
	}
	if opts.spawn == nil {
		opts.spawn = spawnPTY
	}

	s := &Session{
		id:      uuid.New().String(),
		opts:    opts,
		state:   NewState(opts.Engine),
		spawned: make(chan struct{}),
		done:    make(chan struct{}),
		keymap:  opts.Keymap,
		surface: opts.Surface,
		logger:  opts.Logger.WithComponent("session"),
	}
	s.logger = s.logger.WithField("id", s.id)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// advance moves the phase forward; backward transitions are ignored.
func (s *Session) advance(to Phase) {
	for {
		cur := s.phase.Load()
		if int32(to) <= cur {
			return
		}
		if s.phase.CompareAndSwap(cur, int32(to)) {
			return
		}
	}
}

// Start creates the exchange file, writes the initial content, spawns the
// child on a fresh pty, and launches the I/O loop. Fails with ErrSpawn if the
// executable cannot be resolved or started; the session is then terminated,
// not crashed.
func (s *Session) Start() error {
	if s.started.Swap(true) {
		return ErrAlreadyStarted
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}

	exch, err := newExchange(s.opts.Suffix)
	if err != nil {
		s.failStart()
		return err
	}
	if s.opts.Content != "" {
		if err := exch.SetText(s.opts.Content); err != nil {
			exch.remove()
			s.failStart()
			return err
		}
	}

	cols, rows := s.state.Size()
	args := append(append([]string{}, s.opts.Args...), exch.Path())

	exch.handOff()
	p, cmd, err := s.opts.spawn(s.opts.Command, args, s.opts.Env, s.opts.Term, s.opts.Locale, cols, rows)
	if err != nil {
		exch.reclaim()
		exch.remove()
		s.failStart()
		s.logger.Error("spawn failed: %v", err)
		return err
	}

	s.mu.Lock()
	s.exchange = exch
	s.pty = p
	s.cmd = cmd
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.advance(PhaseSpawned)
	close(s.spawned)
	s.logger.Info("spawned %s (%dx%d)", s.opts.Command, cols, rows)

	// A resize that arrived before spawn completion is applied now.
	if pending != nil {
		if err := p.Resize(pending.cols, pending.rows); err != nil {
			s.logger.Debug("deferred resize ignored: %v", err)
		}
	}

	s.advance(PhaseRunning)
	go s.readLoop()

	return nil
}

// failStart terminates a session whose spawn never succeeded, leaving an
// empty frozen panel for the host.
func (s *Session) failStart() {
	s.state.Freeze([]string{})
	s.advance(PhaseTerminated)
	close(s.done)
	if s.surface != nil {
		s.surface.RedrawAll()
	}
}

// RenderLine returns the styled row at y for the host compositor.
func (s *Session) RenderLine(y int) []renderer.Segment {
	return s.state.Line(y)
}

// Resize replaces the grid with the new geometry, discarding all dirty and
// cache state, and propagates the window-size-change control to the child.
// Before spawn completion the control is deferred; the grid replacement is
// immediate.
func (s *Session) Resize(cols, rows int) error {
	if cols < 1 || rows < 1 {
		return ErrInvalidSize
	}
	if s.state.Frozen() {
		return nil
	}

	s.state.Resize(cols, rows)

	s.mu.Lock()
	p := s.pty
	if p == nil {
		s.pending = &geometry{cols: cols, rows: rows}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := p.Resize(cols, rows); err != nil {
		// The descriptor is presumably closing; the session ends either way.
		s.logger.Debug("resize ignored: %v", err)
	}
	return nil
}

// Text returns the full content of the exchange file. Usable only while the
// host owns the file: before spawn or after termination.
func (s *Session) Text() (string, error) {
	s.mu.Lock()
	exch := s.exchange
	s.mu.Unlock()

	if exch == nil {
		return s.opts.Content, nil
	}
	return exch.Text()
}

// SetText overwrites the exchange file's content. Usable only while the host
// owns the file.
func (s *Session) SetText(value string) error {
	s.mu.Lock()
	exch := s.exchange
	s.mu.Unlock()

	if exch == nil {
		s.opts.Content = value
		return nil
	}
	return exch.SetText(value)
}

// Done returns a channel closed when the I/O loop has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ExitStatus returns the child's exit code once the session has terminated.
// The second return is false while the child is still running or was never
// reaped.
func (s *Session) ExitStatus() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.exitSet
}

// Close tears the session down: the child is killed and reaped, the master
// descriptor closed, and the exchange file removed. Safe to call more than
// once and at any phase.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.mu.Lock()
	p := s.pty
	cmd := s.cmd
	exch := s.exchange
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	if p != nil {
		_ = p.Close()
	}

	// The loop observes the closed descriptor, freezes, and reaps the child.
	if s.started.Load() {
		<-s.done
	}

	if exch != nil {
		if err := exch.remove(); err != nil {
			s.logger.Debug("exchange cleanup: %v", err)
		}
	}

	s.advance(PhaseTerminated)
	s.logger.Info("closed")
	return nil
}
