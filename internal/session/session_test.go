package session

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"
)

// fakePTY is an in-memory pty master: reads are scripted through a channel,
// writes are captured, and Close ends the stream.
type fakePTY struct {
	mu        sync.Mutex
	reads     chan []byte
	writes    bytes.Buffer
	resizes   [][2]int
	closeOnce sync.Once
}

func newFakePTY() *fakePTY {
	return &fakePTY{reads: make(chan []byte, 16)}
}

func (p *fakePTY) Read(b []byte) (int, error) {
	data, ok := <-p.reads
	if !ok {
		return 0, io.EOF
	}
	return copy(b, data), nil
}

func (p *fakePTY) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes.Write(b)
}

func (p *fakePTY) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resizes = append(p.resizes, [2]int{cols, rows})
	return nil
}

func (p *fakePTY) Close() error {
	p.closeOnce.Do(func() { close(p.reads) })
	return nil
}

func (p *fakePTY) emit(s string) {
	p.reads <- []byte(s)
}

func (p *fakePTY) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes.String()
}

func (p *fakePTY) resizeLog() [][2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]int{}, p.resizes...)
}

// recordSurface records redraw requests and signals each one.
type recordSurface struct {
	mu      sync.Mutex
	rows    [][]int
	all     int
	signals chan struct{}
}

func newRecordSurface() *recordSurface {
	return &recordSurface{signals: make(chan struct{}, 64)}
}

func (r *recordSurface) RedrawRows(rows []int) {
	r.mu.Lock()
	r.rows = append(r.rows, rows)
	r.mu.Unlock()
	r.signals <- struct{}{}
}

func (r *recordSurface) RedrawAll() {
	r.mu.Lock()
	r.all++
	r.mu.Unlock()
	r.signals <- struct{}{}
}

func (r *recordSurface) allCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all
}

func (r *recordSurface) waitSignal(t *testing.T) {
	t.Helper()
	select {
	case <-r.signals:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redraw request")
	}
}

type spawnRecord struct {
	command    string
	args       []string
	extraEnv   []string
	term       string
	locale     string
	cols, rows int
}

func fakeSpawn(p *fakePTY, rec *spawnRecord) spawnFunc {
	return func(command string, args, extraEnv []string, term, locale string, cols, rows int) (PTY, *exec.Cmd, error) {
		if rec != nil {
			*rec = spawnRecord{command, args, extraEnv, term, locale, cols, rows}
		}
		return p, nil, nil
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session termination")
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(Options{})

	if s.ID() == "" {
		t.Error("expected a session id")
	}
	if s.Phase() != PhaseCreated {
		t.Errorf("expected created phase, got %v", s.Phase())
	}
	if s.opts.Command != "vim" {
		t.Errorf("expected vim default, got %q", s.opts.Command)
	}
	if s.opts.Suffix != ".txt" {
		t.Errorf("expected .txt default, got %q", s.opts.Suffix)
	}

	cols, rows := s.state.Size()
	if cols != 80 || rows != 24 {
		t.Errorf("expected 80x24 default, got %dx%d", cols, rows)
	}
}

func TestSessionLifecycle(t *testing.T) {
	p := newFakePTY()
	var rec spawnRecord
	eng := newScriptEngine(10, 2)
	surf := newRecordSurface()

	s := New(Options{
		Command: "fakeedit",
		Args:    []string{"-n"},
		Content: "hi",
		Suffix:  ".md",
		Term:    "xterm",
		Locale:  "C.UTF-8",
		Engine:  eng,
		Surface: surf,
		spawn:   fakeSpawn(p, &rec),
	})
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if s.Phase() != PhaseRunning {
		t.Errorf("expected running phase, got %v", s.Phase())
	}
	if rec.command != "fakeedit" {
		t.Errorf("expected command fakeedit, got %q", rec.command)
	}
	if rec.term != "xterm" || rec.locale != "C.UTF-8" {
		t.Errorf("expected term/locale passed through, got %q/%q", rec.term, rec.locale)
	}
	if rec.cols != 10 || rec.rows != 2 {
		t.Errorf("expected 10x2 spawn geometry, got %dx%d", rec.cols, rec.rows)
	}

	// The exchange file path comes last and carries the initial content.
	if len(rec.args) != 2 || rec.args[0] != "-n" {
		t.Fatalf("expected [-n <path>] args, got %v", rec.args)
	}
	data, err := os.ReadFile(rec.args[1])
	if err != nil {
		t.Fatalf("reading exchange file: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("expected exchange content %q, got %q", "hi", string(data))
	}

	// Child output flows through to the engine and triggers a row redraw.
	p.emit("hello")
	surf.waitSignal(t)
	if len(eng.feeds) != 1 || eng.feeds[0] != "hello" {
		t.Errorf("expected engine feed %q, got %v", "hello", eng.feeds)
	}

	// End of stream freezes the final exchange content.
	p.Close()
	waitDone(t, s)

	if s.Phase() != PhaseTerminated {
		t.Errorf("expected terminated phase, got %v", s.Phase())
	}
	if surf.allCount() == 0 {
		t.Error("expected a full redraw after termination")
	}

	text, err := s.Text()
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "hi" {
		t.Errorf("expected final text %q, got %q", "hi", text)
	}
}

func TestStartTwice(t *testing.T) {
	p := newFakePTY()
	s := New(Options{Engine: newScriptEngine(10, 2), spawn: fakeSpawn(p, nil)})
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartAfterClose(t *testing.T) {
	s := New(Options{Engine: newScriptEngine(10, 2)})
	s.Close()

	if err := s.Start(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSpawnFailureTerminates(t *testing.T) {
	surf := newRecordSurface()
	spawnErr := errors.New("no such executable")

	s := New(Options{
		Engine:  newScriptEngine(10, 2),
		Surface: surf,
		spawn: func(string, []string, []string, string, string, int, int) (PTY, *exec.Cmd, error) {
			return nil, nil, spawnErr
		},
	})

	if err := s.Start(); !errors.Is(err, spawnErr) {
		t.Fatalf("expected spawn error, got %v", err)
	}

	if s.Phase() != PhaseTerminated {
		t.Errorf("expected terminated phase, got %v", s.Phase())
	}

	// Done is already closed; this must not hang.
	waitDone(t, s)

	// An empty frozen panel: no rows at all.
	if row := s.RenderLine(0); row != nil {
		t.Errorf("expected no content, got %v", row)
	}
}

func TestResizeInvalid(t *testing.T) {
	s := New(Options{Engine: newScriptEngine(10, 2)})
	if err := s.Resize(0, 5); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	if err := s.Resize(5, -1); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestResizeBeforeSpawnDeferred(t *testing.T) {
	p := newFakePTY()
	eng := newScriptEngine(10, 2)
	s := New(Options{Engine: eng, spawn: fakeSpawn(p, nil)})
	defer s.Close()

	if err := s.Resize(100, 50); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	// The grid is replaced immediately even though no child exists yet.
	cols, rows := s.state.Size()
	if cols != 100 || rows != 50 {
		t.Errorf("expected 100x50 grid, got %dx%d", cols, rows)
	}
	if len(p.resizeLog()) != 0 {
		t.Error("expected no pty resize before spawn")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	log := p.resizeLog()
	if len(log) != 1 || log[0] != [2]int{100, 50} {
		t.Errorf("expected deferred resize to 100x50, got %v", log)
	}
}

func TestResizeWhileRunning(t *testing.T) {
	p := newFakePTY()
	eng := newScriptEngine(10, 2)
	s := New(Options{Engine: eng, spawn: fakeSpawn(p, nil)})
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Resize(90, 30); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	log := p.resizeLog()
	if len(log) != 1 || log[0] != [2]int{90, 30} {
		t.Errorf("expected pty resize to 90x30, got %v", log)
	}
	if len(eng.resized) != 1 || eng.resized[0] != [2]int{90, 30} {
		t.Errorf("expected engine resize to 90x30, got %v", eng.resized)
	}
}

func TestResizeAfterTerminationIgnored(t *testing.T) {
	p := newFakePTY()
	s := New(Options{Engine: newScriptEngine(10, 2), spawn: fakeSpawn(p, nil)})
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	p.Close()
	waitDone(t, s)

	if err := s.Resize(90, 30); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if len(p.resizeLog()) != 0 {
		t.Error("expected no pty resize after termination")
	}
}

func TestTextBeforeStart(t *testing.T) {
	s := New(Options{Content: "initial", Engine: newScriptEngine(10, 2)})

	text, err := s.Text()
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "initial" {
		t.Errorf("expected %q, got %q", "initial", text)
	}
}

func TestCloseIdempotent(t *testing.T) {
	p := newFakePTY()
	s := New(Options{Engine: newScriptEngine(10, 2), spawn: fakeSpawn(p, nil)})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if s.Phase() != PhaseTerminated {
		t.Errorf("expected terminated phase, got %v", s.Phase())
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseCreated, "created"},
		{PhaseSpawned, "spawned"},
		{PhaseRunning, "running"},
		{PhaseTerminated, "terminated"},
		{Phase(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", []string{}},
		{"single line", "hello", []string{"hello"}},
		{"trailing newline", "hello\n", []string{"hello"}},
		{"multiple lines", "a\nb\nc", []string{"a", "b", "c"}},
		{"blank middle line", "a\n\nb", []string{"a", "", "b"}},
		{"only newline", "\n", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
