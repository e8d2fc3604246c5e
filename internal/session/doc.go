// Package session embeds an interactive full-screen terminal program behind
// a renderable grid of styled rows.
//
// A Session spawns the target program attached to a pseudo-terminal,
// exchanges content with it through a shared transient file, decodes its
// output into a cell grid via an external emulation engine, and tracks which
// rows need redrawing. Host input events are translated back into terminal
// byte sequences and written to the pty.
//
// # Lifecycle
//
// Sessions move strictly forward through Created, Spawned, Running and
// Terminated. One I/O loop goroutine per session consumes pty output from
// Start until end-of-stream; end-of-stream is the normal terminal state and
// freezes the view into a static line list read back from the shared file.
// After the freeze no input is forwarded and feeds are no-ops.
//
// # Concurrency
//
// The terminal state serializes engine access behind one mutex, so a feed
// never interleaves with a render or a resize. The pty master descriptor and
// the exchange file are each owned by exactly one session. Teardown via Close
// kills and reaps the child and closes the descriptor even if the loop never
// observed natural end-of-stream.
//
// # Usage
//
//	sess := session.New(session.Options{
//	    Command: "vim",
//	    Suffix:  ".py",
//	    Content: `print("Hello, World!")`,
//	    Cols:    120,
//	    Rows:    40,
//	    Surface: surf,
//	})
//	if err := sess.Start(); err != nil {
//	    // missing executable: the panel is frozen empty, not crashed
//	}
//	defer sess.Close()
//
//	row := sess.RenderLine(0)         // styled segments for the compositor
//	sess.ForwardKey("up", 0)          // host key event
//	sess.Resize(100, 30)              // grid replacement + TIOCSWINSZ
//	text, _ := sess.Text()            // after termination: final content
package session
