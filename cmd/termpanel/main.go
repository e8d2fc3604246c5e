// Package main is the entry point for the termpanel demo host: it embeds a
// terminal editor session in a tcell screen, forwards input, and prints the
// final exchange content when the editor exits.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termpanel/internal/config"
	"github.com/dshills/termpanel/internal/logging"
	"github.com/dshills/termpanel/internal/session"
	"github.com/dshills/termpanel/internal/surface"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	configPath string
	logLevel   string
	command    string
	suffix     string
	file       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlagOverrides(cfg, opts)

	logger, logClose, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logClose()

	keymap, err := config.LoadKeymap(cfg.KeymapPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var content string
	suffix := cfg.Editor.Suffix
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", opts.file, err)
			return 1
		}
		content = string(data)
		if ext := filepath.Ext(opts.file); ext != "" {
			suffix = ext
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize screen: %v\n", err)
		return 1
	}
	defer screen.Fini()
	screen.EnableMouse()

	host := surface.New(screen)
	cols, rows := screen.Size()

	sess := session.New(session.Options{
		Command: cfg.Editor.Command,
		Args:    cfg.Editor.Args,
		Env:     cfg.Editor.Env,
		Suffix:  suffix,
		Content: content,
		Cols:    cols,
		Rows:    rows,
		Term:    cfg.Terminal.Term,
		Locale:  cfg.Terminal.Locale,
		Keymap:  keymap,
		Surface: host,
		Logger:  logger,
	})
	defer sess.Close()

	// Reload the log level when the config file changes.
	watcher, err := config.NewWatcher(opts.configPath, func(next *config.Config) {
		logger.SetLevel(logging.ParseLevel(next.Log.Level))
		logger.Info("configuration reloaded")
	}, config.WithErrorHandler(func(err error) {
		logger.Warn("config reload failed: %v", err)
	}))
	if err != nil {
		logger.Warn("config watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		sess.Close()
	}()

	if err := sess.Start(); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	eventLoop(screen, host, sess)

	// Capture final content and exit status while the screen is still up,
	// then restore the terminal before printing.
	text, textErr := sess.Text()
	code, reaped := sess.ExitStatus()
	sess.Close()
	screen.Fini()

	if textErr == nil && text != "" {
		fmt.Print(text)
		if text[len(text)-1] != '\n' {
			fmt.Println()
		}
	}
	if reaped && code > 0 {
		return code
	}
	return 0
}

// eventLoop drives the tcell event queue until the session terminates. Key
// and mouse events are forwarded into the child; redraw requests posted by
// the session pull styled rows back out.
func eventLoop(screen tcell.Screen, host *surface.Screen, sess *session.Session) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			cols, rows := ev.Size()
			_ = sess.Resize(cols, rows)
			screen.Sync()
			drawAll(screen, host, sess)

		case *tcell.EventKey:
			name, ch := host.KeyEvent(ev)
			if name != "" || ch != 0 {
				sess.ForwardKey(name, ch)
			}

		case *tcell.EventMouse:
			kind, x, y := host.MouseEvent(ev)
			sess.ForwardMouse(kind, x, y)

		case *surface.RedrawEvent:
			if ev.Rows == nil {
				drawAll(screen, host, sess)
			} else {
				for _, y := range ev.Rows {
					host.DrawRow(y, sess.RenderLine(y))
				}
				screen.Show()
			}
			if sess.Phase() == session.PhaseTerminated {
				return
			}
		}
	}
}

func drawAll(screen tcell.Screen, host *surface.Screen, sess *session.Session) {
	_, rows := screen.Size()
	for y := 0; y < rows; y++ {
		host.DrawRow(y, sess.RenderLine(y))
	}
	screen.Show()
}

// newLogger builds the logger from config. Logging goes to a file when one
// is configured; otherwise it is disabled so the fullscreen UI stays clean.
func newLogger(cfg *config.Config) (*logging.Logger, func(), error) {
	if cfg.Log.File == "" {
		return logging.Null, func() {}, nil
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.Log.File, err)
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: f,
		Prefix: "termpanel",
	})
	return logger, func() { _ = f.Close() }, nil
}

func applyFlagOverrides(cfg *config.Config, opts cliOptions) {
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.command != "" {
		cfg.Editor.Command = opts.command
	}
	if opts.suffix != "" {
		cfg.Editor.Suffix = opts.suffix
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", config.DefaultPath(), "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.command, "editor", "", "Editor command to embed")
	flag.StringVar(&opts.command, "e", "", "Editor command to embed (shorthand)")
	flag.StringVar(&opts.suffix, "suffix", "", "Exchange file suffix (e.g. .py)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Termpanel - embed a terminal editor in a tcell surface\n\n")
		fmt.Fprintf(os.Stderr, "Usage: termpanel [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  termpanel                   Edit an empty buffer\n")
		fmt.Fprintf(os.Stderr, "  termpanel notes.md          Edit a file's content\n")
		fmt.Fprintf(os.Stderr, "  termpanel -e nano notes.md  Embed nano instead of vim\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Termpanel %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	if args := flag.Args(); len(args) > 0 {
		opts.file = args[0]
	}

	return opts
}
