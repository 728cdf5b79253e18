// Package logging builds the run logger: a colored console handler on stderr
// plus an optional append-mode file sink, fanned out behind one slog.Logger.
// Stdout is left to the report so its output stays pipeable.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Options controls logger construction.
type Options struct {
	Verbose bool   // Debug level instead of Info.
	NoColor bool   // Force plain console output.
	LogFile string // Optional file sink path (append mode, plain text).
}

// New returns the run logger and a close function for the file sink. The
// close function is always non-nil. File sink lines are uncolored text with
// full timestamps; console lines are compact and colored when stderr is a
// terminal.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor || !isatty.IsTerminal(os.Stderr.Fd()),
	})

	handler := slog.Handler(console)
	closeFn := func() error { return nil }

	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
		handler = newMultiHandler(console, fileHandler)
		closeFn = f.Close
	}

	return slog.New(handler), closeFn, nil
}
