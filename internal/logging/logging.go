// Package logging builds the root zerolog.Logger shared by every
// component. Constructors elsewhere take a logger, not a global, so
// tests can inject a silent one.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the root logger.
type Options struct {
	// Verbose enables debug-level output; otherwise info and above.
	Verbose bool
	// FilePath, when non-empty, writes rotated JSON logs there instead
	// of the console writer.
	FilePath string
}

// New builds the root logger. With no FilePath it writes a human
// readable console stream to stderr, matching how most of the pack's
// services run interactively; with a FilePath it switches to rotated
// JSON lines suitable for a long-running daemon embedding.
func New(opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	var w io.Writer
	if opts.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
