// Package logging sets up the diagnostic log. The terminal belongs to the
// TUI, so records go to a rotated JSON file instead of stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the diagnostic log inside the log directory
const FileName = "hivechat.log"

// Options configures the logger
type Options struct {
	Dir   string
	Debug bool
	// MaxSizeMB is the size at which the file is rotated. Zero means 10.
	MaxSizeMB int
}

// Init creates the log directory and returns a JSON logger writing to a
// rotated file. The returned closer flushes and closes the file. The logger
// is also installed as the slog default.
func Init(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.Dir == "" {
		return nil, nil, fmt.Errorf("log directory is empty")
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    maxSize,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	logger := New(rotator, opts.Debug)
	slog.SetDefault(logger)

	return logger, rotator, nil
}

// New returns a JSON logger writing to w
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
