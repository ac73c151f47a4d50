package logging

import (
	"bytes"
	"context"
	"log/slog"
)

// Writer is an io.Writer that forwards each written line to slog, at debug
// level unless changed with WithLevel, under the given message. It is used to route exporter output (for
// example trace spans) into the regular log stream.
type Writer struct {
	logger *slog.Logger
	msg    string
	attr   string
	level  slog.Level
}

// NewWriter constructs a Writer bound to the provided logger. Every line is
// logged as msg with the line stored under attr.
func NewWriter(logger *slog.Logger, msg, attr string) *Writer {
	if msg == "" {
		msg = "output"
	}
	if attr == "" {
		attr = "line"
	}
	return &Writer{logger: logger, msg: msg, attr: attr, level: slog.LevelDebug}
}

// WithLevel returns a copy of w logging at level.
func (w *Writer) WithLevel(level Level) *Writer {
	out := *w
	out.level = slog.Level(level)
	return &out
}

// Write logs every non-empty line contained in p.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger == nil {
		return len(p), nil
	}
	for _, line := range bytes.Split(p, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		w.logger.Log(context.Background(), w.level, w.msg, w.attr, string(line))
	}
	return len(p), nil
}
