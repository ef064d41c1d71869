// Package testutil provides deterministic helpers shared by tests.
package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// LogCapture collects slog text output for assertions in tests.
//
// The handler drops the time attribute so captured lines are deterministic
// apart from durations the caller chooses to log.
//
// Thread-safety: the underlying writer is mutex-guarded, so the logger may
// be shared across goroutines.
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogCapture creates an empty capture.
func NewLogCapture() *LogCapture {
	return &LogCapture{}
}

// Logger returns a text-format logger writing into the capture.
func (c *LogCapture) Logger() *slog.Logger {
	handler := slog.NewTextHandler(lockedWriter{c}, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

// String returns everything captured so far.
func (c *LogCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Lines returns the captured output split into non-empty lines.
func (c *LogCapture) Lines() []string {
	raw := strings.Split(c.String(), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Contains reports whether any captured line contains the substring.
func (c *LogCapture) Contains(substr string) bool {
	return strings.Contains(c.String(), substr)
}

// CountContains returns the number of captured lines containing the substring.
func (c *LogCapture) CountContains(substr string) int {
	n := 0
	for _, l := range c.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

type lockedWriter struct {
	c *LogCapture
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.buf.Write(p)
}

var _ io.Writer = lockedWriter{}
