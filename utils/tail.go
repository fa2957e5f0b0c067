package utils

import (
	"strings"
	"sync"
)

// TailBuffer keeps the last N lines written to it. Subprocess diagnostics are
// noisy, only the end is useful in an error message.
type TailBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial string
}

// NewTailBuffer creates a TailBuffer holding at most max lines.
func NewTailBuffer(max int) *TailBuffer {
	if max < 1 {
		max = 1
	}
	return &TailBuffer{max: max}
}

// Add records a complete line. Blank lines are ignored.
func (t *TailBuffer) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// Write implements io.Writer so a TailBuffer can be used as cmd.Stderr.
func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	data := t.partial + string(p)
	t.partial = ""
	parts := strings.FieldsFunc(data, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(data) > 0 && data[len(data)-1] != '\n' && data[len(data)-1] != '\r' && len(parts) > 0 {
		t.partial = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	t.mu.Unlock()

	for _, part := range parts {
		t.Add(part)
	}
	return len(p), nil
}

// String returns the retained lines joined by newlines.
func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.lines
	if t.partial != "" {
		lines = append(append([]string(nil), lines...), strings.TrimSpace(t.partial))
	}
	return strings.Join(lines, "\n")
}
