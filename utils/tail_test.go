package utils

import (
	"io"
	"log/slog"
	"testing"
)

func TestTailBufferKeepsLastLines(t *testing.T) {
	tb := NewTailBuffer(2)
	tb.Add("one")
	tb.Add("   ")
	tb.Add("two")
	tb.Add("three")

	if got := tb.String(); got != "two\nthree" {
		t.Errorf("Expected last two lines, got %q", got)
	}
}

func TestTailBufferWriteSplitsChunks(t *testing.T) {
	tb := NewTailBuffer(10)
	_, _ = io.WriteString(tb, "frame=  1 fps=0\rframe=  2")
	_, _ = io.WriteString(tb, " fps=12\nError opening output\n")

	want := "frame=  1 fps=0\nframe=  2 fps=12\nError opening output"
	if got := tb.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTailBufferIncludesPartialLine(t *testing.T) {
	tb := NewTailBuffer(3)
	_, _ = io.WriteString(tb, "done\nunterminated")

	if got := tb.String(); got != "done\nunterminated" {
		t.Errorf("Expected partial line to be included, got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestQuietLevel(t *testing.T) {
	tests := []struct {
		level, floor, want string
	}{
		{"info", "warn", "warn"},
		{"debug", "warn", "warn"},
		{"warn", "warn", "warn"},
		{"error", "warn", "error"},
		{"info", "error", "error"},
	}
	for _, tt := range tests {
		if got := QuietLevel(tt.level, tt.floor); got != tt.want {
			t.Errorf("QuietLevel(%q, %q) = %q, want %q", tt.level, tt.floor, got, tt.want)
		}
	}
}
