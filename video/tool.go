// Package video wraps the external decode/encode tools (ffmpeg and ffprobe)
// behind the Tool interface and implements the extract, assemble and remux
// stages on top of it.
package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/lepinkainen/vcolor/utils"
)

// tailLines is how many diagnostic lines a ToolError keeps.
const tailLines = 12

// Tool runs the external media tools. Stages only talk to ffmpeg and
// ffprobe through it, so tests can swap in a fake.
type Tool interface {
	// Probe runs ffprobe with args and returns its standard output.
	Probe(ctx context.Context, args ...string) ([]byte, error)

	// Run runs ffmpeg with args and blocks until it exits. Every line of its
	// diagnostic stream is passed to onLine, which may be nil.
	Run(ctx context.Context, args []string, onLine func(line string)) error
}

// ToolError describes a failed external tool invocation.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process did not exit normally
	Tail     string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	if e.Tail != "" {
		msg += "\n" + e.Tail
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// ExecTool runs ffmpeg and ffprobe as subprocesses.
type ExecTool struct {
	FFmpeg  string
	FFprobe string
	Logger  *slog.Logger
}

// NewExecTool returns an ExecTool for the given binaries.
func NewExecTool(ffmpeg, ffprobe string, logger *slog.Logger) *ExecTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecTool{FFmpeg: ffmpeg, FFprobe: ffprobe, Logger: logger}
}

func (t *ExecTool) Probe(ctx context.Context, args ...string) ([]byte, error) {
	t.Logger.Debug("running ffprobe", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.FFprobe, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, newToolError("ffprobe", args, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (t *ExecTool) Run(ctx context.Context, args []string, onLine func(string)) error {
	t.Logger.Debug("running ffmpeg", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.FFmpeg, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg diagnostic stream: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return newToolError("ffmpeg", args, err, "")
	}

	tail := utils.NewTailBuffer(tailLines)
	scanErr := ScanLines(stderr, func(line string) {
		tail.Add(line)
		if onLine != nil {
			onLine(line)
		}
	})

	// Wait closes the pipe, so the stream must be drained first. A scanner
	// that gave up still leaves ffmpeg writing into it.
	if scanErr != nil {
		_, _ = io.Copy(io.Discard, stderr)
	}
	if err := cmd.Wait(); err != nil {
		return newToolError("ffmpeg", args, err, tail.String())
	}
	if scanErr != nil {
		return fmt.Errorf("failed to read ffmpeg diagnostic stream: %w", scanErr)
	}
	return nil
}

func newToolError(tool string, args []string, err error, tail string) *ToolError {
	te := &ToolError{Tool: tool, Args: args, ExitCode: -1, Tail: tail, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}

// ScanLines calls onLine for every line in r. ffmpeg redraws its status line
// with a carriage return, so both '\r' and '\n' end a line.
func ScanLines(r io.Reader, onLine func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanCRLF)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	return scanner.Err()
}

func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
