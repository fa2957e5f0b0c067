// Package videotest provides a fake video.Tool that imitates ffmpeg and
// ffprobe on the file system, for tests that must not depend on real tools.
package videotest

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/lepinkainen/vcolor/frames"
	"github.com/lepinkainen/vcolor/video"
)

// Invocation kinds recognised by Tool.
const (
	KindExtract  = "extract"
	KindAssemble = "assemble"
	KindRemux    = "remux"
	KindCount    = "count"
	KindAudio    = "audio"
	KindRate     = "rate"
)

// Tool is a fake video.Tool. The zero value extracts nothing; set Frames.
type Tool struct {
	// Frames is how many frames extraction writes.
	Frames int
	Width  int
	Height int

	// CountErr makes the frame count query fail; otherwise it reports Frames.
	CountErr error
	NoAudio  bool
	Rate     string

	// ExitCodes makes the invocation of the given kind exit non-zero.
	ExitCodes map[string]int

	// BeforeRun runs before every ffmpeg invocation, e.g. to block or cancel.
	BeforeRun func(ctx context.Context, kind string) error

	mu    sync.Mutex
	calls []Call
}

// Call records one invocation.
type Call struct {
	Kind string
	Args []string
}

var _ video.Tool = (*Tool)(nil)

// Calls returns the recorded invocations.
func (t *Tool) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.calls)
}

// Kinds returns the kinds of the recorded invocations in order.
func (t *Tool) Kinds() []string {
	var kinds []string
	for _, c := range t.Calls() {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func (t *Tool) record(kind string, args []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, Call{Kind: kind, Args: slices.Clone(args)})
}

func (t *Tool) exit(tool, kind string, args []string) error {
	code := t.ExitCodes[kind]
	if code == 0 {
		return nil
	}
	return &video.ToolError{Tool: tool, Args: args, ExitCode: code, Tail: "fake " + kind + " failure"}
}

func (t *Tool) Probe(ctx context.Context, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kind := classifyProbe(args)
	t.record(kind, args)
	if err := t.exit("ffprobe", kind, args); err != nil {
		return nil, err
	}

	switch kind {
	case KindCount:
		if t.CountErr != nil {
			return nil, t.CountErr
		}
		return []byte(fmt.Sprintf("%d\n", t.Frames)), nil
	case KindAudio:
		if t.NoAudio {
			return nil, nil
		}
		return []byte("1\n"), nil
	case KindRate:
		if t.Rate == "" {
			return []byte("24/1\n"), nil
		}
		return []byte(t.Rate + "\n"), nil
	}
	return nil, fmt.Errorf("fake ffprobe: unexpected arguments %v", args)
}

func (t *Tool) Run(ctx context.Context, args []string, onLine func(string)) error {
	kind := classifyRun(args)
	t.record(kind, args)

	if t.BeforeRun != nil {
		if err := t.BeforeRun(ctx, kind); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if onLine == nil {
		onLine = func(string) {}
	}

	switch kind {
	case KindExtract:
		return t.extract(args, onLine)
	case KindAssemble:
		return t.assemble(args)
	case KindRemux:
		return t.remux(args)
	}
	return fmt.Errorf("fake ffmpeg: unexpected arguments %v", args)
}

func (t *Tool) extract(args []string, onLine func(string)) error {
	pattern := args[slices.Index(args, "-q:v")+2]
	dir := filepath.Dir(pattern)

	onLine("Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'input.mp4':")
	for i := 1; i <= t.Frames; i++ {
		if err := WriteFrame(filepath.Join(dir, frames.RawName(i)), t.size(), i); err != nil {
			return err
		}
		onLine(fmt.Sprintf("frame=%5d fps=0.0 q=2.0 size=N/A time=00:00:00.04 bitrate=N/A speed=N/A", i))
		// ffmpeg repeats its status line; a stale value must not regress progress
		if i > 1 {
			onLine(fmt.Sprintf("frame=%5d fps=0.0 q=2.0 size=N/A", i-1))
		}
	}
	return t.exit("ffmpeg", KindExtract, args)
}

func (t *Tool) assemble(args []string) error {
	if err := t.exit("ffmpeg", KindAssemble, args); err != nil {
		return err
	}
	input := args[slices.Index(args, "-i")+1]
	dir := filepath.Dir(input)
	model := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(input), "colorized_frame_%04d_"), ".png")

	list, err := frames.List(dir, frames.Colorized, model)
	if err != nil {
		return err
	}
	return os.WriteFile(args[len(args)-1], []byte(fmt.Sprintf("video frames=%d", len(list))), 0o644)
}

func (t *Tool) remux(args []string) error {
	if err := t.exit("ffmpeg", KindRemux, args); err != nil {
		return err
	}
	silent, err := os.ReadFile(args[slices.Index(args, "-i")+1])
	if err != nil {
		return err
	}
	content := string(silent)
	if slices.Contains(args, "1:a:0") {
		content += " audio=copied"
	}
	return os.WriteFile(args[len(args)-1], []byte(content), 0o644)
}

func (t *Tool) size() image.Point {
	w, h := t.Width, t.Height
	if w == 0 {
		w = 32
	}
	if h == 0 {
		h = 24
	}
	return image.Pt(w, h)
}

func classifyProbe(args []string) string {
	switch {
	case slices.Contains(args, "-count_frames"):
		return KindCount
	case slices.Contains(args, "stream=r_frame_rate"):
		return KindRate
	case slices.Contains(args, "a"):
		return KindAudio
	}
	return "probe"
}

func classifyRun(args []string) string {
	switch {
	case slices.Contains(args, "-q:v"):
		return KindExtract
	case slices.Contains(args, "-framerate"):
		return KindAssemble
	case slices.Contains(args, "copy"):
		return KindRemux
	}
	return "run"
}

// WriteFrame writes a small grayscale JPEG whose content depends on seed.
func WriteFrame(path string, size image.Point, seed int) error {
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			v := uint8((x*7 + y*3 + seed*11) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
