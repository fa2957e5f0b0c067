package video

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lepinkainen/vcolor/frames"
	"github.com/lepinkainen/vcolor/types"
)

// DefaultFrameRate is used when no rate is given and the source cannot be probed.
const DefaultFrameRate = 24.0

// ErrFrameGap is returned when the colorized frames are not numbered 1..N.
var ErrFrameGap = frames.ErrFrameGap

// Assembler encodes a colorized frame sequence into a silent video.
type Assembler struct {
	Tool   Tool
	Logger *slog.Logger
	// Tick paces the synthetic progress reported while ffmpeg runs.
	Tick time.Duration
}

// NewAssembler creates an Assembler.
func NewAssembler(tool Tool, tick time.Duration, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{Tool: tool, Logger: logger, Tick: tick}
}

// Assemble encodes dir/colorized_frame_%04d_<model>.png at frameRate into
// output as H.264 yuv420p with no audio track. ffmpeg gives no dependable
// per-frame signal here, so progress ticks against the frame count and is
// set to 100% once ffmpeg exits successfully.
func (a *Assembler) Assemble(ctx context.Context, dir, model, output string, frameRate float64, progress types.Progress) (int, error) {
	if frameRate <= 0 {
		return 0, fmt.Errorf("frame rate must be positive, got %v", frameRate)
	}

	colorized, err := frames.List(dir, frames.Colorized, model)
	if err != nil {
		return 0, err
	}
	total := len(colorized)
	if total == 0 {
		return 0, fmt.Errorf("%w: nothing to assemble in %s", ErrNoFrames, dir)
	}
	if err := frames.CheckSequence(colorized); err != nil {
		return 0, err
	}

	types.Started(progress, types.StageAssemble, total)

	tickCtx, stopTicking := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tickProgress(tickCtx, progress, types.StageAssemble, total, a.Tick)
	}()

	args := []string{
		"-nostdin",
		"-framerate", strconv.FormatFloat(frameRate, 'f', -1, 64),
		"-i", filepath.Join(dir, frames.ColorizedPattern(model)),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		output,
	}
	err = a.Tool.Run(ctx, args, nil)
	stopTicking()
	<-done

	if err != nil {
		return 0, fmt.Errorf("video assembly failed: %w", err)
	}

	types.Advanced(progress, types.StageAssemble, total, total)
	a.Logger.Debug("assembled silent video", "output", output, "frames", total, "fps", frameRate)
	return total, nil
}
