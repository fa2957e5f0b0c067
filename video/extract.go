package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lepinkainen/vcolor/frames"
	"github.com/lepinkainen/vcolor/types"
)

// ErrNoFrames is returned when a stage finds no frames to work on.
var ErrNoFrames = frames.ErrNoFrames

// ExtractResult describes the frames written by Extract.
type ExtractResult struct {
	Dir string
	// Expected is the advisory ffprobe count, 0 when unknown.
	Expected int
	Frames   []frames.Frame
}

// Extractor splits a video into numbered JPEG frames.
type Extractor struct {
	Tool   Tool
	Logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(tool Tool, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Tool: tool, Logger: logger}
}

// Extract writes one frame_%04d.jpg per video frame of src into dir, at
// native resolution. dir is created and must not exist yet. Progress is
// scraped from ffmpeg's status lines. A non-zero exit or an empty result is
// an error.
func (e *Extractor) Extract(ctx context.Context, src, dir string, progress types.Progress) (*ExtractResult, error) {
	expected, err := CountFrames(ctx, e.Tool, src)
	if err != nil {
		e.Logger.Warn("could not count frames, progress total unknown", "input", src, "error", extractFirstLine(err.Error()))
		expected = 0
	}

	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}

	types.Started(progress, types.StageExtract, expected)
	scraper := NewFrameScraper(progress, types.StageExtract, expected)

	args := []string{
		"-nostdin",
		"-i", src,
		"-q:v", "2",
		filepath.Join(dir, frames.RawPattern),
		"-y",
	}
	if err := e.Tool.Run(ctx, args, scraper.Line); err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}

	extracted, err := frames.List(dir, frames.Raw, "")
	if err != nil {
		return nil, err
	}
	if len(extracted) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg extracted nothing from %s", ErrNoFrames, src)
	}
	if err := frames.CheckSequence(extracted); err != nil {
		return nil, err
	}
	if expected > 0 && expected != len(extracted) {
		e.Logger.Warn("extracted frame count differs from probe", "expected", expected, "extracted", len(extracted))
	}

	types.Advanced(progress, types.StageExtract, len(extracted), expected)
	return &ExtractResult{Dir: dir, Expected: expected, Frames: extracted}, nil
}
