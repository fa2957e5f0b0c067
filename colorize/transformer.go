package colorize

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/vcolor/frames"
	"github.com/lepinkainen/vcolor/types"
)

// Transformer colorizes every raw frame of a directory.
type Transformer struct {
	Model *Model
	// Workers bounds how many frames are in flight. 1 keeps the
	// one-frame-at-a-time behaviour.
	Workers int
	Logger  *slog.Logger
}

// NewTransformer creates a Transformer.
func NewTransformer(model *Model, workers int, logger *slog.Logger) *Transformer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{Model: model, Workers: workers, Logger: logger}
}

// Transform writes colorized_frame_%04d_<model>.png into outDir for every
// frame_%04d.jpg in rawDir, keeping the index. outDir is created and must
// not exist yet. The first failing frame aborts the stage.
func (t *Transformer) Transform(ctx context.Context, rawDir, outDir string, progress types.Progress) ([]frames.Frame, error) {
	raw, err := frames.List(rawDir, frames.Raw, "")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: nothing to colorize in %s", frames.ErrNoFrames, rawDir)
	}
	if err := frames.CheckSequence(raw); err != nil {
		return nil, err
	}

	if err := os.Mkdir(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create colorized frame directory: %w", err)
	}

	total := len(raw)
	model := t.Model.Selection.String()
	types.Started(progress, types.StageTransform, total)

	var completed atomic.Int64
	out := make([]frames.Frame, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.Workers)
	for i, f := range raw {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := filepath.Join(outDir, frames.ColorizedName(f.Index, model))
			if err := t.colorizeFile(gctx, f.Path, dst); err != nil {
				return fmt.Errorf("frame %d: %w", f.Index, err)
			}
			out[i] = frames.Frame{Index: f.Index, Path: dst}
			types.Advanced(progress, types.StageTransform, int(completed.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.Logger.Debug("colorized frames", "count", total, "model", model, "workers", t.Workers)
	return out, nil
}

func (t *Transformer) colorizeFile(ctx context.Context, src, dst string) error {
	img, err := decodeImage(src)
	if err != nil {
		return err
	}

	colorized, err := t.Model.Colorize(ctx, img)
	if err != nil {
		return err
	}

	file, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dst), err)
	}
	if err := png.Encode(file, colorized); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(dst), err)
	}
	return file.Close()
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
