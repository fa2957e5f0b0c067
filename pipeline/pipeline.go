// Package pipeline runs one colorization: it owns the run's workspace and
// sequences extract, transform, an optional pairing check, assemble and
// remux, cleaning the workspace up whether the run succeeds or not.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lepinkainen/vcolor/colorize"
	"github.com/lepinkainen/vcolor/frames"
	"github.com/lepinkainen/vcolor/types"
	"github.com/lepinkainen/vcolor/video"
)

// DefaultAssembleTick paces the synthetic assemble progress.
const DefaultAssembleTick = 10 * time.Millisecond

// Options describe one run.
type Options struct {
	Input  string
	Output string
	Model  colorize.Selection
	// Accelerate loads the model on accelerated hardware.
	Accelerate bool
	// FrameRate of the assembled video; 0 uses the source's rate.
	FrameRate float64
	Workers   int

	AllowSilent      bool
	VerifyPairing    bool
	PairingThreshold int
}

// Result describes a completed run.
type Result struct {
	RunID     string
	Output    string
	Model     colorize.Selection
	Frames    int
	FrameRate float64
	Duration  time.Duration
}

// Pipeline holds the collaborators shared by runs. It keeps no per-run
// state, so concurrent Run calls are independent.
type Pipeline struct {
	Tool     video.Tool
	Loader   colorize.Loader
	Identity IdentitySource
	// WorkDir is where workspaces are created.
	WorkDir      string
	AssembleTick time.Duration
	Progress     types.Progress
	Logger       *slog.Logger
}

// New returns a Pipeline with UUIDv7 run ids and workspaces in the current directory.
func New(tool video.Tool, loader colorize.Loader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Tool:         tool,
		Loader:       loader,
		Identity:     UUIDIdentity{},
		WorkDir:      ".",
		AssembleTick: DefaultAssembleTick,
		Progress:     types.Discard,
		Logger:       logger,
	}
}

// validate resolves defaults and rejects bad options before anything is
// created or started.
func (p *Pipeline) validate(opts *Options) error {
	if opts.Input == "" || opts.Output == "" {
		return errors.New("input and output are required")
	}
	sel, err := colorize.ParseSelection(string(opts.Model))
	if err != nil {
		return err
	}
	opts.Model = sel

	if err := video.ValidateInput(opts.Input); err != nil {
		return err
	}
	if err := video.ValidateOutput(opts.Input, opts.Output); err != nil {
		return err
	}
	if fi, err := os.Stat(p.WorkDir); err != nil {
		return fmt.Errorf("work directory not accessible: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("work directory %s is not a directory", p.WorkDir)
	}

	if opts.FrameRate < 0 {
		return fmt.Errorf("frame rate must not be negative, got %v", opts.FrameRate)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PairingThreshold <= 0 {
		opts.PairingThreshold = frames.DefaultPairingThreshold
	}
	return nil
}

// Run executes one colorization. Configuration errors are returned before any
// workspace path exists; stage failures come back as *StageError after the
// workspace has been removed. A cleanup failure is joined into the returned
// error even when the output was produced, in which case the Result is
// returned as well.
func (p *Pipeline) Run(ctx context.Context, opts Options) (res *Result, err error) {
	if err := p.validate(&opts); err != nil {
		return nil, err
	}

	runID, err := p.Identity.NewRunID()
	if err != nil {
		return nil, err
	}
	ws := NewWorkspace(p.WorkDir, runID)
	if err := ws.ensureFree(); err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run", runID)
	sink := p.Progress
	if sink == nil {
		sink = types.Discard
	}
	progress := types.Monotonic(sink)
	start := time.Now()

	defer func() {
		types.Started(progress, types.StageCleanup, len(ws.Paths()))
		cerr := ws.Cleanup()
		types.Finished(progress, types.StageCleanup, cerr)
		if cerr != nil {
			log.Error("workspace cleanup incomplete", "error", cerr)
			err = errors.Join(err, cerr)
		}
	}()

	stage := func(s types.Stage, fn func() error) error {
		log.Info("stage started", "stage", s)
		err := fn()
		types.Finished(progress, s, err)
		if err != nil {
			log.Error("stage failed", "stage", s, "error", err)
			return &StageError{Stage: s, RunID: runID, Err: err}
		}
		return nil
	}

	log.Debug("starting run", "input", opts.Input, "output", opts.Output, "model", opts.Model, "workdir", p.WorkDir)

	// The model is loaded once, before any frame work, and shared by every frame.
	model, err := colorize.Load(ctx, p.Loader, opts.Model, opts.Accelerate)
	if err != nil {
		types.Finished(progress, types.StageTransform, err)
		return nil, &StageError{Stage: types.StageTransform, RunID: runID, Err: err}
	}
	defer func() {
		if cerr := model.Close(); cerr != nil {
			log.Warn("failed to release model", "error", cerr)
		}
	}()

	var extracted *video.ExtractResult
	if err := stage(types.StageExtract, func() error {
		var err error
		extracted, err = video.NewExtractor(p.Tool, log).Extract(ctx, opts.Input, ws.RawDir, progress)
		return err
	}); err != nil {
		return nil, err
	}

	var colorized []frames.Frame
	if err := stage(types.StageTransform, func() error {
		var err error
		colorized, err = colorize.NewTransformer(model, opts.Workers, log).Transform(ctx, ws.RawDir, ws.ColorizedDir, progress)
		return err
	}); err != nil {
		return nil, err
	}

	if opts.VerifyPairing {
		if err := stage(types.StageVerify, func() error {
			total := len(extracted.Frames)
			types.Started(progress, types.StageVerify, total)
			return frames.VerifyPairing(extracted.Frames, colorized, opts.PairingThreshold, func(done int) {
				types.Advanced(progress, types.StageVerify, done, total)
			})
		}); err != nil {
			return nil, err
		}
	}

	frameRate := p.frameRate(ctx, log, opts)

	var assembled int
	if err := stage(types.StageAssemble, func() error {
		var err error
		assembled, err = video.NewAssembler(p.Tool, p.AssembleTick, log).Assemble(ctx, ws.ColorizedDir, opts.Model.String(), ws.SilentVideo, frameRate, progress)
		return err
	}); err != nil {
		return nil, err
	}

	if err := stage(types.StageRemux, func() error {
		return video.NewRemuxer(p.Tool, log).Remux(ctx, opts.Input, ws.SilentVideo, opts.Output, video.RemuxOptions{
			AllowSilent: opts.AllowSilent,
			TempTag:     runID,
		}, progress)
	}); err != nil {
		return nil, err
	}

	res = &Result{
		RunID:     runID,
		Output:    opts.Output,
		Model:     opts.Model,
		Frames:    assembled,
		FrameRate: frameRate,
		Duration:  time.Since(start),
	}
	log.Info("run complete", "output", opts.Output, "frames", assembled, "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// frameRate returns the requested rate, or the source's when none was
// requested, falling back to video.DefaultFrameRate.
func (p *Pipeline) frameRate(ctx context.Context, log *slog.Logger, opts Options) float64 {
	if opts.FrameRate > 0 {
		return opts.FrameRate
	}
	rate, err := video.FrameRate(ctx, p.Tool, opts.Input)
	if err != nil || rate <= 0 {
		log.Warn("could not determine source frame rate, using default", "default", video.DefaultFrameRate, "error", err)
		return video.DefaultFrameRate
	}
	return rate
}
