package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/vcolor/colorize"
	"github.com/lepinkainen/vcolor/colorize/colorizetest"
	"github.com/lepinkainen/vcolor/frames"
	"github.com/lepinkainen/vcolor/pipeline"
	"github.com/lepinkainen/vcolor/types"
	"github.com/lepinkainen/vcolor/video"
	"github.com/lepinkainen/vcolor/video/videotest"
)

type fixture struct {
	workDir string
	input   string
	output  string
	tool    *videotest.Tool
	net     *colorizetest.Network
	events  *eventLog
	p       *pipeline.Pipeline
}

type eventLog struct {
	mu     sync.Mutex
	events []types.ProgressEvent
}

func (l *eventLog) Report(ev types.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// lifecycle returns "stage:kind" for every started and finished event.
func (l *eventLog) lifecycle() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, ev := range l.events {
		if ev.Kind != types.EventAdvanced {
			out = append(out, string(ev.Stage)+":"+ev.Kind.String())
		}
	}
	return out
}

func newFixture(t *testing.T, tool *videotest.Tool) *fixture {
	t.Helper()
	inDir := t.TempDir()
	input := filepath.Join(inDir, "input.mp4")
	require.NoError(t, os.WriteFile(input, []byte("source"), 0o644))

	f := &fixture{
		workDir: t.TempDir(),
		input:   input,
		output:  filepath.Join(t.TempDir(), "final.mp4"),
		tool:    tool,
		net:     &colorizetest.Network{A: 12, B: -8},
		events:  &eventLog{},
	}
	f.p = pipeline.New(tool, f.net.Loader(), nil)
	f.p.WorkDir = f.workDir
	f.p.Identity = &pipeline.SequenceIdentity{Prefix: "run"}
	f.p.AssembleTick = time.Millisecond
	f.p.Progress = f.events
	return f
}

func (f *fixture) options() pipeline.Options {
	return pipeline.Options{Input: f.input, Output: f.output, Model: colorize.ECCV16}
}

// assertWorkspaceGone checks that nothing a run creates is left in the work directory.
func (f *fixture) assertWorkspaceGone(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Empty(t, names, "workspace must be removed when the run returns")
}

func TestRun(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 5, Rate: "30000/1001"})

	res, err := f.p.Run(context.Background(), f.options())
	require.NoError(t, err)

	assert.Equal(t, "run0001", res.RunID)
	assert.Equal(t, 5, res.Frames)
	assert.InDelta(t, 29.97, res.FrameRate, 0.01)
	assert.Equal(t, colorize.ECCV16, res.Model)

	content, err := os.ReadFile(f.output)
	require.NoError(t, err)
	assert.Equal(t, "video frames=5 audio=copied", string(content))

	src, err := os.ReadFile(f.input)
	require.NoError(t, err)
	assert.Equal(t, "source", string(src), "the input must stay untouched")

	f.assertWorkspaceGone(t)

	assert.Equal(t, []string{
		videotest.KindCount, videotest.KindExtract, videotest.KindRate,
		videotest.KindAssemble, videotest.KindAudio, videotest.KindRemux,
	}, f.tool.Kinds())
	assert.Equal(t, 1, f.net.Loads())
	assert.Equal(t, 5, f.net.Calls())
	assert.True(t, f.net.Closed())

	assert.Equal(t, []string{
		"extract:started", "extract:finished",
		"transform:started", "transform:finished",
		"assemble:started", "assemble:finished",
		"remux:started", "remux:finished",
		"cleanup:started", "cleanup:finished",
	}, f.events.lifecycle())
}

func TestRun_ExplicitFrameRate(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 2})
	opts := f.options()
	opts.FrameRate = 12.5

	res, err := f.p.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 12.5, res.FrameRate)
	assert.NotContains(t, f.tool.Kinds(), videotest.KindRate, "an explicit rate must not be probed")
	assembleArgs := f.tool.Calls()[2].Args
	assert.Contains(t, assembleArgs, "12.5")
}

func TestRun_VerifyPairing(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 3})
	f.net.A, f.net.B = 0, 0
	opts := f.options()
	opts.VerifyPairing = true

	_, err := f.p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, f.events.lifecycle(), "verify:finished")
}

func TestRun_StageFailuresCleanUp(t *testing.T) {
	tests := []struct {
		name     string
		tool     *videotest.Tool
		failOn   int
		stage    types.Stage
		target   error
		exitCode int
	}{
		{
			name:     "extract exits non-zero",
			tool:     &videotest.Tool{Frames: 4, ExitCodes: map[string]int{videotest.KindExtract: 187}},
			stage:    types.StageExtract,
			exitCode: 187,
		},
		{
			name:     "inference fails mid-run",
			tool:     &videotest.Tool{Frames: 4},
			failOn:   2,
			stage:    types.StageTransform,
			target:   colorizetest.ErrInjected,
			exitCode: 1,
		},
		{
			name:     "assemble exits non-zero",
			tool:     &videotest.Tool{Frames: 4, ExitCodes: map[string]int{videotest.KindAssemble: 1}},
			stage:    types.StageAssemble,
			exitCode: 1,
		},
		{
			name:     "remux exits non-zero",
			tool:     &videotest.Tool{Frames: 4, ExitCodes: map[string]int{videotest.KindRemux: 42}},
			stage:    types.StageRemux,
			exitCode: 42,
		},
		{
			name:     "source without audio",
			tool:     &videotest.Tool{Frames: 4, NoAudio: true},
			stage:    types.StageRemux,
			target:   video.ErrNoAudioStream,
			exitCode: 1,
		},
		{
			name:     "zero frames",
			tool:     &videotest.Tool{Frames: 0},
			stage:    types.StageExtract,
			target:   frames.ErrNoFrames,
			exitCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.tool)
			f.net.FailOn = tt.failOn

			res, err := f.p.Run(context.Background(), f.options())
			require.Error(t, err)
			assert.Nil(t, res)

			var stageErr *pipeline.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)
			assert.Equal(t, "run0001", stageErr.RunID)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Equal(t, tt.exitCode, pipeline.ExitCode(err))

			f.assertWorkspaceGone(t)
			assert.NoFileExists(t, f.output, "no final artifact after a failed run")
			assert.Contains(t, f.events.lifecycle(), "cleanup:finished")
		})
	}
}

func TestRun_ZeroFramesNeverAssembles(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 0})

	_, err := f.p.Run(context.Background(), f.options())
	require.ErrorIs(t, err, video.ErrNoFrames)
	assert.NotContains(t, f.tool.Kinds(), videotest.KindAssemble)
	assert.NotContains(t, f.tool.Kinds(), videotest.KindRemux)
	assert.Zero(t, f.net.Calls())
}

func TestRun_AllowSilent(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 3, NoAudio: true})
	opts := f.options()
	opts.AllowSilent = true

	_, err := f.p.Run(context.Background(), opts)
	require.NoError(t, err)

	content, err := os.ReadFile(f.output)
	require.NoError(t, err)
	assert.Equal(t, "video frames=3", string(content))
	f.assertWorkspaceGone(t)
}

func TestRun_ConfigurationErrorsHaveNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *fixture, o *pipeline.Options)
		target error
	}{
		{
			name:   "unknown model",
			modify: func(_ *fixture, o *pipeline.Options) { o.Model = "pix2pix" },
			target: colorize.ErrUnknownModel,
		},
		{
			name:   "missing input",
			modify: func(f *fixture, o *pipeline.Options) { o.Input = filepath.Join(f.workDir, "missing.mp4") },
		},
		{
			name:   "output is input",
			modify: func(f *fixture, o *pipeline.Options) { o.Output = f.input },
		},
		{
			name:   "output not a video",
			modify: func(f *fixture, o *pipeline.Options) { o.Output = filepath.Join(filepath.Dir(f.output), "final.txt") },
		},
		{
			name:   "negative frame rate",
			modify: func(_ *fixture, o *pipeline.Options) { o.FrameRate = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &videotest.Tool{Frames: 3})
			opts := f.options()
			tt.modify(f, &opts)

			_, err := f.p.Run(context.Background(), opts)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			var stageErr *pipeline.StageError
			assert.False(t, errors.As(err, &stageErr), "configuration errors are not stage failures")

			f.assertWorkspaceGone(t)
			assert.Empty(t, f.tool.Calls(), "no external process may start")
			assert.Zero(t, f.net.Loads())
			assert.Empty(t, f.events.lifecycle())
		})
	}
}

func TestRun_ModelLoadFailure(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 3})
	boom := errors.New("worker not found")
	f.p.Loader = colorizetest.FailingLoader(boom)

	_, err := f.p.Run(context.Background(), f.options())

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageTransform, stageErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.tool.Calls(), "frames are not extracted when the model cannot load")
	f.assertWorkspaceGone(t)
}

func TestRun_LeftoverWorkspaceIsNotTouched(t *testing.T) {
	f := newFixture(t, &videotest.Tool{Frames: 3})
	leftover := filepath.Join(f.workDir, "frames_run0001")
	require.NoError(t, os.Mkdir(leftover, 0o755))

	_, err := f.p.Run(context.Background(), f.options())
	require.ErrorIs(t, err, pipeline.ErrWorkspaceExists)
	assert.DirExists(t, leftover)
	assert.Empty(t, f.tool.Calls())
}

func TestRun_CancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tool := &videotest.Tool{Frames: 3, BeforeRun: func(ctx context.Context, kind string) error {
		if kind == videotest.KindAssemble {
			cancel()
			return ctx.Err()
		}
		return nil
	}}
	f := newFixture(t, tool)

	_, err := f.p.Run(ctx, f.options())

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, types.StageAssemble, stageErr.Stage)
	assert.ErrorIs(t, err, context.Canceled)
	f.assertWorkspaceGone(t)
	assert.NoFileExists(t, f.output)
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	// Both extractions wait for each other so the runs overlap.
	var arrived sync.WaitGroup
	arrived.Add(2)
	barrier := func(ctx context.Context, kind string) error {
		if kind != videotest.KindExtract {
			return nil
		}
		arrived.Done()
		done := make(chan struct{})
		go func() {
			arrived.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("runs did not overlap")
		}
	}

	workDir := t.TempDir()
	identity := pipeline.UUIDIdentity{}
	a := newFixture(t, &videotest.Tool{Frames: 4, BeforeRun: barrier})
	b := newFixture(t, &videotest.Tool{Frames: 7, BeforeRun: barrier})
	b.input = a.input
	for _, f := range []*fixture{a, b} {
		f.workDir = workDir
		f.p.WorkDir = workDir
		f.p.Identity = identity
	}

	var (
		wg         sync.WaitGroup
		resA, resB *pipeline.Result
		errA, errB error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		resA, errA = a.p.Run(context.Background(), a.options())
	}()
	go func() {
		defer wg.Done()
		resB, errB = b.p.Run(context.Background(), b.options())
	}()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.NotEqual(t, resA.RunID, resB.RunID)

	contentA, err := os.ReadFile(a.output)
	require.NoError(t, err)
	contentB, err := os.ReadFile(b.output)
	require.NoError(t, err)
	assert.Equal(t, "video frames=4 audio=copied", string(contentA))
	assert.Equal(t, "video frames=7 audio=copied", string(contentB))

	a.assertWorkspaceGone(t)
}
