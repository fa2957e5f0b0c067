package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/vcolor/colorize"
	"github.com/lepinkainen/vcolor/pipeline"
	"github.com/lepinkainen/vcolor/types"
	"github.com/lepinkainen/vcolor/ui"
	"github.com/lepinkainen/vcolor/utils"
	"github.com/lepinkainen/vcolor/video"
)

type ColorizeCmd struct {
	Input            string  `short:"i" required:"" help:"Path to the input video file" type:"existingfile"`
	Output           string  `short:"o" required:"" help:"Path to the output video file" type:"path"`
	Model            string  `short:"m" help:"Colorization model to use" default:"eccv16" enum:"eccv16,siggraph17"`
	UseGPU           bool    `name:"use-gpu" help:"Enable GPU acceleration if supported"`
	FrameRate        float64 `name:"framerate" help:"Frame rate of the colorized video (0 uses the source rate)" default:"24"`
	Workers          int     `help:"Number of frames colorized in parallel (0 picks by drive type)" default:"1"`
	AllowSilent      bool    `help:"Write a silent video when the input has no audio track"`
	VerifyPairing    bool    `help:"Check every colorized frame against its source frame before encoding"`
	PairingThreshold int     `help:"Hamming distance threshold for pairing verification (0-64)" default:"10"`
	NoTUI            bool    `name:"no-tui" help:"Use plain progress bars instead of the interactive view"`
}

func (cmd *ColorizeCmd) Run(ctx context.Context, appCtx *types.AppContext) error {
	version := types.DefaultVersion
	if appCtx != nil {
		version = appCtx.Version
	}

	cfg, err := appCtx.Settings()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	workers := cmd.Workers
	if workers <= 0 {
		workers = utils.DefaultWorkers(cfg.WorkDir)
		if utils.IsNetworkDrive(cfg.WorkDir) {
			fmt.Printf("⚠️  Network drive detected, using 1 worker for optimal performance\n")
		}
	}

	opts := pipeline.Options{
		Input:            cmd.Input,
		Output:           cmd.Output,
		Model:            colorize.Selection(cmd.Model),
		Accelerate:       cmd.UseGPU,
		FrameRate:        cmd.FrameRate,
		Workers:          workers,
		AllowSilent:      cmd.AllowSilent,
		VerifyPairing:    cmd.VerifyPairing,
		PairingThreshold: cmd.PairingThreshold,
	}

	useTUI := !cmd.NoTUI && utils.IsTerminal(os.Stdout)
	var logger *slog.Logger
	if useTUI {
		// Log lines would tear the interactive view, only errors get through
		logger = utils.NewLogger(os.Stderr, "error")
	} else {
		// Bars share stderr with the log
		logger = utils.NewLogger(os.Stderr, utils.QuietLevel(cfg.LogLevel, "warn"))
	}

	tool := video.NewExecTool(cfg.FFmpegPath, cfg.FFprobePath, logger)
	loader := &colorize.ExecLoader{Command: cfg.WorkerCommand, Args: cfg.WorkerArgs, Logger: logger}

	p := pipeline.New(tool, loader.Load, logger)
	p.WorkDir = cfg.WorkDir
	p.AssembleTick = cfg.AssembleTick

	var res *pipeline.Result
	if useTUI {
		res, err = cmd.runWithTUI(ctx, p, opts, version)
	} else {
		fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("vcolor %s", version)))
		fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("Colorizing %s with %s:", cmd.Input, cmd.Model)))
		bars := ui.NewBarReporter(os.Stderr)
		stream := p.Stream(ctx, opts, 64)
		for ev := range stream.Events() {
			bars.Report(ev)
		}
		res, err = stream.Wait()
	}

	if res != nil {
		fmt.Printf("\n%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ Colorized video written to %s (%d frames at %.3g fps, %s)",
			res.Output, res.Frames, res.FrameRate, res.Duration.Round(time.Second))))
	}
	if err != nil {
		fmt.Printf("\n%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
		logger.Debug("run failed", "error", err, "exit_code", pipeline.ExitCode(err))
	}
	return err
}

// runWithTUI runs the pipeline behind the interactive stage view. Quitting
// the view cancels the run, which still removes its workspace.
func (cmd *ColorizeCmd) runWithTUI(ctx context.Context, p *pipeline.Pipeline, opts pipeline.Options, version string) (*pipeline.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stages := []types.Stage{types.StageExtract, types.StageTransform}
	if opts.VerifyPairing {
		stages = append(stages, types.StageVerify)
	}
	stages = append(stages, types.StageAssemble, types.StageRemux)

	model := ui.NewPipelineModel(stages, opts.Input, opts.Output, string(opts.Model), version, cancel)
	program := tea.NewProgram(model)
	p.Progress = ui.NewTeaReporter(program)

	var (
		res    *pipeline.Result
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, runErr = p.Run(runCtx, opts)
		program.Send(ui.RunDoneMsg{Err: runErr})
	}()

	if _, err := program.Run(); err != nil {
		slog.Default().Debug("interactive view failed", "error", err)
		cancel()
	}
	<-done
	return res, runErr
}
