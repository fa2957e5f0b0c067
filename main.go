package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/vcolor/cmd"
	"github.com/lepinkainen/vcolor/config"
	"github.com/lepinkainen/vcolor/pipeline"
	"github.com/lepinkainen/vcolor/types"
	"github.com/lepinkainen/vcolor/ui"
	"github.com/lepinkainen/vcolor/utils"
)

var Version = "dev"

type CLI struct {
	Colorize cmd.ColorizeCmd `cmd:"" default:"withargs" help:"Colorize a video with a pretrained model"`
	Check    cmd.CheckCmd    `cmd:"" help:"Check that ffmpeg, ffprobe and the inference worker are available"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("vcolor"),
		kong.Description("Video colorization tool using deep learning models."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

// printUsageIfEmpty prints the top level usage when args is empty. With no
// arguments at all there is nothing for the default command to run on.
func printUsageIfEmpty(parser *kong.Kong, args []string) bool {
	if len(args) > 0 {
		return false
	}
	ctx, err := kong.Trace(parser, nil)
	if err != nil {
		parser.Printf("%v", err)
		return true
	}
	_ = ctx.PrintUsage(false)
	return true
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}

	if printUsageIfEmpty(parser, os.Args[1:]) {
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(fmt.Sprintf("❌ invalid configuration: %v", err)))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &types.AppContext{
		Version: Version,
		Logger:  utils.NewLogger(os.Stderr, cfg.LogLevel),
		Config:  cfg,
	}
	kctx.BindTo(ctx, (*context.Context)(nil))

	err = kctx.Run(appCtx)
	stop()
	os.Exit(pipeline.ExitCode(err))
}
