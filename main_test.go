package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestCLI_Structure(t *testing.T) {
	// Compile-time check that the expected commands exist
	var cli CLI
	_ = cli.Colorize
	_ = cli.Check
}

func TestKongParsing(t *testing.T) {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		t.Fatalf("Kong parser construction failed: %v", err)
	}
	if parser == nil {
		t.Error("Kong parser should not be nil")
	}
}

func TestKongParsing_ColorizeCommand(t *testing.T) {
	testDir := t.TempDir()
	input := filepath.Join(testDir, "video.mp4")
	_ = os.WriteFile(input, []byte("test"), 0644)
	output := filepath.Join(testDir, "out.mp4")

	testCases := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{
			name: "Explicit command",
			args: []string{"colorize", "-i", input, "-o", output},
		},
		{
			name: "Default command",
			args: []string{"-i", input, "-o", output},
		},
		{
			name: "Long flags with model and gpu",
			args: []string{"--input", input, "--output", output, "--model", "siggraph17", "--use-gpu"},
		},
		{
			name: "Pool and frame rate",
			args: []string{"-i", input, "-o", output, "--workers", "4", "--framerate", "0"},
		},
		{
			name:        "Unknown model",
			args:        []string{"-i", input, "-o", output, "-m", "pix2pix"},
			expectError: true,
		},
		{
			name:        "Missing output",
			args:        []string{"-i", input},
			expectError: true,
		},
		{
			name:        "Missing input file",
			args:        []string{"-i", filepath.Join(testDir, "missing.mp4"), "-o", output},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cli CLI
			parser, err := newParser(&cli)
			if err != nil {
				t.Fatal(err)
			}

			ctx, err := parser.Parse(tc.args)
			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error for args %v, but parsing succeeded", tc.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for args %v: %v", tc.args, err)
			}
			if !strings.Contains(ctx.Command(), "colorize") {
				t.Errorf("Expected 'colorize' command, got %q", ctx.Command())
			}
		})
	}
}

func TestColorizeCmd_Defaults(t *testing.T) {
	testDir := t.TempDir()
	input := filepath.Join(testDir, "video.mp4")
	_ = os.WriteFile(input, []byte("test"), 0644)

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"-i", input, "-o", filepath.Join(testDir, "out.mp4")}); err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	c := cli.Colorize
	if c.Model != "eccv16" {
		t.Errorf("Expected default model eccv16, got %q", c.Model)
	}
	if c.UseGPU {
		t.Error("Expected GPU acceleration to be off by default")
	}
	if c.FrameRate != 24 {
		t.Errorf("Expected default frame rate 24, got %v", c.FrameRate)
	}
	if c.Workers != 1 {
		t.Errorf("Expected one worker by default, got %d", c.Workers)
	}
	if c.PairingThreshold != 10 {
		t.Errorf("Expected pairing threshold 10, got %d", c.PairingThreshold)
	}
	if c.AllowSilent || c.VerifyPairing || c.NoTUI {
		t.Error("Expected optional behaviours to be off by default")
	}
}

func TestKongParsing_CheckCommand(t *testing.T) {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse([]string{"check"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ctx.Command() != "check" {
		t.Errorf("Expected 'check' command, got %q", ctx.Command())
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestPrintUsageIfEmpty(t *testing.T) {
	var cli CLI
	var out bytes.Buffer
	parser, err := newParser(&cli, kong.Writers(&out, &out), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatal(err)
	}

	if !printUsageIfEmpty(parser, nil) {
		t.Fatal("Expected usage to be printed for an empty argument list")
	}
	usage := out.String()
	if !strings.Contains(usage, "vcolor") {
		t.Errorf("Expected usage to name the program, got %q", usage)
	}
	if !strings.Contains(usage, "colorize") || !strings.Contains(usage, "check") {
		t.Errorf("Expected usage to list the commands, got %q", usage)
	}
}

func TestPrintUsageIfEmpty_WithArgs(t *testing.T) {
	var cli CLI
	var out bytes.Buffer
	parser, err := newParser(&cli, kong.Writers(&out, &out))
	if err != nil {
		t.Fatal(err)
	}

	if printUsageIfEmpty(parser, []string{"check"}) {
		t.Error("Expected no usage when arguments are given")
	}
	if out.Len() != 0 {
		t.Errorf("Expected nothing written, got %q", out.String())
	}
}
