package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/vcolor/types"
)

// ErrNoAudioStream is returned when the source has no audio track to copy.
var ErrNoAudioStream = errors.New("source has no audio stream")

// RemuxOptions controls the final remux.
type RemuxOptions struct {
	// AllowSilent produces a silent final artifact when the source has no
	// audio, instead of failing.
	AllowSilent bool
	// TempTag makes the temporary output name unique to one run.
	TempTag string
}

// Remuxer combines the colorized video track with the source's audio track.
type Remuxer struct {
	Tool   Tool
	Logger *slog.Logger
}

// NewRemuxer creates a Remuxer.
func NewRemuxer(tool Tool, logger *slog.Logger) *Remuxer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remuxer{Tool: tool, Logger: logger}
}

// TempOutputPath returns the hidden sibling of output the remux writes to
// before renaming. It keeps the extension so ffmpeg picks the same muxer.
func TempOutputPath(output, tag string) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(filepath.Base(output), ext)
	return filepath.Join(filepath.Dir(output), fmt.Sprintf(".%s.%s.tmp%s", base, tag, ext))
}

// Remux stream-copies video stream 0 of silentVideo and audio stream 0 of
// source into output, re-encoding neither. The result is written to a
// temporary name and renamed over output only after ffmpeg succeeds, so
// output is either complete or untouched.
func (r *Remuxer) Remux(ctx context.Context, source, silentVideo, output string, opts RemuxOptions, progress types.Progress) error {
	types.Started(progress, types.StageRemux, 1)

	hasAudio, err := HasAudioStream(ctx, r.Tool, source)
	if err != nil {
		return err
	}

	args := []string{"-nostdin", "-i", silentVideo}
	if hasAudio {
		args = append(args, "-i", source, "-c", "copy", "-map", "0:v:0", "-map", "1:a:0")
	} else {
		if !opts.AllowSilent {
			return fmt.Errorf("%w: %s", ErrNoAudioStream, source)
		}
		r.Logger.Warn("source has no audio stream, writing a silent video", "input", source)
		args = append(args, "-c", "copy", "-map", "0:v:0")
	}

	tempFile := TempOutputPath(output, opts.TempTag)
	defer func() {
		// Clean up temp file if it is still there
		_ = os.Remove(tempFile)
	}()
	args = append(args, "-y", tempFile)

	if err := r.Tool.Run(ctx, args, nil); err != nil {
		return fmt.Errorf("audio remux failed: %w", err)
	}

	if _, err := os.Stat(tempFile); err != nil {
		return fmt.Errorf("remuxed file missing: %w", err)
	}
	if err := os.Rename(tempFile, output); err != nil {
		return fmt.Errorf("failed to move final video into place: %w", err)
	}

	types.Advanced(progress, types.StageRemux, 1, 1)
	return nil
}
