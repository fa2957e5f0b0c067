package video

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// CountFrames asks ffprobe to decode the first video stream and count its
// frames. The count is only used for progress display; callers treat an
// error as "unknown" (0) rather than failing the run.
func CountFrames(ctx context.Context, tool Tool, videoFile string) (int, error) {
	output, err := tool.Probe(ctx, "-v", "error", "-count_frames", "-select_streams", "v:0",
		"-show_entries", "stream=nb_read_frames", "-of", "default=nokey=1:noprint_wrappers=1", videoFile)
	if err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}

	// Some containers print the value once per program, the first one is enough
	first := strings.TrimSpace(strings.SplitN(strings.TrimSpace(string(output)), "\n", 2)[0])
	count, err := strconv.Atoi(first)
	if err != nil {
		return 0, fmt.Errorf("failed to parse frame count %q: %w", first, err)
	}
	if count < 0 {
		return 0, fmt.Errorf("invalid frame count %d", count)
	}
	return count, nil
}

// HasAudioStream reports whether videoFile has at least one audio stream
func HasAudioStream(ctx context.Context, tool Tool, videoFile string) (bool, error) {
	output, err := tool.Probe(ctx, "-v", "error", "-select_streams", "a",
		"-show_entries", "stream=index", "-of", "csv=p=0", videoFile)
	if err != nil {
		return false, fmt.Errorf("failed to probe audio streams: %w", err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// FrameRate returns the frame rate of the first video stream
func FrameRate(ctx context.Context, tool Tool, videoFile string) (float64, error) {
	output, err := tool.Probe(ctx, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate", "-of", "default=noprint_wrappers=1:nokey=1", videoFile)
	if err != nil {
		return 0, fmt.Errorf("failed to get frame rate: %w", err)
	}
	return ParseFrameRate(strings.TrimSpace(string(output)))
}

// ParseFrameRate parses ffprobe's "num/den" rate notation, or a plain number
func ParseFrameRate(value string) (float64, error) {
	value = strings.TrimSpace(strings.SplitN(value, "\n", 2)[0])
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", value)
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("invalid frame rate %q", value)
		}
	}
	rate := n / d
	if rate <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", value)
	}
	return rate, nil
}
