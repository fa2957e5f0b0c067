// Package frames names, lists and checks the still images a run writes to
// its workspace.
//
// Raw frames are frame_%04d.jpg, colorized frames are
// colorized_frame_%04d_<model>.png. Indexes start at 1. The four digit
// padding is a minimum, not a maximum: frame 10000 is frame_10000.jpg, so
// listings are ordered by the parsed index and never by file name.
package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	rawPrefix       = "frame_"
	rawSuffix       = ".jpg"
	colorizedPrefix = "colorized_frame_"
	colorizedSuffix = ".png"
)

// RawPattern is the printf-style pattern ffmpeg writes raw frames with.
const RawPattern = rawPrefix + "%04d" + rawSuffix

var (
	// ErrNoFrames is returned when a stage finds no frames to work on.
	ErrNoFrames = errors.New("no frames")
	// ErrFrameGap is returned when a frame sequence is not 1..N.
	ErrFrameGap = errors.New("frame sequence has a gap")
)

// Kind selects which frame family to list.
type Kind int

const (
	Raw Kind = iota
	Colorized
)

// Frame is one still image in the workspace.
type Frame struct {
	Index int
	Path  string
}

// RawName returns the file name of raw frame i.
func RawName(i int) string {
	return fmt.Sprintf(RawPattern, i)
}

// ColorizedPattern is the printf-style pattern for colorized frames of model.
func ColorizedPattern(model string) string {
	return colorizedPrefix + "%04d_" + model + colorizedSuffix
}

// ColorizedName returns the file name of colorized frame i for model.
func ColorizedName(i int, model string) string {
	return fmt.Sprintf(ColorizedPattern(model), i)
}

// ParseRawIndex extracts the index from a raw frame file name.
func ParseRawIndex(name string) (int, bool) {
	return parseIndex(name, rawPrefix, rawSuffix)
}

// ParseColorizedIndex extracts the index from a colorized frame file name for model.
func ParseColorizedIndex(name, model string) (int, bool) {
	return parseIndex(name, colorizedPrefix, "_"+model+colorizedSuffix)
}

func parseIndex(name, prefix, suffix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	digits := name[len(prefix) : len(name)-len(suffix)]
	if len(digits) < 4 {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// List returns the frames of the given kind in dir, ordered by index.
// model is only used for Colorized. Files that do not match the naming
// scheme are ignored.
func List(dir string, kind Kind, model string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory '%s': %w", dir, err)
	}

	var out []Frame
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var (
			idx int
			ok  bool
		)
		switch kind {
		case Raw:
			idx, ok = ParseRawIndex(entry.Name())
		case Colorized:
			idx, ok = ParseColorizedIndex(entry.Name(), model)
		}
		if ok {
			out = append(out, Frame{Index: idx, Path: filepath.Join(dir, entry.Name())})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// CheckSequence verifies that frames are exactly indexes 1..len(frames).
// frames must already be sorted, as returned by List.
func CheckSequence(frames []Frame) error {
	for i, f := range frames {
		if f.Index != i+1 {
			return fmt.Errorf("%w: expected frame %d, found %s", ErrFrameGap, i+1, filepath.Base(f.Path))
		}
	}
	return nil
}
