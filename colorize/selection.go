// Package colorize turns raw grayscale frames into colorized frames.
//
// The neural network itself is opaque: a Network maps a working-size L
// (lightness) plane to two ab (chroma) planes. This package owns everything
// around it, from colour space conversion and resampling to the per-run model
// lifecycle and the frame worker pool.
package colorize

import (
	"errors"
	"fmt"
	"strings"
)

// WorkingSize is the square resolution the networks are trained on.
const WorkingSize = 256

// ErrUnknownModel is returned for a model name that is not supported.
var ErrUnknownModel = errors.New("unknown colorization model")

// Selection names a colorization backend.
type Selection string

const (
	ECCV16     Selection = "eccv16"
	SIGGRAPH17 Selection = "siggraph17"
)

// DefaultSelection is used when no model is requested.
const DefaultSelection = ECCV16

// Selections lists the supported backends in display order.
var Selections = []Selection{ECCV16, SIGGRAPH17}

func (s Selection) String() string { return string(s) }

// ParseSelection resolves a model name. Matching is case-insensitive and an
// empty name selects DefaultSelection.
func ParseSelection(name string) (Selection, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultSelection, nil
	}
	for _, s := range Selections {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q (choose %s or %s)", ErrUnknownModel, name, ECCV16, SIGGRAPH17)
}
