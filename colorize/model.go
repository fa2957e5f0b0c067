package colorize

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Model is a network loaded once for a run and shared by all frames.
type Model struct {
	Selection  Selection
	Accelerate bool
	Size       int

	net Network
}

// Load resolves the network for sel through loader.
func Load(ctx context.Context, loader Loader, sel Selection, accelerate bool) (*Model, error) {
	if _, err := ParseSelection(string(sel)); err != nil {
		return nil, err
	}
	net, err := loader(ctx, sel, accelerate)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", sel, err)
	}
	return &Model{Selection: sel, Accelerate: accelerate, Size: WorkingSize, net: net}, nil
}

// Colorize predicts chroma for img at the working size and recombines it
// with the native-resolution lightness. The result has img's dimensions.
func (m *Model) Colorize(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty image")
	}

	l := lightness(img)
	input := resample(l, w, h, m.Size, m.Size, lMin, lMax)

	ab, err := m.net.Infer(ctx, input, m.Size)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	n := m.Size * m.Size
	if len(ab) != 2*n {
		return nil, fmt.Errorf("inference returned %d values, want %d", len(ab), 2*n)
	}

	a := resample(ab[:n], m.Size, m.Size, w, h, abMin, abMax)
	bb := resample(ab[n:], m.Size, m.Size, w, h, abMin, abMax)
	return compose(l, a, bb, w, h), nil
}

// Close releases the network.
func (m *Model) Close() error {
	return m.net.Close()
}
