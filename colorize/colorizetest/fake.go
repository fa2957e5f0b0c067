// Package colorizetest provides an in-process colorize.Network for tests.
package colorizetest

import (
	"context"
	"errors"
	"sync"

	"github.com/lepinkainen/vcolor/colorize"
)

// ErrInjected is returned by Network when FailOn is reached.
var ErrInjected = errors.New("injected inference failure")

// Network paints every pixel with the same chroma.
type Network struct {
	A, B float32
	// FailOn makes the n-th Infer call (1-based) fail. 0 never fails.
	FailOn int

	mu     sync.Mutex
	calls  int
	loads  int
	closed bool
	last   colorize.Selection
	gpu    bool
}

var _ colorize.Network = (*Network)(nil)

// Loader returns a colorize.Loader handing out n.
func (n *Network) Loader() colorize.Loader {
	return func(ctx context.Context, sel colorize.Selection, accelerate bool) (colorize.Network, error) {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.loads++
		n.last = sel
		n.gpu = accelerate
		return n, nil
	}
}

func (n *Network) Infer(ctx context.Context, l []float32, size int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.calls++
	call := n.calls
	n.mu.Unlock()

	if n.FailOn > 0 && call == n.FailOn {
		return nil, ErrInjected
	}

	plane := size * size
	out := make([]float32, 2*plane)
	for i := 0; i < plane; i++ {
		out[i] = n.A
		out[plane+i] = n.B
	}
	return out, nil
}

func (n *Network) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

// Calls returns how many times Infer ran.
func (n *Network) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// Loads returns how many times the network was loaded.
func (n *Network) Loads() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loads
}

// Closed reports whether Close was called.
func (n *Network) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// LastLoad returns the selection and acceleration flag of the latest load.
func (n *Network) LastLoad() (colorize.Selection, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last, n.gpu
}

// FailingLoader returns a Loader that always fails with err.
func FailingLoader(err error) colorize.Loader {
	return func(context.Context, colorize.Selection, bool) (colorize.Network, error) {
		return nil, err
	}
}
