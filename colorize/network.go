package colorize

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"sync"

	"github.com/lepinkainen/vcolor/utils"
)

// Network is a loaded colorization network in inference mode.
type Network interface {
	// Infer maps a size×size L plane (0..100, row-major) to the a plane
	// followed by the b plane, each size×size.
	Infer(ctx context.Context, l []float32, size int) ([]float32, error)
	Close() error
}

// Loader loads the network for sel, on accelerated hardware when accelerate is set.
type Loader func(ctx context.Context, sel Selection, accelerate bool) (Network, error)

// maxErrorMessage bounds the error text accepted from a worker.
const maxErrorMessage = 64 * 1024

// ExecLoader starts an inference worker process per loaded network:
//
//	<Command> <Args...> --model <selection> [--gpu]
//
// The worker reads requests from stdin and writes responses to stdout, all
// little-endian. Once its model is loaded the worker writes a uint32 status,
// 0 for ready, and Load waits for it. A request is uint32 width, uint32 height and width*height
// float32 L values. A response is a uint32 status; status 0 is followed by
// 2*width*height float32 ab values, any other status by a uint32 length and
// that many bytes of error text.
type ExecLoader struct {
	Command string
	Args    []string
	Logger  *slog.Logger
}

// Load implements Loader. The worker is killed when ctx is cancelled.
func (e *ExecLoader) Load(ctx context.Context, sel Selection, accelerate bool) (Network, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	args := append(append([]string(nil), e.Args...), "--model", sel.String())
	if accelerate {
		args = append(args, "--gpu")
	}

	cmd := exec.CommandContext(ctx, e.Command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker input: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker output: %w", err)
	}
	tail := utils.NewTailBuffer(12)
	cmd.Stderr = tail

	logger.Debug("starting inference worker", "command", e.Command, "model", sel, "gpu", accelerate)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start inference worker %s: %w", e.Command, err)
	}

	pn := &processNetwork{streamNetwork: newStreamNetwork(stdout, stdin), cmd: cmd, stdin: stdin, tail: tail}
	if err := pn.awaitReady(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if t := tail.String(); t != "" {
			return nil, fmt.Errorf("inference worker failed to load %s: %w\n%s", sel, err, t)
		}
		return nil, fmt.Errorf("inference worker failed to load %s: %w", sel, err)
	}
	logger.Debug("inference worker ready", "model", sel)
	return pn, nil
}

// streamNetwork speaks the worker protocol over a reader/writer pair. Calls
// are serialized since the protocol has no request ids.
type streamNetwork struct {
	mu sync.Mutex
	r  *bufio.Reader
	w  *bufio.Writer
}

func newStreamNetwork(r io.Reader, w io.Writer) *streamNetwork {
	return &streamNetwork{r: bufio.NewReader(r), w: bufio.NewWriter(w)}
}

func (s *streamNetwork) Infer(ctx context.Context, l []float32, size int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(l) != size*size {
		return nil, fmt.Errorf("input plane has %d values, want %d", len(l), size*size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := binary.Write(s.w, binary.LittleEndian, [2]uint32{uint32(size), uint32(size)}); err != nil {
		return nil, err
	}
	if err := binary.Write(s.w, binary.LittleEndian, l); err != nil {
		return nil, err
	}
	if err := s.w.Flush(); err != nil {
		return nil, err
	}

	if err := s.readStatus(); err != nil {
		return nil, err
	}

	ab := make([]float32, 2*size*size)
	if err := binary.Read(s.r, binary.LittleEndian, ab); err != nil {
		return nil, err
	}
	for _, v := range ab {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, errors.New("worker returned non-finite values")
		}
	}
	return ab, nil
}

// awaitReady reads the status the worker sends once its model is loaded.
func (s *streamNetwork) awaitReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readStatus(); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("worker exited before reporting ready")
		}
		return err
	}
	return nil
}

// readStatus reads a status word and, for a failure, its message.
func (s *streamNetwork) readStatus() error {
	var status uint32
	if err := binary.Read(s.r, binary.LittleEndian, &status); err != nil {
		return err
	}
	if status == 0 {
		return nil
	}
	var n uint32
	if err := binary.Read(s.r, binary.LittleEndian, &n); err != nil {
		return err
	}
	if n > maxErrorMessage {
		return fmt.Errorf("worker reported status %d with an oversized message", status)
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(s.r, msg); err != nil {
		return err
	}
	return fmt.Errorf("worker reported status %d: %s", status, msg)
}

func (s *streamNetwork) Close() error { return nil }

type processNetwork struct {
	*streamNetwork
	cmd   *exec.Cmd
	stdin io.Closer
	tail  *utils.TailBuffer
}

func (p *processNetwork) Infer(ctx context.Context, l []float32, size int) ([]float32, error) {
	ab, err := p.streamNetwork.Infer(ctx, l, size)
	if err != nil && p.tail.String() != "" {
		return nil, fmt.Errorf("%w\n%s", err, p.tail.String())
	}
	return ab, err
}

// Close ends the worker by closing its input and waits for it to exit.
func (p *processNetwork) Close() error {
	_ = p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("inference worker exited abnormally: %w", err)
	}
	return nil
}
