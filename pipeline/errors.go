package pipeline

import (
	"errors"
	"fmt"

	"github.com/lepinkainen/vcolor/types"
	"github.com/lepinkainen/vcolor/video"
)

// StageError is a failure inside one pipeline stage. It aborts the run.
type StageError struct {
	Stage types.Stage
	RunID string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (run %s): %v", e.Stage, e.RunID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitCode maps a run error to a process exit status: 0 for nil, the failing
// subprocess's own status when one is in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var toolErr *video.ToolError
	if errors.As(err, &toolErr) && toolErr.ExitCode > 0 && toolErr.ExitCode < 256 {
		return toolErr.ExitCode
	}
	return 1
}
