package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrWorkspaceExists is returned when a run's workspace paths are already taken.
var ErrWorkspaceExists = errors.New("workspace already exists")

// Workspace is the transient state owned by one run.
type Workspace struct {
	Root         string
	RunID        string
	RawDir       string
	ColorizedDir string
	SilentVideo  string
}

// NewWorkspace computes the workspace paths for runID under root. Nothing is
// created on disk; the stages create their own paths.
func NewWorkspace(root, runID string) *Workspace {
	return &Workspace{
		Root:         root,
		RunID:        runID,
		RawDir:       filepath.Join(root, "frames_"+runID),
		ColorizedDir: filepath.Join(root, "colorized_frames_"+runID),
		SilentVideo:  filepath.Join(root, "colorized_output_"+runID+".mp4"),
	}
}

// Paths lists everything Cleanup removes.
func (w *Workspace) Paths() []string {
	return []string{w.RawDir, w.ColorizedDir, w.SilentVideo}
}

// ensureFree fails if any workspace path exists. A leftover from an
// interrupted run with the same id must not be adopted or deleted.
func (w *Workspace) ensureFree() error {
	for _, p := range w.Paths() {
		if _, err := os.Lstat(p); err == nil {
			return fmt.Errorf("%w: %s", ErrWorkspaceExists, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot inspect workspace path %s: %w", p, err)
		}
	}
	return nil
}

// Cleanup removes every workspace path. All removals are attempted; the
// failures are returned together as a *CleanupError.
func (w *Workspace) Cleanup() error {
	var cerr CleanupError
	for _, p := range w.Paths() {
		if err := os.RemoveAll(p); err != nil {
			cerr.Paths = append(cerr.Paths, p)
			cerr.Errs = append(cerr.Errs, err)
		}
	}
	if len(cerr.Paths) == 0 {
		return nil
	}
	cerr.RunID = w.RunID
	return &cerr
}

// CleanupError lists workspace paths that could not be removed.
type CleanupError struct {
	RunID string
	Paths []string
	Errs  []error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup of run %s left %d path(s) behind: %s", e.RunID, len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *CleanupError) Unwrap() []error { return e.Errs }
