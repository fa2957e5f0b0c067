package ui

import "github.com/lepinkainen/vcolor/types"

// TUI message types for pipeline communication
type StageEventMsg types.ProgressEvent

type RunDoneMsg struct {
	Err error
}
