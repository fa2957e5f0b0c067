package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/vcolor/types"
)

// TeaReporter forwards progress events to a running tea.Program
type TeaReporter struct {
	program *tea.Program
}

// NewTeaReporter creates a reporter sending to p
func NewTeaReporter(p *tea.Program) *TeaReporter {
	return &TeaReporter{program: p}
}

func (r *TeaReporter) Report(ev types.ProgressEvent) {
	r.program.Send(StageEventMsg(ev))
}
