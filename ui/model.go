package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/vcolor/types"
)

// Stage status markers
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// StageState tracks one stage of the run
type StageState struct {
	Stage   types.Stage
	Status  string
	Current int
	Total   int
	Err     error
}

// Percent returns the completed fraction, 0 when the total is unknown
func (s StageState) Percent() float64 {
	if s.Status == StatusCompleted {
		return 1
	}
	if s.Total <= 0 {
		return 0
	}
	return min(float64(s.Current)/float64(s.Total), 1)
}

// PipelineModel is the TUI model for a colorization run
type PipelineModel struct {
	stages []*StageState
	index  map[types.Stage]*StageState
	bars   map[types.Stage]progress.Model

	input  string
	output string
	model  string

	// cancel stops the run when the user quits
	cancel func()

	width    int
	quitting bool
	done     bool
	err      error

	Version string
}

// NewPipelineModel creates a TUI model showing the given stages in order
func NewPipelineModel(stages []types.Stage, input, output, model, version string, cancel func()) PipelineModel {
	m := PipelineModel{
		index:   make(map[types.Stage]*StageState, len(stages)),
		bars:    make(map[types.Stage]progress.Model, len(stages)),
		input:   input,
		output:  output,
		model:   model,
		cancel:  cancel,
		Version: version,
	}
	for _, s := range stages {
		st := &StageState{Stage: s, Status: StatusPending}
		m.stages = append(m.stages, st)
		m.index[s] = st
		m.bars[s] = progress.New(progress.WithDefaultGradient())
	}
	return m
}

// Stage returns the state of stage s
func (m PipelineModel) Stage(s types.Stage) (StageState, bool) {
	st, ok := m.index[s]
	if !ok {
		return StageState{}, false
	}
	return *st, true
}

// Done reports whether the run has returned, and its error
func (m PipelineModel) Done() (bool, error) {
	return m.done, m.err
}

// Init implements tea.Model
func (m PipelineModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m PipelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// The run cleans up its workspace before RunDoneMsg arrives
			if !m.quitting && m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		for s, bar := range m.bars {
			bar.Width = max(msg.Width-40, 10)
			m.bars[s] = bar
		}

	case StageEventMsg:
		st, ok := m.index[msg.Stage]
		if !ok {
			// Optional stages show up once they run
			st = &StageState{Stage: msg.Stage, Status: StatusPending}
			m.stages = append(m.stages, st)
			m.index[msg.Stage] = st
			m.bars[msg.Stage] = progress.New(progress.WithDefaultGradient())
		}
		switch msg.Kind {
		case types.EventStarted:
			st.Status = StatusProcessing
			st.Current = 0
			st.Total = msg.Total
		case types.EventAdvanced:
			st.Current = msg.Current
			if msg.Total > 0 {
				st.Total = msg.Total
			}
		case types.EventFinished:
			if msg.Err != nil {
				st.Status = StatusFailed
				st.Err = msg.Err
			} else {
				st.Status = StatusCompleted
				if st.Total > 0 {
					st.Current = st.Total
				}
			}
		}

	case RunDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model
func (m PipelineModel) View() string {
	header := HeaderStyle.Render(fmt.Sprintf("vcolor %s", m.Version))
	run := InfoStyle.Render(fmt.Sprintf("%s → %s (model %s)", m.input, m.output, m.model))

	rows := []string{"Stages:"}
	for _, st := range m.stages {
		rows = append(rows, m.stageRow(st))
	}

	footer := "Controls: [q] Cancel"
	switch {
	case m.done && m.err != nil:
		footer = ErrorStyle.Render("❌ Run failed")
	case m.done:
		footer = SuccessStyle.Render("✓ Done")
	case m.quitting:
		footer = ProcessingStyle.Render("Cancelling, cleaning up workspace...")
	}

	return strings.Join([]string{header, run, strings.Join(rows, "\n"), footer}, "\n\n") + "\n"
}

func (m PipelineModel) stageRow(st *StageState) string {
	label := StageLabelStyle.Render(string(st.Stage))
	count := fmt.Sprintf("%d", st.Current)
	if st.Total > 0 {
		count = fmt.Sprintf("%d/%d", st.Current, st.Total)
	}

	switch st.Status {
	case StatusPending:
		return PendingStyle.Render(fmt.Sprintf("⏳ %s", label))
	case StatusFailed:
		return ErrorStyle.Render(fmt.Sprintf("❌ %s %v", label, st.Err))
	case StatusCompleted:
		return fmt.Sprintf("✓  %s %s %s", label, m.bars[st.Stage].ViewAs(1), count)
	default:
		return fmt.Sprintf("🔄 %s %s %s", label, m.bars[st.Stage].ViewAs(st.Percent()), count)
	}
}
