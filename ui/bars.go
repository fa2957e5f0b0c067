package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/lepinkainen/vcolor/types"
)

// BarReporter draws one progress bar per stage, for terminals where the
// full TUI is not wanted
type BarReporter struct {
	mu   sync.Mutex
	w    io.Writer
	bars map[types.Stage]*progressbar.ProgressBar
}

// NewBarReporter creates a BarReporter writing to w
func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{w: w, bars: make(map[types.Stage]*progressbar.ProgressBar)}
}

func (r *BarReporter) Report(ev types.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case types.EventStarted:
		r.bars[ev.Stage] = r.newBar(ev.Stage, ev.Total)

	case types.EventAdvanced:
		bar, ok := r.bars[ev.Stage]
		if !ok {
			return
		}
		if ev.Total > 0 && bar.GetMax() != ev.Total {
			bar.ChangeMax(ev.Total)
		}
		_ = bar.Set(ev.Current)

	case types.EventFinished:
		bar, ok := r.bars[ev.Stage]
		if !ok {
			return
		}
		delete(r.bars, ev.Stage)
		if ev.Err != nil {
			fmt.Fprintln(r.w)
			fmt.Fprintln(r.w, ErrorStyle.Render(fmt.Sprintf("❌ %s failed", ev.Stage)))
			return
		}
		_ = bar.Finish()
	}
}

func (r *BarReporter) newBar(stage types.Stage, total int) *progressbar.ProgressBar {
	limit := total
	if limit <= 0 {
		// unknown total renders as a spinner
		limit = -1
	}
	return progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(fmt.Sprintf("%-10s", stage)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(r.w)
		}),
	)
}
