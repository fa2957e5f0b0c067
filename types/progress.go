package types

import "sync"

// Stage names one step of a colorization run.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageVerify    Stage = "verify"
	StageAssemble  Stage = "assemble"
	StageRemux     Stage = "remux"
	StageCleanup   Stage = "cleanup"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageExtract, StageTransform, StageVerify, StageAssemble, StageRemux, StageCleanup}

// EventKind tells what happened to a stage.
type EventKind int

const (
	EventStarted EventKind = iota
	EventAdvanced
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventAdvanced:
		return "advanced"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ProgressEvent is a single progress notification.
// Current is absolute, not a delta. Total is 0 when unknown.
type ProgressEvent struct {
	Stage   Stage
	Kind    EventKind
	Current int
	Total   int
	Err     error
}

// Progress receives progress notifications from the pipeline stages.
// Implementations must be safe for concurrent use.
type Progress interface {
	Report(ProgressEvent)
}

// ProgressFunc adapts a plain function to Progress.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) Report(ev ProgressEvent) { f(ev) }

// Discard drops every event.
var Discard Progress = ProgressFunc(func(ProgressEvent) {})

// Started, Advanced and Finished are shorthands for the common events.
func Started(p Progress, stage Stage, total int) {
	p.Report(ProgressEvent{Stage: stage, Kind: EventStarted, Total: total})
}

func Advanced(p Progress, stage Stage, current, total int) {
	p.Report(ProgressEvent{Stage: stage, Kind: EventAdvanced, Current: current, Total: total})
}

func Finished(p Progress, stage Stage, err error) {
	p.Report(ProgressEvent{Stage: stage, Kind: EventFinished, Err: err})
}

// ChannelProgress publishes events on a buffered channel so callers can
// subscribe instead of registering a callback. Progress ticks are dropped
// when the buffer is full; started and finished events wait for room until
// Close.
type ChannelProgress struct {
	mu       sync.Mutex
	ch       chan ProgressEvent
	done     chan struct{}
	inflight sync.WaitGroup
	closed   bool
}

// NewChannelProgress creates a ChannelProgress with the given buffer size.
func NewChannelProgress(buffer int) *ChannelProgress {
	return &ChannelProgress{
		ch:   make(chan ProgressEvent, buffer),
		done: make(chan struct{}),
	}
}

// Events returns the subscription channel. It is closed by Close.
func (c *ChannelProgress) Events() <-chan ProgressEvent {
	return c.ch
}

func (c *ChannelProgress) Report(ev ProgressEvent) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	if ev.Kind == EventAdvanced {
		select {
		case c.ch <- ev:
		default:
		}
		return
	}
	select {
	case c.ch <- ev:
	case <-c.done:
	}
}

// Close releases blocked reports and closes the subscription channel once
// they have returned. Later reports are ignored.
func (c *ChannelProgress) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.inflight.Wait()
	close(c.ch)
}

// monotonic filters advance events that would move a stage backwards.
type monotonic struct {
	mu   sync.Mutex
	next Progress
	last map[Stage]int
}

// Monotonic wraps p so that, per stage, only advance events with a value
// greater than the last forwarded one get through.
func Monotonic(p Progress) Progress {
	return &monotonic{next: p, last: make(map[Stage]int)}
}

func (m *monotonic) Report(ev ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev.Kind {
	case EventStarted:
		m.last[ev.Stage] = 0
	case EventAdvanced:
		if ev.Current <= m.last[ev.Stage] {
			return
		}
		m.last[ev.Stage] = ev.Current
	}
	// Forwarded under the lock so concurrent reporters cannot reorder events.
	m.next.Report(ev)
}
