package pipeline

import (
	"context"

	"github.com/lepinkainen/vcolor/types"
)

// Stream is a run in progress whose events can be consumed from a channel.
type Stream struct {
	events *types.ChannelProgress
	done   chan struct{}
	res    *Result
	err    error
}

// Stream starts a run in the background. Its events are published on
// Events as well as to p.Progress, and the channel is closed once the run
// has returned. Started and finished events wait for the subscriber, so
// Events must be drained.
func (p *Pipeline) Stream(ctx context.Context, opts Options, buffer int) *Stream {
	s := &Stream{
		events: types.NewChannelProgress(buffer),
		done:   make(chan struct{}),
	}

	run := *p
	next := p.Progress
	run.Progress = types.ProgressFunc(func(ev types.ProgressEvent) {
		if next != nil {
			next.Report(ev)
		}
		s.events.Report(ev)
	})

	go func() {
		defer close(s.done)
		s.res, s.err = run.Run(ctx, opts)
		s.events.Close()
	}()
	return s
}

// Events returns the run's progress events.
func (s *Stream) Events() <-chan types.ProgressEvent {
	return s.events.Events()
}

// Wait blocks until the run has returned and yields its outcome.
func (s *Stream) Wait() (*Result, error) {
	<-s.done
	return s.res, s.err
}
