package types

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recorder) Report(ev ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestMonotonicDropsRegressions(t *testing.T) {
	rec := &recorder{}
	p := Monotonic(rec)

	Started(p, StageExtract, 10)
	for _, n := range []int{1, 3, 3, 2, 5, 0, 7} {
		Advanced(p, StageExtract, n, 10)
	}
	Finished(p, StageExtract, nil)

	var got []int
	for _, ev := range rec.events {
		if ev.Kind == EventAdvanced {
			got = append(got, ev.Current)
		}
	}
	want := []int{1, 3, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
	if rec.events[0].Kind != EventStarted || rec.events[len(rec.events)-1].Kind != EventFinished {
		t.Errorf("Expected started and finished events to pass through, got %v", rec.events)
	}
}

func TestMonotonicTracksStagesIndependently(t *testing.T) {
	rec := &recorder{}
	p := Monotonic(rec)

	Advanced(p, StageExtract, 5, 0)
	Advanced(p, StageTransform, 1, 0)
	Started(p, StageExtract, 0)
	Advanced(p, StageExtract, 1, 0)

	if len(rec.events) != 4 {
		t.Errorf("Expected 4 events, got %d: %v", len(rec.events), rec.events)
	}
}

func TestChannelProgress(t *testing.T) {
	cp := NewChannelProgress(2)

	Started(cp, StageRemux, 1)
	Advanced(cp, StageRemux, 1, 1)
	// Buffer is full: a further tick is dropped instead of blocking.
	Advanced(cp, StageRemux, 1, 1)

	first := <-cp.Events()
	if first.Kind != EventStarted || first.Stage != StageRemux {
		t.Errorf("Unexpected first event: %+v", first)
	}
	second := <-cp.Events()
	if second.Kind != EventAdvanced {
		t.Errorf("Unexpected second event: %+v", second)
	}

	failure := errors.New("boom")
	Finished(cp, StageRemux, failure)
	cp.Close()
	cp.Close()
	Finished(cp, StageRemux, nil)

	var rest []ProgressEvent
	for ev := range cp.Events() {
		rest = append(rest, ev)
	}
	if len(rest) != 1 || !errors.Is(rest[0].Err, failure) {
		t.Errorf("Expected only the finished event after close, got %+v", rest)
	}
}

func TestChannelProgressCloseReleasesStalledReport(t *testing.T) {
	cp := NewChannelProgress(1)
	Started(cp, StageAssemble, 1)

	// Nobody reads, so this finished event waits for room.
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		Finished(cp, StageAssemble, nil)
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		cp.Close()
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked behind a stalled report")
	}
	select {
	case <-reported:
	case <-time.After(5 * time.Second):
		t.Fatal("Report was not released by Close")
	}

	var rest []ProgressEvent
	for ev := range cp.Events() {
		rest = append(rest, ev)
	}
	if len(rest) == 0 || rest[0].Kind != EventStarted {
		t.Errorf("Expected the buffered started event to survive Close, got %+v", rest)
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventStarted:  "started",
		EventAdvanced: "advanced",
		EventFinished: "finished",
		EventKind(42): "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("EventKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
