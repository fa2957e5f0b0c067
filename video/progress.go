package video

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/lepinkainen/vcolor/types"
)

// frameToken matches the current frame counter in an ffmpeg status line.
var frameToken = regexp.MustCompile(`frame=\s*(\d+)`)

// ParseFrameToken returns the frame number from an ffmpeg status line.
func ParseFrameToken(line string) (int, bool) {
	m := frameToken.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FrameScraper turns ffmpeg's diagnostic stream into progress events.
// It only reports values larger than the last one it reported, so duplicate
// or out-of-order status lines never move progress backwards.
type FrameScraper struct {
	mu       sync.Mutex
	progress types.Progress
	stage    types.Stage
	total    int
	last     int
}

// NewFrameScraper creates a scraper reporting stage progress against total (0 if unknown).
func NewFrameScraper(p types.Progress, stage types.Stage, total int) *FrameScraper {
	return &FrameScraper{progress: p, stage: stage, total: total}
}

// Line consumes one diagnostic line.
func (s *FrameScraper) Line(line string) {
	n, ok := ParseFrameToken(line)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= s.last {
		return
	}
	s.last = n
	types.Advanced(s.progress, s.stage, n, s.total)
}

// Last returns the highest frame number seen.
func (s *FrameScraper) Last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// tickProgress advances a stage by one every interval, stopping one short of
// total, until ctx is done. It stands in for a real progress signal when the
// tool does not provide one.
func tickProgress(ctx context.Context, p types.Progress, stage types.Stage, total int, interval time.Duration) {
	if total <= 1 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for current := 1; current < total; current++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			types.Advanced(p, stage, current, total)
		}
	}
}
