package sweep

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Progress is one progress update of a running sweep.
type Progress struct {
	Current   int
	Total     int
	Message   string
	Timestamp time.Time
}

// ProgressReporter forwards throttled progress updates to a sink. 100%
// completion always bypasses the throttle. Safe for concurrent use.
type ProgressReporter struct {
	mu          sync.Mutex
	sink        func(Progress)
	lastReport  time.Time
	minInterval time.Duration
}

// NewProgressReporter creates a reporter throttled to one update per 100ms.
func NewProgressReporter(sink func(Progress)) *ProgressReporter {
	return &ProgressReporter{
		sink:        sink,
		minInterval: 100 * time.Millisecond,
	}
}

// Report emits a progress update unless one was emitted too recently.
func (pr *ProgressReporter) Report(current, total int, message string) {
	if pr == nil || pr.sink == nil {
		return
	}

	pr.mu.Lock()
	now := time.Now()
	if now.Sub(pr.lastReport) < pr.minInterval && current != total {
		pr.mu.Unlock()
		return
	}
	pr.lastReport = now
	pr.mu.Unlock()

	pr.sink(Progress{Current: current, Total: total, Message: message, Timestamp: now})
}

// LogProgress returns a sink writing updates to log at info level.
func LogProgress(log zerolog.Logger) func(Progress) {
	return func(p Progress) {
		log.Info().
			Int("current", p.Current).
			Int("total", p.Total).
			Msg(p.Message)
	}
}
