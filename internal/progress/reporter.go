package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/johndauphine/pacfetch/internal/logging"
)

// Update is a machine-readable progress event.
type Update struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Reporter receives human-readable progress messages.
type Reporter interface {
	// Report publishes a new message (may be throttled)
	Report(msg string)
	// Close cleans up any resources
	Close()
}

// New returns the reporter for the named mode: "spinner", "json" or "none".
func New(mode string, w io.Writer, initial string) Reporter {
	switch mode {
	case "spinner":
		return NewSpinner(w, initial)
	case "json":
		r := NewJSONReporter(w, 100*time.Millisecond)
		r.Report(initial)
		return r
	default:
		return NullReporter{}
	}
}

// JSONReporter writes one JSON object per message, for wrappers that
// consume progress programmatically.
type JSONReporter struct {
	writer     io.Writer
	mu         sync.Mutex
	interval   time.Duration
	lastReport time.Time
	last       string
	closed     bool
}

// NewJSONReporter creates a JSON reporter writing to writer (stderr when
// nil). interval is the minimum time between two emitted updates.
func NewJSONReporter(writer io.Writer, interval time.Duration) *JSONReporter {
	if writer == nil {
		writer = os.Stderr
	}
	return &JSONReporter{
		writer:   writer,
		interval: interval,
	}
}

// Report emits msg unless it repeats the previous message or arrives within
// the throttle interval.
func (r *JSONReporter) Report(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || msg == r.last {
		return
	}

	now := time.Now()
	if r.interval > 0 && !r.lastReport.IsZero() && now.Sub(r.lastReport) < r.interval {
		return
	}
	r.lastReport = now
	r.last = msg

	r.emit(Update{Timestamp: now.Format(time.RFC3339), Message: msg})
}

// ReportImmediate emits msg bypassing throttling.
func (r *JSONReporter) ReportImmediate(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.lastReport = time.Now()
	r.last = msg
	r.emit(Update{Timestamp: r.lastReport.Format(time.RFC3339), Message: msg})
}

func (r *JSONReporter) emit(u Update) {
	data, err := json.Marshal(u)
	if err != nil {
		logging.Warn("Failed to marshal progress update: %v", err)
		return
	}
	fmt.Fprintln(r.writer, string(data))
}

// Close marks the reporter as closed.
func (r *JSONReporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// NullReporter discards progress.
type NullReporter struct{}

func (NullReporter) Report(string) {}
func (NullReporter) Close()        {}
