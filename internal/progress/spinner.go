package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const tickInterval = 80 * time.Millisecond

// Spinner is an indeterminate progress indicator with a changing message.
type Spinner struct {
	bar  *progressbar.ProgressBar
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewSpinner starts a spinner on w (stderr when nil) showing msg.
func NewSpinner(w io.Writer, msg string) *Spinner {
	if w == nil {
		w = os.Stderr
	}
	s := &Spinner{
		bar: progressbar.NewOptions64(
			-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(msg),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(tickInterval),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		),
		stop: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.tick()
	return s
}

func (s *Spinner) tick() {
	defer s.wg.Done()
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.bar.Add(1)
		case <-s.stop:
			return
		}
	}
}

// Report replaces the spinner message.
func (s *Spinner) Report(msg string) {
	s.bar.Describe(msg)
}

// Close stops the animation and clears the line.
func (s *Spinner) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.bar.Finish()
	})
}
