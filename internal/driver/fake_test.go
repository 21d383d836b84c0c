package driver

import (
	"errors"
	"io"
	"sync"

	"github.com/johndauphine/pacfetch/internal/pty"
)

// step is one scripted TryRead result. A nil data with nil err means
// "would block".
type step struct {
	data []byte
	err  error
}

// fakeProcess replays a script of reads and records writes. Once the
// script is exhausted the process is dead and reads return io.EOF.
type fakeProcess struct {
	mu      sync.Mutex
	script  []step
	written []byte
	// deadAfter marks the process dead once this many steps remain.
	deadAfter int
	// hangOnExit keeps returning ErrWouldBlock instead of io.EOF.
	hangOnExit bool
}

func chunks(parts ...string) []step {
	s := make([]step, 0, len(parts))
	for _, p := range parts {
		s = append(s, step{data: []byte(p)})
	}
	return s
}

func (f *fakeProcess) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.script) > f.deadAfter
}

func (f *fakeProcess) TryRead(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.script) == 0 {
		if f.hangOnExit {
			return 0, pty.ErrWouldBlock
		}
		return 0, io.EOF
	}
	s := f.script[0]
	f.script = f.script[1:]
	if s.err != nil {
		return 0, s.err
	}
	if s.data == nil {
		return 0, pty.ErrWouldBlock
	}
	n := copy(buf, s.data)
	if n < len(s.data) {
		f.script = append([]step{{data: s.data[n:]}}, f.script...)
	}
	return n, nil
}

func (f *fakeProcess) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, b...)
	return len(b), nil
}

func (f *fakeProcess) Written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.written)
}

var errBroken = errors.New("input/output error")
