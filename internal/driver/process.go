// Package driver runs pacman under a pseudo-terminal and turns its output
// into either sync progress (headless) or a filtered, prompt-aware stream
// (interactive).
package driver

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/johndauphine/pacfetch/internal/pty"
)

const (
	readSize     = 1024
	pollInterval = 10 * time.Millisecond

	// drainTimeout bounds how long output is still read after the child
	// exits. Helpers such as gpg-agent can keep the terminal open.
	drainTimeout = 250 * time.Millisecond
)

// ErrStream reports a non-transient failure reading the child's output.
var ErrStream = errors.New("reading process output failed")

// Process is the child side of a driving session.
type Process interface {
	IsAlive() bool
	TryRead(buf []byte) (int, error)
	Write(b []byte) (int, error)
}

// Child is a spawned process a driver can run to completion.
type Child interface {
	Process
	Wait() int
	Close() error
}

// StartFunc spawns a command under a pseudo-terminal.
type StartFunc func(name string, args ...string) (Child, error)

// StartPTY is the StartFunc backed by a real pseudo-terminal.
func StartPTY(name string, args ...string) (Child, error) {
	p, err := pty.Start(name, args...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// pump reads p until its output is exhausted, handing each chunk to fn.
// "No data yet" results are retried after pollInterval.
func pump(p Process, fn func([]byte) error) error {
	buf := make([]byte, readSize)
	var exitedAt time.Time

	for {
		n, err := p.TryRead(buf)
		switch {
		case err == nil:
			if n == 0 {
				continue
			}
			if err := fn(buf[:n]); err != nil {
				return err
			}
		case errors.Is(err, pty.ErrWouldBlock), errors.Is(err, syscall.EINTR), errors.Is(err, syscall.EAGAIN):
			if !p.IsAlive() {
				if exitedAt.IsZero() {
					exitedAt = time.Now()
				} else if time.Since(exitedAt) > drainTimeout {
					return nil
				}
			}
			time.Sleep(pollInterval)
		case errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("%w: %v", ErrStream, err)
		}
	}
}

// decoder splits byte chunks into runes, holding back an incomplete
// trailing sequence until the next chunk arrives.
type decoder struct {
	carry []byte
}

// each calls fn for every complete rune in chunk. rest is the undecoded
// input following r. Returning false stops decoding and drops the
// remainder, which the caller then owns through rest.
func (d *decoder) each(chunk []byte, fn func(r rune, rest []byte) bool) {
	data := chunk
	if len(d.carry) > 0 {
		data = append(d.carry, chunk...)
		d.carry = nil
	}
	for len(data) > 0 {
		if !utf8.FullRune(data) {
			d.carry = append([]byte(nil), data...)
			return
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if !fn(r, data) {
			return
		}
	}
}

// flush returns the held back bytes as text and clears them.
func (d *decoder) flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	d.carry = nil
	return string(utf8.RuneError)
}
