// Package pty runs a child process attached to a pseudo-terminal and exposes
// non-blocking access to its output.
package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/johndauphine/pacfetch/internal/logging"
)

const readSize = 1024

var (
	// ErrSpawn is returned when the child cannot be started.
	ErrSpawn = errors.New("failed to spawn process")

	// ErrWouldBlock reports that no output is available yet.
	ErrWouldBlock = errors.New("no data available")
)

// Process is a child process whose controlling terminal is a pty owned by
// the caller.
type Process struct {
	cmd  *exec.Cmd
	tty  *os.File
	quit chan struct{}

	chunks  chan []byte
	pending []byte
	readErr error

	done     chan struct{}
	exitCode int

	closeOnce sync.Once
}

// Start spawns name with args under a new pty. The pty inherits the size of
// the caller's terminal when stdout is one.
func Start(name string, args ...string) (*Process, error) {
	return StartCommand(exec.Command(name, args...))
}

// StartCommand spawns an already configured command under a new pty.
func StartCommand(cmd *exec.Cmd) (*Process, error) {
	var (
		tty *os.File
		err error
	)
	if size := callerSize(); size != nil {
		tty, err = pty.StartWithSize(cmd, size)
	} else {
		tty, err = pty.Start(cmd)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, cmd.Path, err)
	}

	p := &Process{
		cmd:    cmd,
		tty:    tty,
		quit:   make(chan struct{}),
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go p.readLoop()
	go p.waitLoop()

	logging.Debug("spawned %s (pid %d)", cmd.String(), cmd.Process.Pid)
	return p, nil
}

func callerSize() *pty.Winsize {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil || cols <= 0 || rows <= 0 {
		return nil
	}
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
}

func (p *Process) readLoop() {
	defer close(p.chunks)
	for {
		buf := make([]byte, readSize)
		n, err := p.tty.Read(buf)
		if n > 0 {
			select {
			case p.chunks <- buf[:n]:
			case <-p.quit:
				p.readErr = io.EOF
				return
			}
		}
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			// Linux reports EIO on the master once every slave fd is closed.
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
				p.readErr = io.EOF
			} else {
				p.readErr = err
			}
			return
		}
	}
}

func (p *Process) waitLoop() {
	err := p.cmd.Wait()
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	} else if err != nil {
		p.exitCode = -1
	}
	close(p.done)
}

// IsAlive reports whether the child has not yet exited.
func (p *Process) IsAlive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// TryRead copies available output into buf without blocking. It returns
// ErrWouldBlock when nothing is pending and io.EOF once the pty is drained
// after the child has gone away.
func (p *Process) TryRead(buf []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(buf, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	select {
	case chunk, ok := <-p.chunks:
		if !ok {
			return 0, p.readErr
		}
		n := copy(buf, chunk)
		p.pending = chunk[n:]
		return n, nil
	default:
		return 0, ErrWouldBlock
	}
}

// Write sends bytes to the child's terminal input.
func (p *Process) Write(b []byte) (int, error) {
	return p.tty.Write(b)
}

// Resize copies the caller's current terminal size to the pty.
func (p *Process) Resize() error {
	size := callerSize()
	if size == nil {
		return nil
	}
	return pty.Setsize(p.tty, size)
}

// ForwardResize propagates window size changes to the child until the
// returned function is called.
func (p *Process) ForwardResize() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				if err := p.Resize(); err != nil {
					logging.Debug("resize pty: %v", err)
				}
			case <-quit:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}

// Wait blocks until the child exits and returns its exit code.
func (p *Process) Wait() int {
	<-p.done
	return p.exitCode
}

// ExitCode returns the exit code of a finished child, or -1 while it runs.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.exitCode
	default:
		return -1
	}
}

// Close kills the child if it is still running and releases the pty.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.IsAlive() && p.cmd.Process != nil {
			p.cmd.Process.Kill()
		}
		<-p.done
		close(p.quit)
		err = p.tty.Close()
	})
	return err
}
