// Package pacman runs pacman operations and reads system package state.
package pacman

import (
	"fmt"
	"io"

	"github.com/johndauphine/pacfetch/internal/driver"
	"github.com/johndauphine/pacfetch/internal/logging"
)

type resizer interface {
	ForwardResize() (stop func())
}

// Runner executes privileged pacman commands under a pseudo-terminal.
type Runner struct {
	Binary string
	Start  driver.StartFunc
}

func (r *Runner) binary() string {
	if r.Binary == "" {
		return "pacman"
	}
	return r.Binary
}

func (r *Runner) start(args ...string) (driver.Child, error) {
	start := r.Start
	if start == nil {
		start = driver.StartPTY
	}
	return start(r.binary(), args...)
}

// SyncSystem refreshes the system databases with pacman -Sy, reporting
// progress snapshots to report (which may be nil). It requires root.
func (r *Runner) SyncSystem(report func(string)) error {
	if err := RequireRoot(); err != nil {
		return err
	}

	child, err := r.start("-Sy")
	if err != nil {
		return err
	}
	defer child.Close()

	if _, err := driver.Headless(child, report); err != nil {
		return err
	}
	if code := child.Wait(); code != 0 {
		return fmt.Errorf("%s -Sy exited with status %d", r.binary(), code)
	}
	return nil
}

// Upgrade runs pacman -Su interactively: filtered output goes to out and
// prompt answers are read from in. It requires root. pacman's own exit
// status is not treated as a failure since it already reported to the
// operator.
func (r *Runner) Upgrade(out io.Writer, in io.Reader) error {
	if err := RequireRoot(); err != nil {
		return err
	}

	child, err := r.start("-Su")
	if err != nil {
		return err
	}
	defer child.Close()

	if p, ok := child.(resizer); ok {
		stop := p.ForwardResize()
		defer stop()
	}

	d := driver.NewInteractive(out, in)
	d.ForwardInput = true
	if err := d.Run(child); err != nil {
		return err
	}
	code := child.Wait()
	logging.Debug("%s -Su exited with status %d (%s mode)", r.binary(), code, d.Mode())
	return nil
}
