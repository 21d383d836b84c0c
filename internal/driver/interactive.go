package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/johndauphine/pacfetch/internal/logging"
)

// Mode is the output handling state of an interactive session.
type Mode int

const (
	// LineFiltered prints complete lines that pass Keep.
	LineFiltered Mode = iota
	// RawPassthrough copies child output verbatim. It is entered when the
	// first prompt is answered and never left.
	RawPassthrough
)

func (m Mode) String() string {
	if m == RawPassthrough {
		return "raw"
	}
	return "filtered"
}

// styleReset is written when a session ends so no attribute leaks into the
// shell prompt.
const styleReset = "\x1b[0m"

// ErrInput reports that the operator's answer to a prompt could not be read.
var ErrInput = errors.New("reading prompt answer failed")

// Interactive drives an upgrade that may ask the operator questions.
type Interactive struct {
	out io.Writer
	in  *bufio.Reader

	// Filter hides noise lines while in LineFiltered mode.
	Filter bool
	// ForwardInput keeps copying operator input to the child once the
	// first prompt has been answered, so later prompts stay answerable.
	ForwardInput bool

	mode Mode
}

// NewInteractive returns a driver printing to out and reading answers
// from in.
func NewInteractive(out io.Writer, in io.Reader) *Interactive {
	return &Interactive{
		out:    out,
		in:     bufio.NewReader(in),
		Filter: true,
	}
}

// Mode returns the current output mode.
func (d *Interactive) Mode() Mode {
	return d.mode
}

// Run drives p until its output is exhausted.
func (d *Interactive) Run(p Process) error {
	lines := NewLineAssembler(CRIgnore)
	var dec decoder

	err := pump(p, func(chunk []byte) error {
		if d.mode == RawPassthrough {
			_, err := d.out.Write(chunk)
			return err
		}
		return d.filtered(p, chunk, lines, &dec)
	})

	if d.mode == LineFiltered {
		if line, ok := lines.Flush(); ok && d.keep(line) {
			fmt.Fprintln(d.out, line)
		}
	}
	io.WriteString(d.out, styleReset)
	return err
}

func (d *Interactive) filtered(p Process, chunk []byte, lines *LineAssembler, dec *decoder) error {
	var failed error
	dec.each(chunk, func(r rune, rest []byte) bool {
		if line, ok := lines.Feed(r); ok {
			if d.keep(line) {
				fmt.Fprintln(d.out, line)
			}
			return true
		}
		if r == '\r' || !IsPrompt(lines.Partial()) {
			return true
		}

		prompt := lines.Partial()
		lines.Reset()
		if err := d.answer(p, prompt); err != nil {
			failed = err
			return false
		}
		d.mode = RawPassthrough
		if len(rest) > 0 {
			if _, err := d.out.Write(rest); err != nil {
				failed = err
			}
		}
		return false
	})
	return failed
}

// answer shows prompt, reads one line from the operator and sends it to
// the child.
func (d *Interactive) answer(p Process, prompt string) error {
	if isInstallConfirmation(prompt) {
		io.WriteString(d.out, "\n")
	}
	io.WriteString(d.out, prompt)
	if f, ok := d.out.(interface{ Flush() error }); ok {
		f.Flush()
	}

	input, err := d.in.ReadString('\n')
	if err != nil && (input == "" || !errors.Is(err, io.EOF)) {
		return fmt.Errorf("%w: %v", ErrInput, err)
	}
	reply := strings.TrimSpace(input)
	logging.Debug("prompt %q answered with %q", strings.TrimSpace(prompt), reply)

	if _, err := p.Write([]byte(reply + "\n")); err != nil {
		return fmt.Errorf("%w: sending answer: %v", ErrStream, err)
	}
	if d.ForwardInput {
		go d.forward(p)
	}
	return nil
}

func (d *Interactive) forward(p Process) {
	if _, err := io.Copy(p, d.in); err != nil {
		logging.Debug("forwarding input: %v", err)
	}
}

func (d *Interactive) keep(line string) bool {
	return !d.Filter || Keep(line)
}
