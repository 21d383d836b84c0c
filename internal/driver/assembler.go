package driver

import "strings"

// CarriageReturn selects how '\r' is treated by a LineAssembler.
type CarriageReturn int

const (
	// CRIgnore drops '\r' so that "\r\n" and "\n" end lines alike.
	CRIgnore CarriageReturn = iota
	// CRBreak ends the line on '\r', which splits redrawn progress bars
	// into one line per redraw.
	CRBreak
)

// LineAssembler accumulates characters into lines and exposes the
// unterminated remainder for prompt matching.
type LineAssembler struct {
	buf strings.Builder
	cr  CarriageReturn
}

// NewLineAssembler returns an empty assembler.
func NewLineAssembler(cr CarriageReturn) *LineAssembler {
	return &LineAssembler{cr: cr}
}

// Feed appends r. When r terminates a line the line (possibly empty) is
// returned with ok set and the buffer is cleared.
func (a *LineAssembler) Feed(r rune) (line string, ok bool) {
	switch {
	case r == '\n', r == '\r' && a.cr == CRBreak:
		line = a.buf.String()
		a.buf.Reset()
		return line, true
	case r == '\r':
		return "", false
	}
	a.buf.WriteRune(r)
	return "", false
}

// Partial returns the current unterminated line.
func (a *LineAssembler) Partial() string {
	return a.buf.String()
}

// Reset discards the current unterminated line.
func (a *LineAssembler) Reset() {
	a.buf.Reset()
}

// Flush returns and clears any non-empty unterminated line.
func (a *LineAssembler) Flush() (string, bool) {
	if a.buf.Len() == 0 {
		return "", false
	}
	line := a.buf.String()
	a.buf.Reset()
	return line, true
}
