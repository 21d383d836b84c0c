package driver

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestInteractive_FiltersNoise(t *testing.T) {
	p := &fakeProcess{script: chunks(
		":: Starting full system upgrade...\r\n",
		"resolving dependencies...\r\nlooking for conflicting packages...\r\n\r\n",
		"Packages (1) linux-6.9.1-1\r\n\r\nTotal Download Size:   130.00 MiB\r\n",
		"there is nothing to do",
	)}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader(""))
	if err := d.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "Packages (1) linux-6.9.1-1\nthere is nothing to do\n" + styleReset
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if d.Mode() != LineFiltered {
		t.Errorf("Mode() = %v, want filtered", d.Mode())
	}
}

func TestInteractive_Unfiltered(t *testing.T) {
	p := &fakeProcess{script: chunks("resolving dependencies...\n\n")}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader(""))
	d.Filter = false
	if err := d.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := "resolving dependencies...\n\n" + styleReset; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestInteractive_PromptSwitchesToRawOnce(t *testing.T) {
	raw := "\x1b[?25l(1/1) upgrading linux [Y/n] \x1b[0K\r"
	p := &fakeProcess{script: chunks(
		"Packages (1) linux-6.9.1-1\r\n",
		":: Proceed with installation? [Y/n] ",
		raw,
		"Again? [Y/n] ",
	)}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader("  y \n"))

	if err := d.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.Mode() != RawPassthrough {
		t.Fatalf("Mode() = %v, want raw", d.Mode())
	}
	if got := p.Written(); got != "y\n" {
		t.Errorf("child received %q, want %q", got, "y\n")
	}

	want := "Packages (1) linux-6.9.1-1\n" +
		"\n:: Proceed with installation? [Y/n] " +
		raw + "Again? [Y/n] " + styleReset
	if out.String() != want {
		t.Errorf("output = %q\nwant     %q", out.String(), want)
	}
}

func TestInteractive_RemainderOfChunkIsRaw(t *testing.T) {
	p := &fakeProcess{script: chunks(":: Replace foo with extra/bar? [Y/n] \x1b[1mraw\r\nstuff")}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader("n\n"))
	if err := d.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := ":: Replace foo with extra/bar? [Y/n] \x1b[1mraw\r\nstuff" + styleReset
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if got := p.Written(); got != "n\n" {
		t.Errorf("child received %q", got)
	}
}

func TestInteractive_SelectionPrompt(t *testing.T) {
	p := &fakeProcess{script: chunks(":: There are 2 members in group [1-2]: ")}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader("2\n"))
	if err := d.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := p.Written(); got != "2\n" {
		t.Errorf("child received %q, want %q", got, "2\n")
	}
	if strings.HasPrefix(out.String(), "\n") {
		t.Errorf("blank line printed before a non-install prompt: %q", out.String())
	}
}

func TestInteractive_InputFailure(t *testing.T) {
	p := &fakeProcess{script: chunks(":: Proceed with installation? [Y/n] ")}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader(""))
	err := d.Run(p)
	if !errors.Is(err, ErrInput) {
		t.Fatalf("Run error = %v, want ErrInput", err)
	}
	if !strings.HasSuffix(out.String(), styleReset) {
		t.Errorf("style reset missing after failure: %q", out.String())
	}
	if p.Written() != "" {
		t.Errorf("child received %q after failed input", p.Written())
	}
}

func TestInteractive_ForwardsLaterInput(t *testing.T) {
	p := &fakeProcess{script: chunks(":: Proceed with installation? [Y/n] ")}
	var out bytes.Buffer
	d := NewInteractive(&out, strings.NewReader("y\nsecret\n"))
	d.ForwardInput = true
	if err := d.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.Written() != "y\nsecret\n" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Written(); got != "y\nsecret\n" {
		t.Errorf("child received %q, want %q", got, "y\nsecret\n")
	}
}

func TestInteractive_StreamFailure(t *testing.T) {
	p := &fakeProcess{script: []step{{data: []byte("partial")}, {err: errBroken}}}
	var out bytes.Buffer
	err := NewInteractive(&out, strings.NewReader("")).Run(p)
	if !errors.Is(err, ErrStream) {
		t.Fatalf("Run error = %v, want ErrStream", err)
	}
	if want := "partial\n" + styleReset; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
