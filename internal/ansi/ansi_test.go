package ansi

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"sgr", "\x1b[1;33mhello\x1b[0m", "hello"},
		{"unterminated csi", "\x1b[31", ""},
		{"lone esc at end", "abc\x1b", "abc"},
		{"osc bel", "\x1b]0;title\ahi", "hi"},
		{"osc st", "\x1b]0;title\x1b\\hi", "hi"},
		{"unterminated osc", "a\x1b]0;never ends", "a"},
		{"two byte escape", "a\x1b=b", "ab"},
		{"charset designation", "a\x1b(Bb", "ab"},
		{"sgr0 with charset reset", "\x1b[m\x1b(Bdone", "done"},
		{"unterminated intermediates", "a\x1b(", "a"},
		{"esc before csi", "\x1b\x1b[0mok", "ok"},
		{"esc before newline", "a\x1b\nb", "a\nb"},
		{"dcs", "\x1bPq#0\x1b\\x", "x"},
		{"invalid utf8 kept", "\xff\x1b[0mok", "\xffok"},
		{"invalid utf8 between escapes", "\x1b[1m\xc3\x28\x1b[0m", "\xc3\x28"},
		{"cursor movement", "\x1b[2K\x1b[1Gcore 10%", "core 10%"},
		{"non-ascii kept", "\x1b[32m✓\x1b[0m 日本", "✓ 日本"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrip_Idempotent(t *testing.T) {
	in := "\x1b[1m:: \x1b[0mSynchronizing package databases..."
	once := Strip(in)
	if twice := Strip(once); twice != once {
		t.Errorf("Strip not idempotent: %q then %q", once, twice)
	}
}

func TestWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"hello", 5},
		{"\x1b[1;33mhello\x1b[0m", 5},
		{"日本", 4},
		{"\x1b[31m✓", 1},
		{"\x1b(Bab\x1b[m", 2},
	}
	for _, tt := range tests {
		if got := Width(tt.in); got != tt.want {
			t.Errorf("Width(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
