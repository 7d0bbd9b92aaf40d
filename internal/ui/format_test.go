package ui

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"fits", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 5, "abcd…"},
		{"one", "abcdef", 1, "…"},
		{"zero", "abc", 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncate(tc.in, tc.max); got != tc.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	if got := pad("ab", 4); got != "ab  " {
		t.Fatalf("pad short = %q", got)
	}
	if got := pad("abcdef", 4); got != "abc…" {
		t.Fatalf("pad long = %q", got)
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("a\nb\t c"); got != "a b c" {
		t.Fatalf("oneLine = %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"":        "0.00",
		"1500":    "1500.00",
		"12.5":    "12.50",
		"n/a":     "n/a",
		"99.999":  "100.00",
		"-3.1415": "-3.14",
	}
	for in, want := range cases {
		if got := formatAmount(in); got != want {
			t.Fatalf("formatAmount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPadLines(t *testing.T) {
	if got := padLines("a\nb", 4); got != "a\nb\n\n" {
		t.Fatalf("padLines = %q", got)
	}
	if got := padLines("a\nb\nc", 2); got != "a\nb\nc" {
		t.Fatalf("padLines should not cut, got %q", got)
	}
}
