package buffer

import (
	"strings"
	"testing"
)

var multilineTestData = `Lorem ipsum dolor sit amet,
consecutur adipiscing elit.
Sed id volutpat purus.`

func bufFromData(t *testing.T, data string) *Buffer {
	t.Helper()
	buf := &Buffer{}
	if _, err := buf.ReadFrom(strings.NewReader(data)); err != nil {
		t.Fatal(err)
	}
	return buf
}

func testRoundTrip(t *testing.T, data string) {
	buf := bufFromData(t, data)
	if s := buf.String(); data != s {
		t.Errorf("String() = %q, want %q", s, data)
	}
	if buf.Len() != len(data) {
		t.Errorf("Len() = %d, want %d", buf.Len(), len(data))
	}
}

func TestRoundTrip(t *testing.T)          { testRoundTrip(t, "Lorem ipsum dolor sit amet") }
func TestRoundTripMultiline(t *testing.T) { testRoundTrip(t, multilineTestData) }
func TestRoundTripEmpty(t *testing.T)     { testRoundTrip(t, "") }
func TestRoundTripCRLF(t *testing.T)      { testRoundTrip(t, "a\r\nb\r\n") }

func TestLines(t *testing.T) {
	buf := bufFromData(t, multilineTestData)
	want := []string{"Lorem ipsum dolor sit amet,\n", "consecutur adipiscing elit.\n", "Sed id volutpat purus."}
	if n := buf.LineCount(); n != len(want) {
		t.Fatalf("LineCount() = %d, want %d", n, len(want))
	}
	for i, line := range want {
		if l := buf.Line(i); l != line {
			t.Errorf("Line(%d) = %q, want %q", i, l, line)
		}
	}
	if s := buf.LineStart(1); s != 28 {
		t.Errorf("LineStart(1) = %d, want 28", s)
	}
}

func TestTrailingLineBreak(t *testing.T) {
	buf := FromString("a\nb\n")
	if n := buf.LineCount(); n != 3 {
		t.Fatalf("LineCount() = %d, want 3", n)
	}
	if l := buf.Line(2); l != "" {
		t.Errorf("Line(2) = %q, want empty", l)
	}
	if s := buf.LineStart(2); s != 4 {
		t.Errorf("LineStart(2) = %d, want 4", s)
	}
	if l := buf.Line(99); l != "" {
		t.Errorf("Line(99) = %q, want the last line", l)
	}
}

func TestEmpty(t *testing.T) {
	buf := FromString("")
	if buf.LineCount() != 1 || buf.Len() != 0 {
		t.Errorf("empty buffer has %d lines of total length %d, want 1 line of length 0", buf.LineCount(), buf.Len())
	}
	if p := buf.Position(0); p != (Point{}) {
		t.Errorf("Position(0) = %v, want (0, 0)", p)
	}
}

var positionTests = []struct {
	text   string
	offset int
	want   Point
}{
	{"abc\ndef", 0, Point{0, 0}},
	{"abc\ndef", 2, Point{2, 0}},
	{"abc\ndef", 3, Point{3, 0}},
	{"abc\ndef", 4, Point{0, 1}},
	{"abc\ndef", 7, Point{3, 1}},
	{"abc\ndef", 100, Point{3, 1}},
	{"abc\n", 4, Point{0, 1}},
	{"\u00fcber x", 2, Point{1, 0}},
	{"\u00fcber x", 1, Point{0, 0}},
	{"e\u0301tude", 3, Point{1, 0}},
	{"e\u0301tude", 1, Point{0, 0}},
	{"\u00e9tude", 3, Point{2, 0}},
	{"🇵🇹 flag", 8, Point{1, 0}},
	{"a\r\nb", 3, Point{0, 1}},
	{"a\r\nb", 2, Point{1, 0}},
}

func TestPosition(t *testing.T) {
	for _, tt := range positionTests {
		if got := FromString(tt.text).Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) in %q = %v, want %v", tt.offset, tt.text, got, tt.want)
		}
	}
}

func TestPositionIsMonotonic(t *testing.T) {
	const text = "fn main() {\n\tlet s = \"\u00f1and\u00fa\";\n}\n"
	buf := FromString(text)
	prev := Point{}
	for i := 0; i <= len(text); i++ {
		p := buf.Position(i)
		if p.Y < prev.Y || (p.Y == prev.Y && p.X < prev.X) {
			t.Errorf("Position(%d) = %v, which comes before Position(%d) = %v", i, p, i-1, prev)
		}
		prev = p
	}
}
