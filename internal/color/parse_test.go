package color

import (
	"testing"
)

var badColors = []string{"EFCA39", "#89ACB", "#", "", "#GG8000", "xtup", "#+12345", "purple"}

var goodColors = []struct {
	in  string
	out Color
}{
	{"#ABCDEF", Color{0xAB, 0xCD, 0xEF}},
	{"#8950be", Color{0x89, 0x50, 0xBE}},
	{"#000000", Color{}},
	{"#FFFFFF", Color{255, 255, 255}},
	{"green", Color{0, 0xcd, 0}},
	{"Blue", Color{0, 0, 0xee}},
}

func TestBadColors(t *testing.T) {
	for _, s := range badColors {
		if c, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) = %+v; want error", s, c)
		}
	}
}

func TestGoodColors(t *testing.T) {
	for _, tt := range goodColors {
		if c, err := Parse(tt.in); err != nil {
			t.Errorf("Parse(%q) got error, want %+v", tt.in, tt.out)
		} else if c != tt.out {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, c, tt.out)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	in := Color{0x12, 0x34, 0x56}
	b, err := in.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var out Color
	if err := out.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("after marshal/unmarshal got %v, want %v", out, in)
	}
}
