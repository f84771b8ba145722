// Package color parses the colors used in highlighting palettes.
package color

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Color is a 8-bit-per-channel RGB color.
type Color struct {
	R, G, B uint8
}

// String returns the hex color code for c.
func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Named colors, using the xterm default values for the 8 basic ANSI colors.
var names = map[string]Color{
	"black":   {0x00, 0x00, 0x00},
	"red":     {0xcd, 0x00, 0x00},
	"green":   {0x00, 0xcd, 0x00},
	"yellow":  {0xcd, 0xcd, 0x00},
	"blue":    {0x00, 0x00, 0xee},
	"magenta": {0xcd, 0x00, 0xcd},
	"cyan":    {0x00, 0xcd, 0xcd},
	"white":   {0xe5, 0xe5, 0xe5},
}

// Parse returns the RGB values corresponding to the color described by s.
// The string may be a CSS-style hex code (#ABCDEF) or the name of one of the
// 8 basic ANSI colors, in any case.
func Parse(s string) (Color, error) {
	if c, ok := names[strings.ToLower(s)]; ok {
		return c, nil
	}
	if !(len(s) == 7 && s[0] == '#') {
		return Color{}, fmt.Errorf("color: parse %q: not a valid hex string or color name", s)
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, errors.WithMessage(err, fmt.Sprintf("color: parse %q", s))
	}
	return Color{uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so colors can be read from
// configuration files.
func (c *Color) UnmarshalText(b []byte) (err error) {
	in, err := Parse(string(b))
	if err == nil {
		*c = in
	}
	return
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
