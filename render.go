package main

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dpinela/lexhl/internal/buffer"
	"github.com/dpinela/lexhl/internal/highlight"
	"github.com/dpinela/lexhl/internal/termesc"
)

// A renderer formats highlighted text for a terminal.
type renderer struct {
	palette  *highlight.Palette
	color    bool // Whether to emit SGR escape codes at all
	number   bool // Whether to prefix each line with its number
	tabWidth int
}

// Pre-compute the SGR escape sequences used in render to avoid the expense of recomputing them repeatedly.
var (
	styleResetToWhite = termesc.SetGraphicAttributes(termesc.StyleNone, termesc.ColorWhite)
	styleReset        = termesc.SetGraphicAttributes(termesc.StyleNone)
	styleResetColor   = termesc.SetGraphicAttributes(termesc.ColorDefault, termesc.ColorDefaultBackground, termesc.StyleNotBold, termesc.StyleNotItalic, termesc.StyleNotUnderline)
)

// render appends the rendering of text, styled according to spans, to buf.
// Every line ends with a line break, and styles never carry over from one line to the next.
func (r *renderer) render(buf []byte, text string, spans []highlight.Span) []byte {
	if text == "" {
		return buf
	}
	spans = highlight.Coalesce(append([]highlight.Span(nil), spans...))
	b := buffer.FromString(text)
	n := b.LineCount()
	if strings.HasSuffix(text, "\n") {
		n-- // the empty line after the final line break
	}
	gutterWidth := 0
	if r.number {
		gutterWidth = runewidth.StringWidth(strconv.Itoa(n)) + 1
	}
	for y := 0; y < n; y++ {
		start := b.LineStart(y)
		line := strings.TrimSuffix(strings.TrimSuffix(b.Line(y), "\n"), "\r")
		if r.number {
			buf = r.appendGutter(buf, y+1, gutterWidth)
		}
		buf, spans = r.formatLine(buf, line, start, spans)
		buf = append(buf, '\n')
	}
	return buf
}

func (r *renderer) appendGutter(buf []byte, lineNum, width int) []byte {
	if r.color {
		buf = append(buf, styleResetToWhite...)
	}
	k := len(buf)
	buf = strconv.AppendInt(buf, int64(lineNum), 10)
	for i := len(buf) - k; i < width; i++ {
		buf = append(buf, ' ')
	}
	if r.color {
		buf = append(buf, styleReset...)
	}
	return buf
}

// formatLine appends line, which begins at byte offset start of the text, to buf.
// It returns the spans that may still apply to later lines.
func (r *renderer) formatLine(buf []byte, line string, start int, spans []highlight.Span) ([]byte, []highlight.Span) {
	end := start + len(line)
	col := 0
	for pos := start; pos < end; {
		for len(spans) > 0 && spans[0].End <= pos {
			spans = spans[1:]
		}
		segEnd, tag := end, highlight.Plain
		if len(spans) > 0 && spans[0].Start <= pos {
			segEnd, tag = min(spans[0].End, end), spans[0].Tag
		}
		style := r.palette.Style(tag)
		styled := r.color && !style.IsZero()
		if styled {
			buf = append(buf, makeSGRString(style)...)
		}
		buf, col = r.appendText(buf, line[pos-start:segEnd-start], col)
		if styled {
			buf = append(buf, styleResetColor...)
		}
		pos = segEnd
	}
	return buf, spans
}

// appendText appends s to buf, expanding tabs and making control characters visible.
// col is the display column at which s starts; appendText returns the one at which it ends.
func (r *renderer) appendText(buf []byte, s string, col int) ([]byte, int) {
	for len(s) > 0 {
		n := buffer.NextCharBoundary(s)
		c := s[:n]
		switch {
		case c == "\t":
			w := r.tabWidth - col%r.tabWidth
			buf = appendSpaces(buf, w)
			col += w
		case n == 1 && c[0] < ' ':
			buf = append(buf, string('\u2400'+rune(c[0]))...)
			col++
		case c == "\x7f":
			buf = append(buf, "\u2421"...)
			col++
		default:
			buf = append(buf, c...)
			col += runewidth.StringWidth(c)
		}
		s = s[n:]
	}
	return buf, col
}

func appendSpaces(b []byte, n int) []byte {
	for i := 0; i < n; i++ {
		b = append(b, ' ')
	}
	return b
}

func makeSGRString(s *highlight.Style) string {
	var params []termesc.GraphicAttribute
	// At the end of each highlighted region, these flags are all reset,
	// so at the start of this one we know that they're all off.
	if fg := s.Foreground; fg != nil {
		params = append(params, termesc.OutputColor(*fg))
	}
	if bg := s.Background; bg != nil {
		params = append(params, termesc.OutputColorBackground(*bg))
	}
	if s.Bold {
		params = append(params, termesc.StyleBold)
	}
	if s.Italic {
		params = append(params, termesc.StyleItalic)
	}
	if s.Underline {
		params = append(params, termesc.StyleUnderline)
	}
	return termesc.SetGraphicAttributes(params...)
}
