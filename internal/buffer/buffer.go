// Package buffer indexes the lines of a text, so that byte offsets into it can be
// translated to line and column positions and back.
package buffer

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/rivo/uniseg"
)

// Buffer holds a text split into lines. Each line keeps its trailing line break, if any,
// so the concatenation of all lines is the original text. A text ending in a line break
// has a final empty line.
// It implements the io.ReaderFrom interface.
type Buffer struct {
	lines  []string
	starts []int // starts[i] is the byte offset of lines[i] in the text
}

// FromString returns a Buffer holding text.
func FromString(text string) *Buffer {
	b := &Buffer{}
	b.ReadFrom(strings.NewReader(text))
	return b
}

// ReadFrom replaces the buffer's contents with the data read from r until EOF.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	b.lines, b.starts = nil, nil
	br := bufio.NewReader(r)
	for {
		var line string
		line, err = br.ReadString('\n')
		b.lines = append(b.lines, line)
		b.starts = append(b.starts, int(n))
		n += int64(len(line))
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			return
		}
	}
}

// String returns the buffer's full text.
func (b *Buffer) String() string { return strings.Join(b.lines, "") }

// Len returns the length of the text in bytes.
func (b *Buffer) Len() int {
	n := len(b.lines) - 1
	return b.starts[n] + len(b.lines[n])
}

// Line returns line i in the buffer.
func (b *Buffer) Line(i int) string {
	if i >= len(b.lines) {
		i = len(b.lines) - 1
	}
	return b.lines[i]
}

// LineStart returns the byte offset at which line i begins.
func (b *Buffer) LineStart(i int) int {
	if i >= len(b.starts) {
		return b.Len()
	}
	return b.starts[i]
}

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Point is a position in the text: Y is a 0-based line number and X a 0-based column,
// counted in grapheme clusters from the start of the line.
type Point struct{ X, Y int }

// LineAt returns the index of the line containing the byte at offset.
// Offsets past the end of the text belong to the last line.
func (b *Buffer) LineAt(offset int) int {
	return sort.Search(len(b.starts), func(i int) bool { return b.starts[i] > offset }) - 1
}

// Position returns the line and column of the byte at offset. An offset inside a
// grapheme cluster maps to the column of that cluster.
func (b *Buffer) Position(offset int) Point {
	if offset < 0 {
		offset = 0
	}
	y := b.LineAt(offset)
	line := b.lines[y]
	end := offset - b.starts[y]
	if end > len(line) {
		end = len(line)
	}
	x := 0
	for p := 0; ; x++ {
		n := NextCharBoundary(line[p:])
		if n == 0 || p+n > end {
			break
		}
		p += n
	}
	return Point{X: x, Y: y}
}

// NextCharBoundary returns the length in bytes of the first grapheme cluster in s.
func NextCharBoundary(s string) int {
	if len(s) == 0 {
		return 0
	}
	if len(s) == 1 || (s[0] < 0x80 && s[1] < 0x80 && s[0] != '\r') {
		return 1
	}
	c, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return len(c)
}
