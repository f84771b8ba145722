package highlight

import "fmt"

// A Tag classifies a span of text. The zero Tag, Plain, means the span is not
// styled at all.
type Tag uint8

// The tags a span can carry, in the order their rules are tried at each position.
const (
	Plain Tag = iota
	Keyword
	Paren
	Brace
	Bracket
	Semicolon
	String
	Comment

	numTags = iota
)

var tagNames = [numTags]string{
	Plain:     "plain",
	Keyword:   "keyword",
	Paren:     "paren",
	Brace:     "brace",
	Bracket:   "bracket",
	Semicolon: "semicolon",
	String:    "string",
	Comment:   "comment",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", t)
}

// Tags returns all the tags other than Plain, in precedence order.
func Tags() []Tag {
	return []Tag{Keyword, Paren, Brace, Bracket, Semicolon, String, Comment}
}

// tagNamed returns the tag whose String is name, or Plain if there is none.
func tagNamed(name string) Tag {
	for t, n := range tagNames {
		if n == name {
			return Tag(t)
		}
	}
	return Plain
}

// A Span is the half-open range [Start, End) of a text, with the tag it is styled with.
// Offsets are measured in bytes.
type Span struct {
	Start, End int
	Tag        Tag
}

// Len returns the number of bytes in s.
func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)%s", s.Start, s.End, s.Tag) }

// Coalesce merges adjacent spans that carry the same tag, modifying spans in place.
// It returns the shortened slice.
func Coalesce(spans []Span) []Span {
	out := spans[:0]
	for _, s := range spans {
		if n := len(out); n != 0 && out[n-1].Tag == s.Tag && out[n-1].End == s.Start {
			out[n-1].End = s.End
			continue
		}
		out = append(out, s)
	}
	return out
}
