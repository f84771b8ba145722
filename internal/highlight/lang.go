// Package highlight provides rule-driven syntax highlighting.
//
// The rules for each language (keywords and comment markers) come from a rules.Store.
// They are compiled into a single Pattern which a Scanner uses to split text into
// tagged spans.
package highlight

import (
	"path/filepath"
	"strings"

	"github.com/dpinela/lexhl/internal/color"
	"github.com/dpinela/lexhl/internal/rules"
)

// PlainText is the language identifier of files with no usable extension.
const PlainText = "plaintext"

// LanguageForFile returns the language identifier for a file with the given name:
// the part of its base name after the last dot, or PlainText if there is no such dot,
// or it is the first or last character.
func LanguageForFile(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return PlainText
	}
	return base[i+1:]
}

// A Document ties a text being edited to the language it is highlighted as.
// The language is fixed when the document is opened and only changes if it is reopened.
type Document struct {
	engine *Engine
	name   string
	lang   string
}

// NewDocument opens a document with the given file name, using the language derived from it.
func NewDocument(e *Engine, name string) *Document {
	return NewDocumentAs(e, name, "")
}

// NewDocumentAs is like NewDocument, but uses lang as the language unless it is empty.
func NewDocumentAs(e *Engine, name, lang string) *Document {
	d := &Document{engine: e}
	d.Reopen(name, lang)
	return d
}

// Reopen changes the document's file name and language. An empty lang means the
// language is derived from name.
func (d *Document) Reopen(name, lang string) {
	if lang == "" {
		lang = LanguageForFile(name)
	}
	d.name, d.lang = name, lang
}

// Name returns the document's file name.
func (d *Document) Name() string { return d.name }

// Language returns the document's language identifier.
func (d *Document) Language() string { return d.lang }

// Rules returns a copy of the rules the document is currently highlighted with.
func (d *Document) Rules() rules.RuleSet { return d.engine.Store().Snapshot(d.lang) }

// Tokenize returns a Scanner over the spans of text.
func (d *Document) Tokenize(text string) *Scanner { return d.engine.Tokenize(text, d.lang) }

// Highlight returns all the spans of text.
func (d *Document) Highlight(text string) []Span { return d.engine.Spans(text, d.lang) }

// AddKeyword adds a keyword to the document's language.
func (d *Document) AddKeyword(kw string) error { return d.engine.AddKeyword(d.lang, kw) }

// UpdateCommentMarkers replaces the comment markers of the document's language.
func (d *Document) UpdateCommentMarkers(m rules.CommentMarkers) error {
	return d.engine.UpdateCommentMarkers(d.lang, m)
}

// A Palette defines the styles used to render each kind of span.
// Typically, Default will be left blank, to use the output device's defaults.
type Palette struct {
	Default                                                    Style
	Keyword, Paren, Brace, Bracket, Semicolon, String, Comment Style
}

// Style returns a pointer to the palette entry for t. Plain and unknown tags use Default.
func (p *Palette) Style(t Tag) *Style {
	switch t {
	case Keyword:
		return &p.Keyword
	case Paren:
		return &p.Paren
	case Brace:
		return &p.Brace
	case Bracket:
		return &p.Bracket
	case Semicolon:
		return &p.Semicolon
	case String:
		return &p.String
	case Comment:
		return &p.Comment
	}
	return &p.Default
}

// A Style describes the appearance of a chunk of text.
// The zero Style means non-bold, non-underline text with the default colors
// for the output device.
type Style struct {
	Foreground, Background  *color.Color
	Bold, Italic, Underline bool
}

// IsZero reports whether s is the zero Style.
func (s Style) IsZero() bool {
	return s.Foreground == nil && s.Background == nil && !s.Bold && !s.Italic && !s.Underline
}
