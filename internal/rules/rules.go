// Package rules stores the per-language lexical rules used by the highlighter:
// a keyword set and the markers that open and close comments.
//
// Rule sets are keyed by a language identifier, usually a file name extension.
// They are loaded lazily from a Storage collaborator and written back through it
// whenever they change.
package rules

import (
	"strings"

	"github.com/pkg/errors"
)

// CommentMarkers holds the literal strings that delimit comments.
// An empty string disables the corresponding comment form.
type CommentMarkers struct {
	SingleLine     string // Starts a comment that runs to the end of the line
	MultiLineStart string
	MultiLineEnd   string
}

// A RuleSet is the set of lexical rules for one language.
// The zero RuleSet is valid and classifies nothing as a keyword or comment.
type RuleSet struct {
	// Keywords holds unique keywords in the order they were first added.
	// The order has no effect on highlighting.
	Keywords []string
	Comments CommentMarkers
}

// HasKeyword reports whether kw is one of rs's keywords. The comparison is case-sensitive.
func (rs RuleSet) HasKeyword(kw string) bool {
	for _, k := range rs.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of rs.
func (rs RuleSet) Clone() RuleSet {
	out := rs
	if rs.Keywords != nil {
		out.Keywords = append([]string(nil), rs.Keywords...)
	}
	return out
}

// WithKeyword returns a copy of rs with kw added to its keyword set.
// If kw is already present or empty, the copy has the same keywords as rs.
func (rs RuleSet) WithKeyword(kw string) RuleSet {
	out := rs.Clone()
	if kw != "" && !rs.HasKeyword(kw) {
		out.Keywords = append(out.Keywords, kw)
	}
	return out
}

const keywordSeparator = ","

var (
	// ErrInvalidKeyword is returned when a keyword can't be stored in the keyword list.
	ErrInvalidKeyword = errors.New("invalid keyword")
	// ErrInvalidLanguage is returned when a language identifier can't name a rule namespace.
	ErrInvalidLanguage = errors.New("invalid language identifier")
	// ErrInvalidMarker is returned when a comment marker would not read back unchanged.
	ErrInvalidMarker = errors.New("invalid comment marker")
)

// ValidKeyword returns an error wrapping ErrInvalidKeyword if kw can't survive a round trip
// through the stored keyword list: that is, if it contains the list separator or a line break,
// or starts or ends with white space.
// The empty string is valid; adding it is a no-op.
func ValidKeyword(kw string) error {
	switch {
	case strings.Contains(kw, keywordSeparator):
		return errors.Wrapf(ErrInvalidKeyword, "%q contains %q", kw, keywordSeparator)
	case strings.ContainsAny(kw, "\r\n"):
		return errors.Wrapf(ErrInvalidKeyword, "%q contains a line break", kw)
	case strings.TrimSpace(kw) != kw:
		return errors.Wrapf(ErrInvalidKeyword, "%q has surrounding white space", kw)
	}
	return nil
}

// ValidMarker returns an error wrapping ErrInvalidMarker if m ends in a line break.
// Stored markers lose one trailing line break when read back, so such a marker would
// change after a reload.
func ValidMarker(m string) error {
	if strings.HasSuffix(m, "\n") || strings.HasSuffix(m, "\r") {
		return errors.Wrapf(ErrInvalidMarker, "%q ends in a line break", m)
	}
	return nil
}

// EncodeKeywords serializes a keyword list into its stored form.
func EncodeKeywords(keywords []string) string { return strings.Join(keywords, keywordSeparator) }

// DecodeKeywords parses a stored keyword list.
// Entries are trimmed of surrounding white space; empty entries and duplicates are dropped,
// so hand-edited lists such as "if, else,\nif" decode to [if else].
func DecodeKeywords(blob string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, kw := range strings.Split(blob, keywordSeparator) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// validLanguage reports whether lang can be used as a single path component.
func validLanguage(lang string) bool {
	switch lang {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(lang, "/\\\x00")
}
