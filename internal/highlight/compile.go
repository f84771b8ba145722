package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/dpinela/lexhl/internal/rules"
)

// ErrInvalidPattern is returned when a rule set can't be compiled into a pattern.
var ErrInvalidPattern = errors.New("invalid highlighting pattern")

// Sources of the fixed alternatives.
const (
	parenSource     = `[()]`
	braceSource     = `[{}]`
	bracketSource   = `[\[\]]`
	semicolonSource = `;`
	stringSource    = `"(?:[^"\\]|\\(?s:.))*?"`

	// noMatchSource is a character class that matches nothing; it stands in for
	// alternatives that are disabled by their rules.
	noMatchSource = `[^\x00-\x{10FFFF}]`
)

// A Pattern is a compiled rule set: a single regular expression with one named
// alternative per tag.
type Pattern struct {
	re *regexp.Regexp
	// resume is re preceded by one arbitrary character. Go's regexp package has no way
	// to start a search in the middle of a string, so scanning continues on a suffix
	// that keeps one character before the resume point; that character is only there
	// for \b to look at.
	resume *regexp.Regexp
	// tags maps subexpression indexes (the same in re and resume) to tags.
	tags []Tag
	// keywords holds the non-empty keywords, longest first.
	keywords []string
	// rest matches every alternative but keywords, anchored at the start of the text.
	// It is tried where a keyword match turns out to be part of a longer word.
	rest     *regexp.Regexp
	restTags []Tag
	rules    rules.RuleSet
	version  uint64
}

// Compile builds the Pattern for a rule set. Keywords and comment markers are matched
// literally: any regular expression syntax they contain has no special meaning.
//
// At each position, the alternatives are tried in the order of the Tag constants and
// the first that matches wins; an earlier match always beats a later one. No alternative
// can match an empty string.
func Compile(rs rules.RuleSet) (*Pattern, error) {
	kws := sortedKeywords(rs.Keywords)
	others := []alternative{
		{Paren, parenSource},
		{Brace, braceSource},
		{Bracket, bracketSource},
		{Semicolon, semicolonSource},
		{String, stringSource},
		{Comment, commentSource(rs.Comments)},
	}
	src := joinAlternatives(append([]alternative{{Keyword, keywordSource(kws)}}, others...))
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPattern, "%v", err)
	}
	resume, err := regexp.Compile(`(?s:.)(?:` + src + `)`)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPattern, "%v", err)
	}
	rest, err := regexp.Compile(`^(?:` + joinAlternatives(others) + `)`)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPattern, "%v", err)
	}
	return &Pattern{
		re:       re,
		resume:   resume,
		tags:     subexpTags(re),
		keywords: kws,
		rest:     rest,
		restTags: subexpTags(rest),
		rules:    rs.Clone(),
	}, nil
}

type alternative struct {
	tag Tag
	src string
}

func joinAlternatives(alts []alternative) string {
	var sb strings.Builder
	for i, a := range alts {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("(?P<" + a.tag.String() + ">" + a.src + ")")
	}
	return sb.String()
}

// subexpTags maps the subexpression indexes of re to the tags they are named after.
func subexpTags(re *regexp.Regexp) []Tag {
	names := re.SubexpNames()
	tags := make([]Tag, len(names))
	for i, name := range names {
		tags[i] = tagNamed(name)
	}
	return tags
}

// String returns the source of the regular expression p was compiled to.
func (p *Pattern) String() string { return p.re.String() }

// Rules returns a copy of the rule set p was compiled from.
func (p *Pattern) Rules() rules.RuleSet { return p.rules.Clone() }

// Version returns the version of the rule set p was compiled from, as reported by
// rules.Store.Version. Patterns built directly with Compile have version 0.
func (p *Pattern) Version() uint64 { return p.version }

// sortedKeywords returns the non-empty keywords, longest first and then in lexical order.
func sortedKeywords(keywords []string) []string {
	var kws []string
	for _, kw := range keywords {
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	sort.Slice(kws, func(i, j int) bool {
		if len(kws[i]) != len(kws[j]) {
			return len(kws[i]) > len(kws[j])
		}
		return kws[i] < kws[j]
	})
	return kws
}

// keywordSource matches any of the keywords, in the given order, with \b next to their
// ASCII word characters. \b only knows about ASCII, so the Scanner also checks each match
// against the surrounding letters with isWordRune.
func keywordSource(kws []string) string {
	if len(kws) == 0 {
		return noMatchSource
	}
	alts := make([]string, len(kws))
	for i, kw := range kws {
		first, _ := utf8.DecodeRuneInString(kw)
		last, _ := utf8.DecodeLastRuneInString(kw)
		var sb strings.Builder
		if isWordChar(first) {
			sb.WriteString(`\b`)
		}
		sb.WriteString(regexp.QuoteMeta(kw))
		if isWordChar(last) {
			sb.WriteString(`\b`)
		}
		alts[i] = sb.String()
	}
	return "(?:" + strings.Join(alts, "|") + ")"
}

// commentSource matches a single-line comment through the end of its line, or a
// multi-line comment through the first end marker following its start.
// A comment form with an empty marker is disabled. When both forms are enabled,
// the one with the longer start marker is tried first, so that a start marker that
// extends the other (such as "--[[" and "--") can be recognized.
func commentSource(m rules.CommentMarkers) string {
	var alts []string
	single := ""
	if m.SingleLine != "" {
		single = regexp.QuoteMeta(m.SingleLine) + `[^\n]*`
	}
	multi := ""
	if m.MultiLineStart != "" && m.MultiLineEnd != "" {
		multi = regexp.QuoteMeta(m.MultiLineStart) + `(?s:.*?)` + regexp.QuoteMeta(m.MultiLineEnd)
	}
	if len(m.MultiLineStart) > len(m.SingleLine) {
		alts = appendNonEmpty(alts, multi, single)
	} else {
		alts = appendNonEmpty(alts, single, multi)
	}
	if len(alts) == 0 {
		return noMatchSource
	}
	return strings.Join(alts, "|")
}

func appendNonEmpty(dst []string, srcs ...string) []string {
	for _, s := range srcs {
		if s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

// isWordChar reports whether r is a word character as understood by \b.
func isWordChar(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// isWordRune reports whether r can be part of a word: a letter, digit, combining mark
// or underscore in any script. Keywords starting or ending with one must not be
// next to another.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
