package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrUntaggedMatch is reported when the pattern matches text that can't be attributed to
// exactly one tag. It indicates a bug in the pattern compiler, not a problem with the input.
var ErrUntaggedMatch = errors.New("pattern matched text without a unique tag")

// A Scanner splits a text into spans, producing them one at a time.
// The spans it returns are in increasing order, don't overlap, and together cover the whole
// text: stretches of text not matched by any rule come out as Plain spans. Empty Plain spans
// are never produced, except that an empty text yields exactly one, [0, 0).
//
// Scanning is lazy: each call to Scan does only the matching work needed to find the next
// span, so callers that stop early don't pay for the rest of the text.
//
// If the pattern misbehaves, the Scanner stops styling, returns the rest of the text as a
// single Plain span and reports the problem through Err.
type Scanner struct {
	text string
	p    *Pattern
	pos  int // End of the last span returned

	pending    Span // A match found while producing the filler before it
	hasPending bool

	span    Span
	emitted bool
	done    bool
	err     error
}

// NewScanner returns a Scanner that splits text according to p.
// A nil p produces the whole text as a single Plain span.
func NewScanner(text string, p *Pattern) *Scanner {
	return &Scanner{text: text, p: p}
}

// Scan advances to the next span, which will then be available through Span.
// It returns false when there are no more spans.
func (s *Scanner) Scan() bool {
	if s.hasPending {
		s.hasPending = false
		s.emit(s.pending)
		return true
	}
	if s.done {
		return false
	}
	if s.p != nil && s.err == nil && s.pos < len(s.text) {
		m, ok, err := s.next()
		if err != nil {
			s.err = err
		} else if ok {
			if m.Start > s.pos {
				s.pending, s.hasPending = m, true
				s.emit(Span{Start: s.pos, End: m.Start})
			} else {
				s.emit(m)
			}
			return true
		}
	}
	s.done = true
	if s.pos < len(s.text) || !s.emitted {
		s.emit(Span{Start: s.pos, End: len(s.text)})
		return true
	}
	return false
}

// Span returns the span found by the last call to Scan.
func (s *Scanner) Span() Span { return s.span }

// Err returns the error, if any, that made the Scanner stop styling the text.
// The spans already produced are valid regardless.
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) emit(sp Span) {
	s.span = sp
	s.pos = sp.End
	s.emitted = true
}

// next finds the next match at or after s.pos. It reports false if there are none.
// A keyword match that is part of a longer word doesn't count: the longest keyword that
// stands alone at that position is used instead, or failing that, any other alternative
// matching there. If none does, the search goes on from the following character.
func (s *Scanner) next() (Span, bool, error) {
	from := s.pos
	for {
		m, ok, err := s.find(from)
		if !ok || err != nil || m.Tag != Keyword || s.wholeWord(m) {
			return m, ok, err
		}
		if m, ok := s.matchAt(m.Start); ok {
			return m, true, nil
		}
		_, w := utf8.DecodeRuneInString(s.text[m.Start:])
		from = m.Start + w
	}
}

// find returns the first match of the pattern at or after from.
func (s *Scanner) find(from int) (Span, bool, error) {
	var (
		base = 0
		loc  []int
	)
	if from == 0 {
		loc = s.p.re.FindStringSubmatchIndex(s.text)
	} else {
		_, w := utf8.DecodeLastRuneInString(s.text[:from])
		base = from - w
		loc = s.p.resume.FindStringSubmatchIndex(s.text[base:])
	}
	if loc == nil {
		return Span{}, false, nil
	}
	m, err := taggedMatch(loc, s.p.tags, base)
	if err != nil {
		return Span{}, false, err
	}
	if m.Start < from || m.End <= m.Start {
		return Span{}, false, errors.Wrapf(ErrUntaggedMatch, "bad match %v at offset %d", m, from)
	}
	return m, true, nil
}

// matchAt returns the match that starts exactly at i, other than a keyword inside a word.
func (s *Scanner) matchAt(i int) (Span, bool) {
	for _, kw := range s.p.keywords {
		if m := (Span{Start: i, End: i + len(kw), Tag: Keyword}); strings.HasPrefix(s.text[i:], kw) && s.wholeWord(m) {
			return m, true
		}
	}
	if s.p.rest == nil {
		return Span{}, false
	}
	loc := s.p.rest.FindStringSubmatchIndex(s.text[i:])
	if loc == nil {
		return Span{}, false
	}
	m, err := taggedMatch(loc, s.p.restTags, i)
	if err != nil || m.End <= m.Start {
		return Span{}, false
	}
	return m, true
}

// wholeWord reports whether the keyword match m is not glued to letters around it.
func (s *Scanner) wholeWord(m Span) bool {
	if first, _ := utf8.DecodeRuneInString(s.text[m.Start:]); isWordRune(first) && m.Start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(s.text[:m.Start]); isWordRune(prev) {
			return false
		}
	}
	if last, _ := utf8.DecodeLastRuneInString(s.text[:m.End]); isWordRune(last) && m.End < len(s.text) {
		if next, _ := utf8.DecodeRuneInString(s.text[m.End:]); isWordRune(next) {
			return false
		}
	}
	return true
}

// taggedMatch returns the span of the single tagged group set in loc, offset by base.
func taggedMatch(loc []int, tags []Tag, base int) (Span, error) {
	m := Span{Start: -1}
	for i := 1; 2*i < len(loc) && i < len(tags); i++ {
		if loc[2*i] < 0 || tags[i] == Plain {
			continue
		}
		if m.Start >= 0 {
			return Span{}, errors.Wrapf(ErrUntaggedMatch, "both %s and %s matched at %d", m.Tag, tags[i], base+loc[2*i])
		}
		m = Span{Start: base + loc[2*i], End: base + loc[2*i+1], Tag: tags[i]}
	}
	if m.Start < 0 {
		return Span{}, errors.Wrapf(ErrUntaggedMatch, "no tag matched at %d", base+loc[0])
	}
	return m, nil
}

// Collect returns all the remaining spans produced by s, along with s.Err().
func Collect(s *Scanner) ([]Span, error) {
	var spans []Span
	for s.Scan() {
		spans = append(spans, s.Span())
	}
	return spans, s.Err()
}
