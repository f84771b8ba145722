package highlight

import (
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/dpinela/lexhl/internal/rules"
)

// An Engine highlights text according to the rules kept in a rules.Store.
//
// Each Engine keeps its own cache of compiled patterns, one per language, and should be
// used by a single document at a time; it is not safe for concurrent use. Engines may
// share a Store: a rule change made through any of them is picked up by the others on
// their next call to Tokenize, because every change bumps the rule set's version and
// cached patterns are only used while their version is current.
type Engine struct {
	store *rules.Store
	cache *gocache.Cache
	log   zerolog.Logger
}

// An Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger the Engine reports compilation problems to.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// NewEngine returns an Engine that takes its rules from store.
func NewEngine(store *rules.Store, opts ...Option) *Engine {
	e := &Engine{store: store, cache: gocache.New(gocache.NoExpiration, 0), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the rule store e reads from.
func (e *Engine) Store() *rules.Store { return e.store }

// Pattern returns the compiled pattern for the current rules of lang, compiling it
// if the cached one is missing or out of date.
func (e *Engine) Pattern(lang string) (*Pattern, error) {
	v := e.store.Version(lang)
	if x, ok := e.cache.Get(lang); ok {
		if p, ok := x.(*Pattern); ok && p.version == v {
			return p, nil
		}
	}
	rs, v := e.store.SnapshotVersion(lang)
	p, err := Compile(rs)
	if err != nil {
		e.cache.Delete(lang)
		e.log.Error().Err(err).Str("lang", lang).Uint64("version", v).Msg("failed to compile rules")
		return nil, err
	}
	p.version = v
	e.cache.Set(lang, p, gocache.NoExpiration)
	e.log.Debug().Str("lang", lang).Uint64("version", v).Msg("compiled rules")
	return p, nil
}

// Invalidate drops the cached pattern for lang, forcing the next Tokenize call to recompile it.
func (e *Engine) Invalidate(lang string) { e.cache.Delete(lang) }

// Tokenize returns a Scanner that splits text into spans according to the rules for lang.
// If the rules can't be compiled, the Scanner produces unstyled output and reports the
// compilation error through its Err method.
func (e *Engine) Tokenize(text, lang string) *Scanner {
	p, err := e.Pattern(lang)
	s := NewScanner(text, p)
	s.err = err
	return s
}

// Spans returns all the spans of text, highlighted according to the rules for lang.
// Errors are logged and degrade the output to unstyled text; the result always covers
// the whole text.
func (e *Engine) Spans(text, lang string) []Span {
	spans, err := Collect(e.Tokenize(text, lang))
	if err != nil {
		e.log.Warn().Err(err).Str("lang", lang).Msg("highlighting degraded")
	}
	return spans
}

// AddKeyword adds kw to the keywords of lang and persists the change.
// Adding the empty string or a keyword that is already present does nothing.
// If the rules can't be saved they are left unchanged and the error is returned.
func (e *Engine) AddKeyword(lang, kw string) error {
	added, err := e.store.AddKeyword(lang, kw)
	if err != nil {
		return err
	}
	if added {
		e.Invalidate(lang)
	}
	return nil
}

// UpdateCommentMarkers replaces the comment markers of lang and persists them.
// An empty marker disables its comment form.
// If the rules can't be saved they are left unchanged and the error is returned.
func (e *Engine) UpdateCommentMarkers(lang string, m rules.CommentMarkers) error {
	if err := e.store.PersistCommentMarkers(lang, m); err != nil {
		return err
	}
	e.Invalidate(lang)
	return nil
}
