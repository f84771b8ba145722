package rules

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Storage is the raw text persistence used by a Store.
// Paths are slash-separated and relative to the storage's root.
type Storage interface {
	// LoadRuleText returns the content stored at path, or "" if it is absent or unreadable.
	LoadRuleText(path string) string
	// SaveRuleText stores content at path, creating intermediate containers as needed.
	SaveRuleText(path, content string) error
}

// ErrStorageUnavailable is matched (with errors.Is) by every error caused by a failed write
// to the underlying Storage.
var ErrStorageUnavailable = errors.New("rule storage unavailable")

// A StorageError records a failed write to the rule storage.
type StorageError struct {
	Op   string // The operation that failed, such as "persist keywords"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("rules: %s: %s: %v", e.Op, e.Path, e.Err)
}

// Cause returns the underlying storage error.
func (e *StorageError) Cause() error  { return e.Err }
func (e *StorageError) Unwrap() error { return e.Err }

// Is makes every StorageError match ErrStorageUnavailable.
func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// Names of the files holding each rule, within a language's namespace.
const (
	keywordsFile       = "keywords.txt"
	singleLineFile     = "comments/singleline.txt"
	multiLineStartFile = "comments/multiline-start.txt"
	multiLineEndFile   = "comments/multiline-end.txt"
)

// Paths returns the storage paths of all the rule files for lang.
func Paths(lang string) []string {
	return []string{
		path.Join(lang, keywordsFile),
		path.Join(lang, singleLineFile),
		path.Join(lang, multiLineStartFile),
		path.Join(lang, multiLineEndFile),
	}
}

// A Store keeps the rule sets for every language accessed so far, backed by a Storage.
// It is safe for concurrent use, so documents in the same process can share one Store;
// a change made through any of them is seen by all the others.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	sets     map[string]RuleSet
	versions map[string]uint64
	log      zerolog.Logger
}

// An Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger the Store reports storage activity to.
func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

// NewStore returns a Store backed by storage.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		sets:     make(map[string]RuleSet),
		versions: make(map[string]uint64),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current rule set for lang.
// It never fails: a language with no stored rules (or an identifier that can't name
// a rule namespace) yields an empty RuleSet.
func (s *Store) Snapshot(lang string) RuleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(lang).Clone()
}

// Version returns a counter that changes every time the rule set for lang does.
func (s *Store) Version(lang string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[lang]
}

// Reload discards the cached rule set for lang, so that the next access reads it
// from storage again. Use it when the stored rules were changed by someone else.
func (s *Store) Reload(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, lang)
	s.versions[lang]++
	s.log.Debug().Str("lang", lang).Uint64("version", s.versions[lang]).Msg("rules reloaded")
}

// SnapshotVersion is like Snapshot, but also returns the version of the rule set it copied.
func (s *Store) SnapshotVersion(lang string) (RuleSet, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(lang).Clone(), s.versions[lang]
}

// AddKeyword adds kw to the keyword set for lang and persists the result.
// It reports whether the set changed: adding the empty string or a keyword that is
// already present (compared case-sensitively) does nothing and touches no storage.
func (s *Store) AddKeyword(lang, kw string) (bool, error) {
	if kw == "" {
		return false, nil
	}
	if !validLanguage(lang) {
		return false, errors.Wrapf(ErrInvalidLanguage, "%q", lang)
	}
	if err := ValidKeyword(kw); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.get(lang)
	if rs.HasKeyword(kw) {
		return false, nil
	}
	if err := s.persistKeywords(lang, rs.WithKeyword(kw).Keywords); err != nil {
		return false, err
	}
	return true, nil
}

// PersistKeywords replaces the keyword set for lang and writes it to storage.
// Duplicate and empty keywords are dropped. If the write fails, the stored rules are
// left unchanged and the returned error matches ErrStorageUnavailable.
func (s *Store) PersistKeywords(lang string, keywords []string) error {
	if !validLanguage(lang) {
		return errors.Wrapf(ErrInvalidLanguage, "%q", lang)
	}
	for _, kw := range keywords {
		if err := ValidKeyword(kw); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistKeywords(lang, keywords)
}

// persistKeywords writes keywords as the keyword set for lang. s.mu must be held.
func (s *Store) persistKeywords(lang string, keywords []string) error {
	blob := EncodeKeywords(keywords)
	keywords = DecodeKeywords(blob)
	rs := s.get(lang)
	p := path.Join(lang, keywordsFile)
	if err := s.storage.SaveRuleText(p, blob); err != nil {
		s.log.Warn().Err(err).Str("lang", lang).Str("path", p).Msg("failed to save keywords")
		return &StorageError{Op: "persist keywords", Path: p, Err: err}
	}
	rs.Keywords = keywords
	s.commit(lang, rs)
	return nil
}

// PersistCommentMarkers replaces the comment markers for lang and writes them to storage.
// Each marker is stored separately and only the ones that changed are written.
// Markers ending in a line break are rejected with an error matching ErrInvalidMarker.
// If a write fails, markers already written are restored on a best-effort basis, the
// stored rules are left unchanged and the returned error matches ErrStorageUnavailable.
func (s *Store) PersistCommentMarkers(lang string, m CommentMarkers) error {
	if !validLanguage(lang) {
		return errors.Wrapf(ErrInvalidLanguage, "%q", lang)
	}
	for _, marker := range []string{m.SingleLine, m.MultiLineStart, m.MultiLineEnd} {
		if err := ValidMarker(marker); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.get(lang)
	old := rs.Comments
	writes := []struct {
		file     string
		old, new string
	}{
		{singleLineFile, old.SingleLine, m.SingleLine},
		{multiLineStartFile, old.MultiLineStart, m.MultiLineStart},
		{multiLineEndFile, old.MultiLineEnd, m.MultiLineEnd},
	}
	for i, w := range writes {
		if w.old == w.new {
			continue
		}
		p := path.Join(lang, w.file)
		if err := s.storage.SaveRuleText(p, w.new); err != nil {
			s.log.Warn().Err(err).Str("lang", lang).Str("path", p).Msg("failed to save comment marker")
			for _, done := range writes[:i] {
				if done.old == done.new {
					continue
				}
				if rerr := s.storage.SaveRuleText(path.Join(lang, done.file), done.old); rerr != nil {
					s.log.Error().Err(rerr).Str("lang", lang).Str("path", path.Join(lang, done.file)).Msg("failed to restore comment marker")
				}
			}
			return &StorageError{Op: "persist comment markers", Path: p, Err: err}
		}
	}
	rs.Comments = m
	s.commit(lang, rs)
	return nil
}

// get returns the cached rule set for lang, loading it first if necessary.
// s.mu must be held.
func (s *Store) get(lang string) RuleSet {
	if rs, ok := s.sets[lang]; ok {
		return rs
	}
	var rs RuleSet
	if validLanguage(lang) {
		rs = s.load(lang)
	}
	s.sets[lang] = rs
	return rs
}

func (s *Store) load(lang string) RuleSet {
	rs := RuleSet{
		Keywords: DecodeKeywords(s.storage.LoadRuleText(path.Join(lang, keywordsFile))),
		Comments: CommentMarkers{
			SingleLine:     s.loadMarker(lang, singleLineFile),
			MultiLineStart: s.loadMarker(lang, multiLineStartFile),
			MultiLineEnd:   s.loadMarker(lang, multiLineEndFile),
		},
	}
	s.log.Debug().Str("lang", lang).Int("keywords", len(rs.Keywords)).Msg("rules loaded")
	return rs
}

// loadMarker reads a comment marker. Text editors tend to add a final newline
// to files they save, so one is ignored if present.
func (s *Store) loadMarker(lang, file string) string {
	text := s.storage.LoadRuleText(path.Join(lang, file))
	text = strings.TrimSuffix(text, "\n")
	return strings.TrimSuffix(text, "\r")
}

func (s *Store) commit(lang string, rs RuleSet) {
	s.sets[lang] = rs
	s.versions[lang]++
	s.log.Debug().Str("lang", lang).Uint64("version", s.versions[lang]).Msg("rules updated")
}
