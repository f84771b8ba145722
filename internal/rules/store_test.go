package rules

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dpinela/lexhl/internal/ruletext"
)

func TestDecodeKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"if", []string{"if"}},
		{"if,else,while", []string{"if", "else", "while"}},
		{"if, else,\nif,,", []string{"if", "else"}},
		{" , ,", nil},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DecodeKeywords(tt.in), "DecodeKeywords(%q)", tt.in)
	}
}

func TestValidKeyword(t *testing.T) {
	for _, kw := range []string{"", "if", "c++", "#include", "über"} {
		require.NoError(t, ValidKeyword(kw), "ValidKeyword(%q)", kw)
	}
	for _, kw := range []string{"a,b", "a\nb", " a", "a\t"} {
		err := ValidKeyword(kw)
		require.True(t, errors.Is(err, ErrInvalidKeyword), "ValidKeyword(%q) = %v", kw, err)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	s := NewStore(&ruletext.MemStore{})
	rs := s.Snapshot("go")
	require.Empty(t, rs.Keywords)
	require.Equal(t, CommentMarkers{}, rs.Comments)
	require.Equal(t, uint64(0), s.Version("go"))
}

func TestSnapshotLoadsStorage(t *testing.T) {
	var m ruletext.MemStore
	require.NoError(t, m.SaveRuleText("java/keywords.txt", "public,class, static"))
	require.NoError(t, m.SaveRuleText("java/comments/singleline.txt", "//\n"))
	require.NoError(t, m.SaveRuleText("java/comments/multiline-start.txt", "/*"))
	require.NoError(t, m.SaveRuleText("java/comments/multiline-end.txt", "*/\r\n"))
	s := NewStore(&m)

	rs := s.Snapshot("java")
	require.Equal(t, []string{"public", "class", "static"}, rs.Keywords)
	require.Equal(t, CommentMarkers{"//", "/*", "*/"}, rs.Comments)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(&ruletext.MemStore{})
	require.NoError(t, s.PersistKeywords("go", []string{"func"}))
	rs := s.Snapshot("go")
	rs.Keywords[0] = "mutated"
	require.Equal(t, []string{"func"}, s.Snapshot("go").Keywords)
}

func TestPersistKeywords(t *testing.T) {
	var m ruletext.MemStore
	s := NewStore(&m)
	require.NoError(t, s.PersistKeywords("go", []string{"func", "var", "func", ""}))
	require.Equal(t, []string{"func", "var"}, s.Snapshot("go").Keywords)
	require.Equal(t, "func,var", m.LoadRuleText("go/keywords.txt"))
	require.Equal(t, uint64(1), s.Version("go"))

	// A fresh store over the same storage sees the persisted keywords.
	require.Equal(t, []string{"func", "var"}, NewStore(&m).Snapshot("go").Keywords)
}

func TestPersistRejectsBadInput(t *testing.T) {
	s := NewStore(&ruletext.MemStore{})
	err := s.PersistKeywords("go", []string{"a,b"})
	require.True(t, errors.Is(err, ErrInvalidKeyword))
	for _, lang := range []string{"", "..", "a/b"} {
		err = s.PersistKeywords(lang, []string{"x"})
		require.True(t, errors.Is(err, ErrInvalidLanguage), "PersistKeywords(%q) = %v", lang, err)
		err = s.PersistCommentMarkers(lang, CommentMarkers{SingleLine: "#"})
		require.True(t, errors.Is(err, ErrInvalidLanguage), "PersistCommentMarkers(%q) = %v", lang, err)
		require.Equal(t, RuleSet{}, s.Snapshot(lang))
	}
}

func TestPersistKeywordsStorageFailure(t *testing.T) {
	m := &ruletext.MemStore{}
	s := NewStore(m)
	require.NoError(t, s.PersistKeywords("go", []string{"func"}))
	m.FailWrites = func(string) error { return errors.New("read-only file system") }

	err := s.PersistKeywords("go", []string{"func", "var"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStorageUnavailable))
	var serr *StorageError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, "go/keywords.txt", serr.Path)

	require.Equal(t, []string{"func"}, s.Snapshot("go").Keywords)
	require.Equal(t, uint64(1), s.Version("go"))
}

func TestCommentMarkersRoundTrip(t *testing.T) {
	var m ruletext.MemStore
	s := NewStore(&m)
	want := CommentMarkers{SingleLine: "--", MultiLineStart: "{-", MultiLineEnd: "-}"}
	require.NoError(t, s.PersistCommentMarkers("hs", want))
	require.Equal(t, want, s.Snapshot("hs").Comments)
	require.Equal(t, want, NewStore(&m).Snapshot("hs").Comments)

	// Empty markers are legal and disable their comment form.
	require.NoError(t, s.PersistCommentMarkers("hs", CommentMarkers{SingleLine: "--"}))
	require.Equal(t, CommentMarkers{SingleLine: "--"}, s.Snapshot("hs").Comments)
	require.Equal(t, "", m.LoadRuleText("hs/comments/multiline-start.txt"))
}

func TestCommentMarkersEndingInLineBreak(t *testing.T) {
	var m ruletext.MemStore
	s := NewStore(&m)
	old := CommentMarkers{"//", "/*", "*/"}
	require.NoError(t, s.PersistCommentMarkers("c", old))
	for _, bad := range []CommentMarkers{
		{SingleLine: "#\n"},
		{SingleLine: "#", MultiLineStart: "(*\r"},
		{MultiLineEnd: "*)\r\n"},
	} {
		err := s.PersistCommentMarkers("c", bad)
		require.True(t, errors.Is(err, ErrInvalidMarker), "PersistCommentMarkers(%q) = %v", bad, err)
	}
	require.Equal(t, old, s.Snapshot("c").Comments)
	require.Equal(t, old, NewStore(&m).Snapshot("c").Comments)

	// A line break inside a marker reads back unchanged.
	inner := CommentMarkers{SingleLine: "#\n#"}
	require.NoError(t, s.PersistCommentMarkers("c", inner))
	require.Equal(t, inner, NewStore(&m).Snapshot("c").Comments)
}

func TestCommentMarkersWriteOnlyChanged(t *testing.T) {
	m := &ruletext.MemStore{}
	s := NewStore(m)
	require.NoError(t, s.PersistCommentMarkers("c", CommentMarkers{"//", "/*", "*/"}))
	var written []string
	m.FailWrites = func(p string) error { written = append(written, p); return nil }
	require.NoError(t, s.PersistCommentMarkers("c", CommentMarkers{"#", "/*", "*/"}))
	require.Equal(t, []string{"c/comments/singleline.txt"}, written)
}

func TestCommentMarkersStorageFailureRollsBack(t *testing.T) {
	m := &ruletext.MemStore{}
	s := NewStore(m)
	old := CommentMarkers{"//", "/*", "*/"}
	require.NoError(t, s.PersistCommentMarkers("c", old))
	m.FailWrites = func(p string) error {
		if strings.HasSuffix(p, "multiline-end.txt") {
			return errors.New("quota exceeded")
		}
		return nil
	}

	err := s.PersistCommentMarkers("c", CommentMarkers{"#", "(*", "*)"})
	require.True(t, errors.Is(err, ErrStorageUnavailable))
	require.Equal(t, old, s.Snapshot("c").Comments)
	require.Equal(t, "//", m.LoadRuleText("c/comments/singleline.txt"))
	require.Equal(t, "/*", m.LoadRuleText("c/comments/multiline-start.txt"))
}

func TestReload(t *testing.T) {
	var m ruletext.MemStore
	s := NewStore(&m)
	require.Empty(t, s.Snapshot("py").Keywords)
	require.NoError(t, m.SaveRuleText("py/keywords.txt", "def"))
	require.Empty(t, s.Snapshot("py").Keywords, "snapshot should be cached until Reload")

	v := s.Version("py")
	s.Reload("py")
	require.Greater(t, s.Version("py"), v)
	require.Equal(t, []string{"def"}, s.Snapshot("py").Keywords)
}

func TestPaths(t *testing.T) {
	require.Equal(t, []string{
		"rs/keywords.txt",
		"rs/comments/singleline.txt",
		"rs/comments/multiline-start.txt",
		"rs/comments/multiline-end.txt",
	}, Paths("rs"))
}

func TestPropertyKeywordsRoundTrip(t *testing.T) {
	keyword := rapid.StringMatching(`[A-Za-z_#+][A-Za-z0-9_#+.*]{0,8}`)
	rapid.Check(t, func(rt *rapid.T) {
		kws := rapid.SliceOf(keyword).Draw(rt, "keywords")
		var m ruletext.MemStore
		require.NoError(rt, NewStore(&m).PersistKeywords("x", kws))
		got := NewStore(&m).Snapshot("x").Keywords

		seen := map[string]bool{}
		var want []string
		for _, kw := range kws {
			if !seen[kw] {
				seen[kw] = true
				want = append(want, kw)
			}
		}
		require.Equal(rt, want, got)
	})
}

func TestAddKeyword(t *testing.T) {
	m := &ruletext.MemStore{}
	s := NewStore(m)

	added, err := s.AddKeyword("go", "func")
	require.NoError(t, err)
	require.True(t, added)
	v := s.Version("go")

	var writes int
	m.FailWrites = func(string) error { writes++; return nil }
	for _, kw := range []string{"func", ""} {
		added, err = s.AddKeyword("go", kw)
		require.NoError(t, err)
		require.False(t, added, "AddKeyword(%q)", kw)
	}
	require.Zero(t, writes)
	require.Equal(t, v, s.Version("go"))

	added, err = s.AddKeyword("go", "Func")
	require.NoError(t, err)
	require.True(t, added, "keywords are case-sensitive")
	require.Equal(t, []string{"func", "Func"}, s.Snapshot("go").Keywords)

	_, err = s.AddKeyword("go", "a,b")
	require.True(t, errors.Is(err, ErrInvalidKeyword))
}

func TestSnapshotVersion(t *testing.T) {
	s := NewStore(&ruletext.MemStore{})
	_, v0 := s.SnapshotVersion("go")
	_, err := s.AddKeyword("go", "go")
	require.NoError(t, err)
	rs, v1 := s.SnapshotVersion("go")
	require.NotEqual(t, v0, v1)
	require.Equal(t, []string{"go"}, rs.Keywords)
}
