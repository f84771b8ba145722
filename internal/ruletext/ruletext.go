// Package ruletext implements the raw storage for rule files.
package ruletext

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dpinela/lexhl/internal/atomicwrite"
)

// A FileStore keeps rule text in files under Dir.
// It implements rules.Storage.
type FileStore struct {
	Dir string
	Log zerolog.Logger
}

// NewFileStore returns a FileStore rooted at dir that logs nothing.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, Log: zerolog.Nop()}
}

// Filename returns the name of the file holding the rule text at p.
func (fs *FileStore) Filename(p string) string {
	return filepath.Join(fs.Dir, filepath.FromSlash(p))
}

// LoadRuleText returns the content of the file at p, or "" if it can't be read.
func (fs *FileStore) LoadRuleText(p string) string {
	data, err := os.ReadFile(fs.Filename(p))
	if err != nil {
		if !os.IsNotExist(err) {
			fs.Log.Debug().Err(err).Str("path", p).Msg("unreadable rule file")
		}
		return ""
	}
	return string(data)
}

// SaveRuleText atomically replaces the content of the file at p, creating its
// parent directories if needed.
func (fs *FileStore) SaveRuleText(p, content string) error {
	return atomicwrite.WriteString(fs.Filename(p), content)
}

// Languages returns the names of the languages that have a rules directory, sorted.
// A missing Dir means there are none.
func (fs *FileStore) Languages() ([]string, error) {
	entries, err := os.ReadDir(fs.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing languages")
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			langs = append(langs, e.Name())
		}
	}
	return langs, nil
}

// A MemStore keeps rule text in memory. The zero MemStore is empty and ready to use.
// It is useful for tests and for hosts that don't want rules to outlive the process.
type MemStore struct {
	mu    sync.Mutex
	files map[string]string
	// FailWrites, if non-nil, is called before every write; a non-nil result
	// makes the write fail with that error.
	FailWrites func(path string) error
}

// LoadRuleText returns the text stored at p, or "" if there is none.
func (m *MemStore) LoadRuleText(p string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[p]
}

// SaveRuleText stores content at p.
func (m *MemStore) SaveRuleText(p, content string) error {
	if m.FailWrites != nil {
		if err := m.FailWrites(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string]string)
	}
	m.files[p] = content
	return nil
}

// Paths returns the paths of all the stored texts, sorted.
func (m *MemStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps := make([]string, 0, len(m.files))
	for p := range m.files {
		ps = append(ps, p)
	}
	sort.Strings(ps)
	return ps
}
