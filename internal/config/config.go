// Package config defines configuration settings for lexhl and functions for loading them from a file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/tajtiattila/basedir"

	"github.com/dpinela/lexhl/internal/color"
	"github.com/dpinela/lexhl/internal/highlight"
)

type Config struct {
	RulesDir         string // Directory holding the per-language rule files; empty means DefaultRulesDir
	LogLevel         string
	WatchDelayMillis int // How long watch waits for a burst of changes to settle
	TabWidth         int
	TextStyle        highlight.Palette
	Lang             map[string]LangConfig
}

type LangConfig struct {
	Name string // Language whose rules files with this extension are highlighted with
}

// LanguageFor returns the language to use for files with the given extension
// (without the leading dot). Extensions with no alias map to themselves.
func (c *Config) LanguageFor(ext string) string {
	if lc, ok := c.Lang[ext]; ok && lc.Name != "" {
		return lc.Name
	}
	return ext
}

// WatchDelay returns WatchDelayMillis as a Duration.
func (c *Config) WatchDelay() time.Duration {
	return time.Duration(c.WatchDelayMillis) * time.Millisecond
}

// Default returns the configuration used when there is no config file.
func Default() *Config {
	c := &Config{
		LogLevel:         "warn",
		WatchDelayMillis: 100,
		TabWidth:         4,
		Lang:             make(map[string]LangConfig),
	}
	c.fillDefaults()
	return c
}

// DefaultPath returns the location of the user's config file: lexhl/config.toml in the
// user's configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lexhl", "config.toml"), nil
}

// DefaultRulesDir returns the rules directory used when none is configured: lexhl/rules
// in the user's data directory. It creates the lexhl directory if needed.
func DefaultRulesDir() (string, error) {
	dir, err := basedir.Data.EnsureDir("lexhl", 0700)
	if err != nil {
		return "", errors.Wrap(err, "creating data directory")
	}
	return filepath.Join(dir, "rules"), nil
}

// Load reads the configuration file at path, or the one at DefaultPath if path is empty.
// It always returns a usable *Config, even if it also returns a non-nil error.
// A missing file at the default location is not an error.
// Load never touches the file system beyond reading the config file.
func Load(path string) (c *Config, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "error loading config file")
		}
	}()
	c = Default()
	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return c, err
		}
	}
	_, err = toml.DecodeFile(path, c)
	if os.IsNotExist(errors.Cause(err)) && !explicit {
		err = nil
	}
	c.fillDefaults()
	return c, err
}

var (
	defaultKeyword = highlight.Style{Foreground: &color.Color{R: 0xcd, G: 0, B: 0xcd}, Bold: true}
	defaultString  = highlight.Style{Foreground: &color.Color{R: 0, G: 0, B: 200}}
	defaultComment = highlight.Style{Foreground: &color.Color{R: 0, G: 200, B: 0}, Italic: true}
	defaultPunct   = highlight.Style{Foreground: &color.Color{R: 0xcd, G: 0xcd, B: 0}}
)

func (c *Config) fillDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.WatchDelayMillis <= 0 {
		c.WatchDelayMillis = 100
	}
	if c.TabWidth <= 0 {
		c.TabWidth = 4
	}
	if c.Lang == nil {
		c.Lang = make(map[string]LangConfig)
	}
	p := &c.TextStyle
	for tag, def := range map[highlight.Tag]highlight.Style{
		highlight.Keyword:   defaultKeyword,
		highlight.Paren:     defaultPunct,
		highlight.Brace:     defaultPunct,
		highlight.Bracket:   defaultPunct,
		highlight.Semicolon: defaultPunct,
		highlight.String:    defaultString,
		highlight.Comment:   defaultComment,
	} {
		if s := p.Style(tag); s.IsZero() {
			*s = def
		}
	}
}
