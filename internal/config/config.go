// Package config loads notedown configuration from a CUE file validated
// against an embedded schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/notedown/internal/shortcut"
)

//go:embed schema.cue
var schemaSource []byte

// ErrInvalid is returned when a configuration does not satisfy the schema.
var ErrInvalid = errors.New("invalid configuration")

// Config is the decoded configuration.
type Config struct {
	Shortcuts Shortcuts `json:"shortcuts"`
	Store     Store     `json:"store"`
}

// Shortcuts configures the shortcut engine.
type Shortcuts struct {
	Disabled   []string `json:"disabled"`
	IgnoreTags []string `json:"ignoreTags"`
	Highlight  string   `json:"highlight"`
}

// Store configures the note store.
type Store struct {
	Path string `json:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Shortcuts: Shortcuts{
			Disabled:   []string{},
			IgnoreTags: append([]string{}, shortcut.DefaultIgnoreTags...),
			Highlight:  shortcut.DefaultHighlight,
		},
		Store: Store{Path: "notedown.db"},
	}
}

// Load reads the CUE file at path. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE source against the schema and decodes it. Fields the
// source leaves out take their schema defaults.
func Parse(filename string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, invalid(err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, invalid(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, invalid(err)
	}
	return cfg, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
}

// Rules builds the shortcut rule table the configuration selects.
func (c Config) Rules() ([]shortcut.Rule, error) {
	highlight := c.Shortcuts.Highlight
	if highlight == "" {
		highlight = shortcut.DefaultHighlight
	}
	return shortcut.WithoutRules(shortcut.NewRules(highlight), c.Shortcuts.Disabled...)
}

// EngineOptions returns the shortcut engine options for this configuration.
func (c Config) EngineOptions() ([]shortcut.Option, error) {
	rules, err := c.Rules()
	if err != nil {
		return nil, err
	}
	opts := []shortcut.Option{shortcut.WithRules(rules)}
	if c.Shortcuts.IgnoreTags != nil {
		opts = append(opts, shortcut.WithIgnoreTags(c.Shortcuts.IgnoreTags...))
	}
	return opts, nil
}
