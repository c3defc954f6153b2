package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/notedown/internal/shortcut"
)

// Scenario types keys into a fresh document and checks what the shortcut
// engine made of them.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is plain text placed in the document before typing. The
	// cursor starts at the end of it.
	Initial string `yaml:"initial,omitempty"`

	// Disabled lists rules removed from the default table.
	Disabled []string `yaml:"disabled,omitempty"`

	// Highlight overrides the highlight colour.
	Highlight string `yaml:"highlight,omitempty"`

	// Keys is the key script to type. See editor.ParseKeys.
	Keys string `yaml:"keys"`

	// Deferred holds rewrites until typing is done instead of running them
	// after every keystroke.
	Deferred bool `yaml:"deferred,omitempty"`

	// Expect describes the final document. Only the given fields are checked.
	Expect Expect `yaml:"expect"`
}

// Expect is a set of expectations about the final document.
type Expect struct {
	// Text is the expected plain text, including the final newline.
	Text *string `yaml:"text,omitempty"`

	// Lines are the expected lines, all of them, in order.
	Lines []ExpectLine `yaml:"lines,omitempty"`

	// Runs must appear in the document contents in this order. Other
	// runs may sit between them.
	Runs []ExpectRun `yaml:"runs,omitempty"`

	// Selection is the expected cursor index.
	Selection *int `yaml:"selection,omitempty"`

	// Applied is the expected sequence of applied rules.
	Applied []string `yaml:"applied,omitempty"`
}

// ExpectLine is an expected line.
type ExpectLine struct {
	Text string `yaml:"text"`
	Tag  string `yaml:"tag"`
}

// ExpectRun is an expected insert op. Set Text for a text run or Embed and
// Value for an embed. Attributes is a subset match.
type ExpectRun struct {
	Text       string         `yaml:"text,omitempty"`
	Embed      string         `yaml:"embed,omitempty"`
	Value      any            `yaml:"value,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
}

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)", filepath.Base(path), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(path)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validName.MatchString(s.Name) {
		return fmt.Errorf("name %q must be lower-case letters, digits, '-' or '_'", s.Name)
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Keys == "" {
		return fmt.Errorf("keys is required")
	}

	if _, err := shortcut.WithoutRules(shortcut.DefaultRules(), s.Disabled...); err != nil {
		return fmt.Errorf("disabled: %w", err)
	}

	for i, run := range s.Expect.Runs {
		if (run.Text == "") == (run.Embed == "") {
			return fmt.Errorf("expect.runs[%d]: exactly one of text or embed is required", i)
		}
	}

	for i, rule := range s.Expect.Applied {
		if !isRuleName(rule) {
			return fmt.Errorf("expect.applied[%d]: %w: %q", i, shortcut.ErrUnknownRule, rule)
		}
	}

	return nil
}

func isRuleName(name string) bool {
	for _, n := range shortcut.RuleNames() {
		if n == name {
			return true
		}
	}
	return false
}
