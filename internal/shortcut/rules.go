package shortcut

import (
	"fmt"
	"regexp"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
)

// Rule names, in default table order.
const (
	RuleHeader        = "header"
	RuleBlockquote    = "blockquote"
	RuleCodeBlock     = "code-block"
	RuleBoldItalic    = "bolditalic"
	RuleBold          = "bold"
	RuleItalic        = "italic"
	RuleUnderline     = "underline"
	RuleStrikethrough = "strikethrough"
	RuleHighlight     = "highlight"
	RuleCode          = "code"
	RuleHR            = "hr"
	RuleUnorderedList = "unordered-list"
	RuleImage         = "image"
	RuleLink          = "link"
)

// DefaultHighlight is the background colour of the highlight rule.
const DefaultHighlight = "#ffa8a8"

// Input is what an action sees when its task runs.
type Input struct {
	// Text is the line text the rule matched against. On enter it may carry
	// one extra trailing space.
	Text string
	// LineText is the line text as stored in the document.
	LineText string
	// LineStart is the absolute offset of the line.
	LineStart int
	// Selection is the selection the rule was matched with, moved through
	// later changes. On enter it spans the typed newline.
	Selection document.Selection
	// Pattern is the rule's pattern.
	Pattern *regexp.Regexp
}

// match re-derives the rule's match against the line. Actions never rely on
// a match captured at dispatch time.
func (in Input) match() (match, bool) {
	return findMatch(in.Pattern, in.Text)
}

// Action rewrites the document for a matched rule. It reports whether the
// document was changed; a line that no longer qualifies is left alone and
// reported unchanged.
type Action func(h Host, in Input) (bool, error)

// Rule pairs a pattern with the rewrite it triggers. The first rule whose
// pattern matches the line wins.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Action  Action
}

// RuleNames returns the names of the default table in order.
func RuleNames() []string {
	rules := NewRules(DefaultHighlight)
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// DefaultRules returns the default table with the default highlight colour.
func DefaultRules() []Rule {
	return NewRules(DefaultHighlight)
}

// NewRules builds the rule table. Order is priority.
func NewRules(highlight string) []Rule {
	return []Rule{
		{
			Name:    RuleHeader,
			Pattern: regexp.MustCompile(`^(#{1,6})\s`),
			Action: lineAction("header", func(m match) any {
				return runeLen(m.group(1))
			}),
		},
		{
			Name:    RuleBlockquote,
			Pattern: regexp.MustCompile(`^>\s`),
			Action:  lineAction("blockquote", constant(true)),
		},
		{
			Name:    RuleCodeBlock,
			Pattern: regexp.MustCompile("^```(?:\\s|$)"),
			Action:  lineAction("code-block", constant(true)),
		},
		{
			Name:    RuleBoldItalic,
			Pattern: regexp.MustCompile(`[*_]{3}(?P<content>.+?)[*_]{3}`),
			Action: wrapAction(wrap{
				delims: "*_",
				attrs:  delta.Attributes{"bold": true, "italic": true},
				reset:  []string{"bold"},
			}),
		},
		{
			Name:    RuleBold,
			Pattern: regexp.MustCompile(`[*_](?P<content>.+?)[*_]`),
			Action: wrapAction(wrap{
				delims: "*_",
				attrs:  delta.Attributes{"bold": true},
				reset:  []string{"bold"},
			}),
		},
		{
			// The closing slash must end a word so that URLs do not trigger it.
			Name:    RuleItalic,
			Pattern: regexp.MustCompile(`(?P<wrap>/(?P<content>.+?)/)(?:\s|$)`),
			Action: wrapAction(wrap{
				delims: "/",
				attrs:  delta.Attributes{"italic": true},
				reset:  []string{"italic"},
			}),
		},
		{
			Name:    RuleUnderline,
			Pattern: regexp.MustCompile(`_(?P<content>.+?)_`),
			Action: wrapAction(wrap{
				delims: "_",
				attrs:  delta.Attributes{"underline": true},
				reset:  []string{"underline"},
			}),
		},
		{
			Name:    RuleStrikethrough,
			Pattern: regexp.MustCompile(`~~(?P<content>.+?)~~`),
			Action: wrapAction(wrap{
				delims: "~",
				attrs:  delta.Attributes{"strike": true},
				reset:  []string{"strike"},
			}),
		},
		{
			Name:    RuleHighlight,
			Pattern: regexp.MustCompile(`::(?P<content>.+?)::`),
			Action: wrapAction(wrap{
				delims: ":",
				attrs:  delta.Attributes{"background": highlight},
				reset:  []string{"background"},
			}),
		},
		{
			Name:    RuleCode,
			Pattern: regexp.MustCompile("`(?P<content>.+?)`"),
			Action: wrapAction(wrap{
				delims:        "`",
				attrs:         delta.Attributes{"code": true},
				reset:         []string{"code"},
				trailingSpace: true,
			}),
		},
		{
			Name:    RuleHR,
			Pattern: regexp.MustCompile(`^(?:[-*]\s?){3,}\s*$`),
			Action:  hrAction,
		},
		{
			Name:    RuleUnorderedList,
			Pattern: regexp.MustCompile(`^[*+]\s$`),
			Action:  lineAction("list", constant("unordered")),
		},
		{
			Name:    RuleImage,
			Pattern: regexp.MustCompile(`!\[(.+?)\]\((.+?)\)`),
			Action:  imageAction,
		},
		{
			Name:    RuleLink,
			Pattern: regexp.MustCompile(`\[(.+?)\]\((.+?)\)`),
			Action:  linkAction,
		},
	}
}

// WithoutRules returns rules minus the named ones, keeping order. Unknown
// names fail with ErrUnknownRule.
func WithoutRules(rules []Rule, names ...string) ([]Rule, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if drop[r.Name] {
			delete(drop, r.Name)
			continue
		}
		kept = append(kept, r)
	}
	for _, n := range names {
		if drop[n] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRule, n)
		}
	}
	return kept, nil
}

func constant(v any) func(match) any {
	return func(match) any { return v }
}
