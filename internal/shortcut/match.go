package shortcut

import (
	"regexp"
	"unicode/utf8"
)

// match is a pattern match on a line of text. Spans are rune offsets so they
// can be added to document offsets directly.
type match struct {
	text string
	loc  []int // byte offsets, as returned by FindStringSubmatchIndex
}

// findMatch runs p against text. It never panics: a missing match or a
// missing group simply reports ok=false or an empty group.
func findMatch(p *regexp.Regexp, text string) (match, bool) {
	if p == nil {
		return match{}, false
	}
	loc := p.FindStringSubmatchIndex(text)
	if loc == nil {
		return match{}, false
	}
	return match{text: text, loc: loc}, true
}

// span returns the rune range [start, end) of group i, or ok=false when the
// group did not participate in the match.
func (m match) span(i int) (start, end int, ok bool) {
	if i < 0 || 2*i+1 >= len(m.loc) || m.loc[2*i] < 0 {
		return 0, 0, false
	}
	start = utf8.RuneCountInString(m.text[:m.loc[2*i]])
	end = start + utf8.RuneCountInString(m.text[m.loc[2*i]:m.loc[2*i+1]])
	return start, end, true
}

// group returns the text of group i, or "" when it did not participate.
func (m match) group(i int) string {
	if i < 0 || 2*i+1 >= len(m.loc) || m.loc[2*i] < 0 {
		return ""
	}
	return m.text[m.loc[2*i]:m.loc[2*i+1]]
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
