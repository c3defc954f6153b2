package shortcut

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleNames(t *testing.T) {
	assert.Equal(t, []string{
		RuleHeader, RuleBlockquote, RuleCodeBlock, RuleBoldItalic, RuleBold,
		RuleItalic, RuleUnderline, RuleStrikethrough, RuleHighlight, RuleCode,
		RuleHR, RuleUnorderedList, RuleImage, RuleLink,
	}, RuleNames())
}

func TestFind_FirstMatchWins(t *testing.T) {
	e := &Engine{rules: DefaultRules()}
	tests := []struct {
		text string
		want string
	}{
		{"## ", RuleHeader},
		{"> ", RuleBlockquote},
		{"``` ", RuleCodeBlock},
		{"***a*** ", RuleBoldItalic},
		{"*a* ", RuleBold},
		{"_a_ ", RuleBold},
		{"/a/ ", RuleItalic},
		{"~~a~~ ", RuleStrikethrough},
		{"::a:: ", RuleHighlight},
		{"`a` ", RuleCode},
		{"--- ", RuleHR},
		{"- - - ", RuleHR},
		{"* ", RuleUnorderedList},
		{"+ ", RuleUnorderedList},
		{"![a](u) ", RuleImage},
		{"[a](u) ", RuleLink},
		{"*** ", RuleBold},
		{"http://x/y ", ""},
		{"plain ", ""},
		{"####### ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r, ok := e.find(tt.text)
			if tt.want == "" {
				assert.False(t, ok, "matched %s", r.Name)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, r.Name)
		})
	}
}

func TestWithoutRules(t *testing.T) {
	rules, err := WithoutRules(DefaultRules(), RuleBold, RuleHR)
	require.NoError(t, err)
	assert.Len(t, rules, len(RuleNames())-2)
	for _, r := range rules {
		assert.NotEqual(t, RuleBold, r.Name)
		assert.NotEqual(t, RuleHR, r.Name)
	}

	_, err = WithoutRules(DefaultRules(), "blink")
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestOnlyWrapper(t *testing.T) {
	assert.True(t, onlyWrapper("*** ", "*_"))
	assert.True(t, onlyWrapper(" :::: ", ":"))
	assert.False(t, onlyWrapper("*a* ", "*_"))
	assert.False(t, onlyWrapper("~~ ~~", "*_"))
}

func TestFindMatch_RuneSpans(t *testing.T) {
	m, ok := findMatch(regexp.MustCompile(`\*(.+?)\*`), "éé *ü* ")
	require.True(t, ok)

	start, end, ok := m.span(0)
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)
	assert.Equal(t, "ü", m.group(1))

	_, _, ok = m.span(5)
	assert.False(t, ok)
	assert.Equal(t, "", m.group(-1))
}

func TestFindMatch_Total(t *testing.T) {
	_, ok := findMatch(nil, "anything")
	assert.False(t, ok)

	m, ok := findMatch(regexp.MustCompile(`a(b)?`), "a")
	require.True(t, ok)
	_, _, ok = m.span(1)
	assert.False(t, ok, "group that did not participate")
	assert.Equal(t, "", m.group(1))
}
