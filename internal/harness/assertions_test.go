package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notedown/internal/delta"
)

func ptr[T any](v T) *T { return &v }

// boldResult is the result of typing "*bold* x" into an empty document.
func boldResult() *Result {
	r := NewResult()
	r.Text = "bold x\n"
	r.Lines = []LineResult{{Text: "bold x", Tag: "P"}}
	r.Contents = delta.New(
		delta.Insert("bold", delta.Attributes{"bold": true}),
		delta.Insert(" x\n", nil),
	)
	r.Applied = []string{"bold"}
	r.Selection = 6
	return r
}

func TestEvaluateExpectations_AllPass(t *testing.T) {
	errs := EvaluateExpectations(boldResult(), Expect{
		Text:      ptr("bold x\n"),
		Lines:     []ExpectLine{{Text: "bold x", Tag: "P"}},
		Runs:      []ExpectRun{{Text: "bold", Attributes: map[string]any{"bold": true}}, {Text: " x\n"}},
		Selection: ptr(6),
		Applied:   []string{"bold"},
	})
	assert.Empty(t, errs)
}

func TestEvaluateExpectations_EmptyExpectPasses(t *testing.T) {
	assert.Empty(t, EvaluateExpectations(boldResult(), Expect{}))
}

func TestEvaluateExpectations_Failures(t *testing.T) {
	tests := []struct {
		name   string
		expect Expect
		kind   string
	}{
		{"text", Expect{Text: ptr("bold\n")}, ExpectText},
		{"line count", Expect{Lines: []ExpectLine{{Tag: "P"}, {Tag: "P"}}}, ExpectLines},
		{"line tag", Expect{Lines: []ExpectLine{{Text: "bold x", Tag: "H1"}}}, ExpectLines},
		{"missing run", Expect{Runs: []ExpectRun{{Text: "italic"}}}, ExpectRuns},
		{"run attribute", Expect{Runs: []ExpectRun{{Text: "bold", Attributes: map[string]any{"italic": true}}}}, ExpectRuns},
		{"runs out of order", Expect{Runs: []ExpectRun{{Text: " x\n"}, {Text: "bold"}}}, ExpectRuns},
		{"selection", Expect{Selection: ptr(0)}, ExpectSelection},
		{"applied", Expect{Applied: []string{}}, ExpectApplied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateExpectations(boldResult(), tt.expect)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "Assertion failed: "+tt.kind)
		})
	}
}

func TestEvaluateExpectations_ReportsEveryFailure(t *testing.T) {
	errs := EvaluateExpectations(boldResult(), Expect{
		Text:      ptr("x"),
		Selection: ptr(1),
		Applied:   []string{"header"},
	})
	assert.Len(t, errs, 3)
}

func TestMatchRun_Embed(t *testing.T) {
	op := delta.InsertEmbed(delta.Embed{Type: "image", Value: "http://x/y.png"}, nil)

	assert.True(t, matchRun(op, ExpectRun{Embed: "image"}))
	assert.True(t, matchRun(op, ExpectRun{Embed: "image", Value: "http://x/y.png"}))
	assert.False(t, matchRun(op, ExpectRun{Embed: "image", Value: "http://other"}))
	assert.False(t, matchRun(op, ExpectRun{Embed: "hr"}))
	assert.False(t, matchRun(op, ExpectRun{Text: "x"}))
}

func TestMatchAttributes_SubsetSemantics(t *testing.T) {
	actual := delta.Attributes{"bold": true, "italic": true}

	assert.True(t, matchAttributes(actual, nil))
	assert.True(t, matchAttributes(actual, map[string]any{"bold": true}))
	assert.False(t, matchAttributes(actual, map[string]any{"bold": false}))
	assert.False(t, matchAttributes(actual, map[string]any{"code": true}))
	assert.False(t, matchAttributes(nil, map[string]any{"bold": true}))
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", nil, true, false},
		{"int and uint64", 2, uint64(2), true},
		{"int and int64", 2, int64(2), true},
		{"different ints", 2, 3, false},
		{"int and string", 2, "2", false},
		{"strings", "#ffa8a8", "#ffa8a8", true},
		{"bools", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.actual, tt.expected))
		})
	}
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     ExpectText,
		Expected: `"a\n"`,
		Actual:   `"b\n"`,
		Contents: delta.New(
			delta.Insert("b", delta.Attributes{"bold": true}),
			delta.InsertEmbed(delta.Embed{Type: "hr", Value: true}, nil),
			delta.Insert("\n", nil),
		),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: text")
	assert.Contains(t, msg, `Expected: "a\n"`)
	assert.Contains(t, msg, `Actual: "b\n"`)
	assert.Contains(t, msg, `[1] "b" map[bold:true]`)
	assert.Contains(t, msg, "[2] embed hr=true")
	assert.Contains(t, msg, `[3] "\n"`)
}
