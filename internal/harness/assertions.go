package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/notedown/internal/delta"
)

// Expectation kinds, used as AssertionError.Type.
const (
	ExpectText      = "text"
	ExpectLines     = "lines"
	ExpectRuns      = "runs"
	ExpectSelection = "selection"
	ExpectApplied   = "applied"
)

// AssertionError is returned when an expectation fails.
// It carries the final document to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Contents delta.Delta
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nDocument:\n")
	for i, op := range e.Contents.Ops {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, describeOp(op))
	}

	return buf.String()
}

func describeOp(op delta.Op) string {
	var s string
	if e, ok := op.Embed(); ok {
		s = fmt.Sprintf("embed %s=%v", e.Type, e.Value)
	} else {
		text, _ := op.Text()
		s = fmt.Sprintf("%q", text)
	}
	if len(op.Attributes) > 0 {
		s += fmt.Sprintf(" %v", map[string]any(op.Attributes))
	}
	return s
}

// EvaluateExpectations checks every expectation set in expect against the
// result. Returns one message per failed expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var checks []error

	if expect.Text != nil {
		checks = append(checks, assertText(result, *expect.Text))
	}
	if expect.Lines != nil {
		checks = append(checks, assertLines(result, expect.Lines))
	}
	if expect.Runs != nil {
		checks = append(checks, assertRuns(result, expect.Runs))
	}
	if expect.Selection != nil {
		checks = append(checks, assertSelection(result, *expect.Selection))
	}
	if expect.Applied != nil {
		checks = append(checks, assertApplied(result, expect.Applied))
	}

	var errors []string
	for _, err := range checks {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func assertText(result *Result, want string) error {
	if result.Text == want {
		return nil
	}
	return &AssertionError{
		Type:     ExpectText,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", result.Text),
		Contents: result.Contents,
	}
}

func assertLines(result *Result, want []ExpectLine) error {
	if len(result.Lines) != len(want) {
		return &AssertionError{
			Type:     ExpectLines,
			Expected: fmt.Sprintf("%d lines", len(want)),
			Actual:   fmt.Sprintf("%d lines", len(result.Lines)),
			Contents: result.Contents,
		}
	}
	for i, w := range want {
		got := result.Lines[i]
		if got.Text != w.Text || got.Tag != w.Tag {
			return &AssertionError{
				Type:     ExpectLines,
				Expected: fmt.Sprintf("line %d %s %q", i, w.Tag, w.Text),
				Actual:   fmt.Sprintf("line %d %s %q", i, got.Tag, got.Text),
				Contents: result.Contents,
			}
		}
	}
	return nil
}

// assertRuns checks that the expected runs appear in order. Runs need not
// be consecutive.
func assertRuns(result *Result, want []ExpectRun) error {
	ops := result.Contents.Ops
	pos := 0
	for i, w := range want {
		found := false
		for ; pos < len(ops); pos++ {
			if matchRun(ops[pos], w) {
				found = true
				pos++
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     ExpectRuns,
				Expected: fmt.Sprintf("run %d %s", i, describeRun(w)),
				Actual:   "not found in order",
				Contents: result.Contents,
			}
		}
	}
	return nil
}

func describeRun(r ExpectRun) string {
	s := fmt.Sprintf("%q", r.Text)
	if r.Embed != "" {
		s = fmt.Sprintf("embed %s=%v", r.Embed, r.Value)
	}
	if len(r.Attributes) > 0 {
		s += fmt.Sprintf(" %v", r.Attributes)
	}
	return s
}

func matchRun(op delta.Op, want ExpectRun) bool {
	if want.Embed != "" {
		e, ok := op.Embed()
		if !ok || e.Type != want.Embed {
			return false
		}
		if want.Value != nil && !valuesEqual(e.Value, want.Value) {
			return false
		}
	} else {
		text, ok := op.Text()
		if !ok || text != want.Text {
			return false
		}
	}
	return matchAttributes(op.Attributes, want.Attributes)
}

// matchAttributes checks if actual contains all expected attributes
// (subset match). Extra keys in actual are ignored.
func matchAttributes(actual delta.Attributes, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares an attribute value with a YAML value. Integers are
// compared by value whatever their Go type.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if a, ok := toInt64(actual); ok {
		if e, ok := toInt64(expected); ok {
			return a == e
		}
		return false
	}
	return reflect.DeepEqual(actual, expected)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func assertSelection(result *Result, want int) error {
	if result.Selection == want {
		return nil
	}
	return &AssertionError{
		Type:     ExpectSelection,
		Expected: fmt.Sprintf("cursor at %d", want),
		Actual:   fmt.Sprintf("cursor at %d", result.Selection),
		Contents: result.Contents,
	}
}

func assertApplied(result *Result, want []string) error {
	if reflect.DeepEqual(result.Applied, want) {
		return nil
	}
	return &AssertionError{
		Type:     ExpectApplied,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", result.Applied),
		Contents: result.Contents,
	}
}
