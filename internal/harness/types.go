package harness

import (
	"github.com/roach88/notedown/internal/delta"
)

// LineResult is one line of the final document.
type LineResult struct {
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held and typing reported no
	// rewrite failures.
	Pass bool `json:"pass"`

	// Text is the plain text of the final document.
	Text string `json:"text"`

	// Lines lists the final document's lines with their tag names.
	Lines []LineResult `json:"lines"`

	// Contents is the final document as it reads back from the note store.
	Contents delta.Delta `json:"contents"`

	// Applied names the rules that rewrote the document, in order.
	Applied []string `json:"applied"`

	// Selection is the final cursor index, or -1 when there is none.
	Selection int `json:"selection"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Lines:     []LineResult{},
		Applied:   []string{},
		Selection: -1,
		Errors:    []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
