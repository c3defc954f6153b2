package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
	"github.com/roach88/notedown/internal/editor"
	"github.com/roach88/notedown/internal/shortcut"
	"github.com/roach88/notedown/internal/store"
)

// epoch stamps every note a scenario stores.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the scenario execution engine. Each run gets a fresh document
// and a fresh in-memory note store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the rule table, minus disabled rules
//  2. Create a document holding the initial text and mount an editor on it
//  3. Type the key script, ticking once at the end when deferred
//  4. Save the document as a note and read it back
//  5. Check expectations against what was read back
//
// An error is returned only when the scenario cannot be set up. Failed
// expectations and rewrite failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithIDGenerator(store.NewFixedGenerator(scenario.Name)),
		store.WithClock(func() time.Time { return epoch }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	highlight := scenario.Highlight
	if highlight == "" {
		highlight = shortcut.DefaultHighlight
	}
	rules, err := shortcut.WithoutRules(shortcut.NewRules(highlight), scenario.Disabled...)
	if err != nil {
		return nil, fmt.Errorf("failed to build rules: %w", err)
	}

	doc := document.New()
	defer doc.Close()
	if scenario.Initial != "" {
		if err := doc.InsertText(0, scenario.Initial, nil, delta.SourceAPI); err != nil {
			return nil, fmt.Errorf("failed to insert initial text: %w", err)
		}
	}

	opts := []editor.Option{editor.WithEngineOptions(shortcut.WithRules(rules))}
	if scenario.Deferred {
		opts = append(opts, editor.WithManualTick())
	}
	ed, err := editor.Mount(doc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to mount editor: %w", err)
	}
	defer ed.Unmount()

	result := NewResult()

	if err := ed.TypeKeys(ctx, scenario.Keys); err != nil {
		result.AddError(fmt.Sprintf("type: %v", err))
	}
	if scenario.Deferred {
		h.logger.Debug("ticking deferred rewrites", "pending", ed.Pending())
		if err := ed.Tick(ctx); err != nil {
			result.AddError(fmt.Sprintf("tick: %v", err))
		}
	}

	result.Text = doc.Text()
	result.Applied = ed.Applied()
	for _, l := range doc.Lines() {
		result.Lines = append(result.Lines, LineResult{Text: l.Text, Tag: l.TagName})
	}
	if sel, ok := doc.Selection(); ok {
		result.Selection = sel.Index
	}

	contents, err := h.roundTrip(ctx, scenario.Name, doc.Contents())
	if err != nil {
		result.AddError(err.Error())
		contents = doc.Contents()
	}
	result.Contents = contents

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario complete",
		"scenario", scenario.Name,
		"applied", len(result.Applied),
		"pass", result.Pass,
	)
	return result, nil
}

// roundTrip stores contents as a note and reads it back. The document must
// survive storage unchanged.
func (h *Harness) roundTrip(ctx context.Context, title string, contents delta.Delta) (delta.Delta, error) {
	created, err := h.store.CreateNote(ctx, title, contents)
	if err != nil {
		return delta.Delta{}, fmt.Errorf("save note: %w", err)
	}
	loaded, err := h.store.GetNote(ctx, created.ID)
	if err != nil {
		return delta.Delta{}, fmt.Errorf("load note: %w", err)
	}

	want, err := json.Marshal(contents)
	if err != nil {
		return delta.Delta{}, fmt.Errorf("encode contents: %w", err)
	}
	got, err := json.Marshal(loaded.Contents)
	if err != nil {
		return delta.Delta{}, fmt.Errorf("encode stored contents: %w", err)
	}
	if !bytes.Equal(want, got) {
		return delta.Delta{}, fmt.Errorf("stored contents differ: wrote %s, read %s", want, got)
	}
	return loaded.Contents, nil
}
