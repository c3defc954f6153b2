package shortcut

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
)

// DefaultIgnoreTags are the line tags on which shortcuts never fire.
var DefaultIgnoreTags = []string{"PRE"}

// Engine watches a host document for space and newline keystrokes and
// rewrites Markdown-like markers on the current line into formatted content.
//
// Matching happens synchronously inside the host's change notification.
// Rewrites are deferred: they are queued and run later by Drain or Run, in
// the order they were matched, each against the document as it is then.
//
// Thread-safety model:
//   - HandleChange: called by the host, may run on any goroutine
//   - Drain / Run: exactly one consumer at a time
//   - Close: safe from any goroutine
type Engine struct {
	host       Host
	rules      []Rule // priority order, never reordered after New
	ignoreTags map[string]bool
	queue      *taskQueue

	onError   func(error)
	onApplied func(rule string)

	unsubscribe func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the rule table. The slice is copied.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// WithIgnoreTags replaces the set of line tags shortcuts ignore.
func WithIgnoreTags(tags ...string) Option {
	return func(e *Engine) {
		e.ignoreTags = make(map[string]bool, len(tags))
		for _, t := range tags {
			e.ignoreTags[strings.ToUpper(t)] = true
		}
	}
}

// WithErrorHandler sets the function Run reports rewrite failures to.
// Default: log with slog.Error.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithAppliedHook sets a function called with the rule name after each
// rewrite that changed the document.
func WithAppliedHook(fn func(rule string)) Option {
	return func(e *Engine) {
		e.onApplied = fn
	}
}

// New creates an engine and subscribes it to host change notifications.
func New(host Host, opts ...Option) *Engine {
	e := &Engine{
		host:    host,
		rules:   DefaultRules(),
		queue:   newTaskQueue(),
		onError: logError,
	}
	WithIgnoreTags(DefaultIgnoreTags...)(e)
	for _, opt := range opts {
		opt(e)
	}
	e.unsubscribe = host.OnChange(e.HandleChange)
	return e
}

// HandleChange dispatches a host change notification.
//
// Every change moves the anchors of pending rewrites. Only user changes are
// matched: each op inserting exactly " " fires the space trigger and each
// op inserting exactly "\n" fires the enter trigger. The document is never
// mutated here.
func (e *Engine) HandleChange(c document.Change) {
	e.queue.transform(c.Delta)
	if c.Source != delta.SourceUser {
		return
	}
	for _, op := range c.Delta.Ops {
		text, ok := op.Text()
		if !ok {
			continue
		}
		switch text {
		case " ":
			e.trigger(TriggerSpace)
		case "\n":
			e.trigger(TriggerEnter)
		}
	}
}

// trigger matches the current line and queues the first matching rule.
func (e *Engine) trigger(kind Trigger) {
	sel, ok := e.host.Selection()
	if !ok {
		return
	}
	if kind == TriggerEnter {
		// The cursor already sits past the newline.
		if sel.Index == 0 {
			return
		}
		sel = document.Selection{Index: sel.Index - 1, Length: sel.Length + 1}
	}

	line, offset, err := e.host.Line(sel.Index)
	if err != nil {
		slog.Debug("shortcut line lookup failed", "trigger", kind, "index", sel.Index, "error", err)
		return
	}
	text, ok := e.matchText(line, kind)
	if !ok {
		return
	}
	rule, ok := e.find(text)
	if !ok {
		return
	}

	slog.Debug("shortcut matched",
		"rule", rule.Name,
		"trigger", kind,
		"line_start", sel.Index-offset,
	)
	if !e.queue.Enqueue(&task{rule: rule, trigger: kind, anchor: sel.Index - offset, sel: sel}) {
		slog.Debug("shortcut dropped: engine closed", "rule", rule.Name)
	}
}

// matchText returns the text rules are matched against, or ok=false when
// the line is not eligible.
func (e *Engine) matchText(line document.Line, kind Trigger) (string, bool) {
	if e.ignoreTags[line.TagName] || line.Text == "" {
		return "", false
	}
	text := line.Text
	if kind == TriggerEnter && strings.Contains(text, "`") {
		text += " "
	}
	return text, true
}

func (e *Engine) find(text string) (Rule, bool) {
	for _, r := range e.rules {
		if _, ok := findMatch(r.Pattern, text); ok {
			return r, true
		}
	}
	return Rule{}, false
}

// Pending returns the number of queued rewrites.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Drain runs every queued rewrite in FIFO order and returns the joined
// rewrite errors. It stops early with ctx.Err() when ctx is done.
func (e *Engine) Drain(ctx context.Context) error {
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		t, ok := e.queue.TryDequeue()
		if !ok {
			return errors.Join(errs...)
		}
		if err := e.runTask(t); err != nil {
			errs = append(errs, err)
		}
	}
}

// Run drains rewrites as they are queued until ctx is done or the engine
// is closed. Failures go to the error handler and processing continues.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if t, ok := e.queue.TryDequeue(); ok {
			if err := e.runTask(t); err != nil {
				e.onError(err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Closed() {
				return nil
			}
		}
	}
}

// Close unsubscribes from the host and cancels pending rewrites. It returns
// how many rewrites were cancelled. Close is idempotent.
func (e *Engine) Close() int {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	dropped := e.queue.Close()
	if dropped > 0 {
		slog.Debug("shortcut rewrites cancelled", "count", dropped)
	}
	return dropped
}

// runTask re-reads the anchored line and applies the task's rule if the line
// still matches it.
func (e *Engine) runTask(t *task) error {
	line, offset, err := e.host.Line(t.anchor)
	if err != nil {
		return &RewriteError{Rule: t.rule.Name, Offset: t.anchor, Err: err}
	}
	text, ok := e.matchText(line, t.trigger)
	if !ok {
		return nil
	}
	if _, ok := findMatch(t.rule.Pattern, text); !ok {
		slog.Debug("shortcut skipped: line changed", "rule", t.rule.Name, "line_start", t.anchor-offset)
		return nil
	}

	in := Input{
		Text:      text,
		LineText:  line.Text,
		LineStart: t.anchor - offset,
		Selection: t.sel,
		Pattern:   t.rule.Pattern,
	}
	applied, err := t.rule.Action(e.host, in)
	if err != nil {
		return &RewriteError{Rule: t.rule.Name, Offset: in.LineStart, Err: err}
	}
	if !applied {
		return nil
	}

	slog.Debug("shortcut applied", "rule", t.rule.Name, "line_start", in.LineStart)
	if e.onApplied != nil {
		e.onApplied(t.rule.Name)
	}
	return nil
}
