// Package editor mounts the shortcut engine on a document and drives it the
// way an editor view does: keystrokes go to the document, and deferred
// rewrites run on the next tick, before the following keystroke.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
	"github.com/roach88/notedown/internal/shortcut"
)

// ErrUnmounted is returned when an unmounted editor is used.
var ErrUnmounted = errors.New("editor unmounted")

// Editor is a document with a mounted shortcut engine.
type Editor struct {
	doc    *document.Document
	engine *shortcut.Engine
	manual bool

	mu      sync.Mutex
	applied []string
	mounted bool
}

type options struct {
	engine []shortcut.Option
	manual bool
}

// Option configures Mount.
type Option func(*options)

// WithEngineOptions passes options through to the shortcut engine.
func WithEngineOptions(opts ...shortcut.Option) Option {
	return func(o *options) {
		o.engine = append(o.engine, opts...)
	}
}

// WithManualTick stops Type from draining after each keystroke. Rewrites
// pile up until Tick is called.
func WithManualTick() Option {
	return func(o *options) {
		o.manual = true
	}
}

// Mount attaches a shortcut engine to doc. A document without a cursor is
// focused at the end of its text.
func Mount(doc *document.Document, opts ...Option) (*Editor, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if _, ok := doc.Selection(); !ok {
		if err := doc.SetSelection(doc.Len()-1, delta.SourceSilent); err != nil {
			return nil, fmt.Errorf("focus document: %w", err)
		}
	}

	ed := &Editor{doc: doc, manual: o.manual, mounted: true}
	engineOpts := append([]shortcut.Option{shortcut.WithAppliedHook(ed.record)}, o.engine...)
	ed.engine = shortcut.New(doc, engineOpts...)
	return ed, nil
}

func (ed *Editor) record(rule string) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.applied = append(ed.applied, rule)
}

// Document returns the edited document.
func (ed *Editor) Document() *document.Document {
	return ed.doc
}

// Applied returns the names of the rules applied so far, in order.
func (ed *Editor) Applied() []string {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return append([]string{}, ed.applied...)
}

// Pending returns the number of rewrites waiting for the next tick.
func (ed *Editor) Pending() int {
	return ed.engine.Pending()
}

// Type types text at the cursor one rune at a time. Unless the editor ticks
// manually, pending rewrites run after every keystroke. Rewrite failures do
// not stop typing; they are returned joined once text is typed.
func (ed *Editor) Type(ctx context.Context, text string) error {
	if !ed.isMounted() {
		return ErrUnmounted
	}
	var errs []error
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := ed.doc.Type(r); err != nil {
			return errors.Join(append(errs, fmt.Errorf("type %q: %w", r, err))...)
		}
		if ed.manual {
			continue
		}
		if err := ed.engine.Drain(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TypeKeys types a key script. See ParseKeys.
func (ed *Editor) TypeKeys(ctx context.Context, keys string) error {
	return ed.Type(ctx, ParseKeys(keys))
}

// Tick runs every pending rewrite.
func (ed *Editor) Tick(ctx context.Context) error {
	if !ed.isMounted() {
		return ErrUnmounted
	}
	return ed.engine.Drain(ctx)
}

// Unmount detaches the engine and cancels pending rewrites, returning how
// many were cancelled. The document stays usable.
func (ed *Editor) Unmount() int {
	ed.mu.Lock()
	ed.mounted = false
	ed.mu.Unlock()

	dropped := ed.engine.Close()
	slog.Debug("editor unmounted", "cancelled", dropped)
	return dropped
}

func (ed *Editor) isMounted() bool {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.mounted
}

var keyTokens = strings.NewReplacer(
	"<enter>", "\n",
	"<space>", " ",
	"<tab>", "\t",
	"<lt>", "<",
)

// ParseKeys expands a key script into typed text. Besides literal text
// (including real newlines) it understands <enter>, <space>, <tab> and <lt>
// for a literal '<'.
func ParseKeys(keys string) string {
	return keyTokens.Replace(keys)
}
