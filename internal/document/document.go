package document

import (
	"fmt"
	"sync"

	"github.com/roach88/notedown/internal/delta"
)

// Default embed types registered by New.
const (
	EmbedImage = "image"
	EmbedHR    = "hr"
)

// Selection is a cursor position. Length is 0 for a point cursor.
type Selection struct {
	Index  int
	Length int
}

// Change is emitted to subscribers after every content mutation.
type Change struct {
	Delta  delta.Delta
	Source delta.Source
}

// piece is one character of content: a rune, an inline embed or a block embed.
// Newline pieces carry the block formats of the line they terminate.
type piece struct {
	r     rune
	embed *delta.Embed
	block bool
	attrs delta.Attributes
}

func (p piece) isNewline() bool { return p.embed == nil && p.r == '\n' }

// endsLine reports whether the piece terminates a line. A block embed is a
// line on its own.
func (p piece) endsLine() bool { return p.isNewline() || p.block }

func (p piece) isText() bool { return p.embed == nil && p.r != '\n' }

type listener struct {
	id int
	fn func(Change)
}

// Document is an in-memory rich-text document. It stores styled content as a
// flat sequence of characters, tracks a cursor and a pending format state, and
// notifies subscribers of every mutation.
//
// All methods are safe for concurrent use. Subscribers are called after the
// mutation is applied and the lock released, so they may read the document.
type Document struct {
	mu        sync.Mutex
	pieces    []piece
	cursor    int
	hasCursor bool
	pending   delta.Attributes
	embeds    map[string]bool // embed type -> block
	closed    bool
	split     int // offset of a newline added by insertPieces, or -1
	listeners []listener
	nextID    int
}

// Option configures a Document at construction time.
type Option func(*Document)

// WithEmbed registers an embed type. Block embeds occupy their own line.
func WithEmbed(embedType string, block bool) Option {
	return func(d *Document) {
		d.embeds[embedType] = block
	}
}

// New creates an empty document (a single empty line) with the image and hr
// embeds registered.
func New(opts ...Option) *Document {
	d := &Document{
		pieces: []piece{{r: '\n'}},
		embeds: map[string]bool{EmbedImage: false, EmbedHR: true},
		split:  -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnChange subscribes fn to content changes. The returned function
// unsubscribes; calling it more than once is harmless.
func (d *Document) OnChange(fn func(Change)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listener{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close disposes the document. Further mutations fail with ErrClosed and
// subscribers are dropped.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.listeners = nil
}

// Len returns the document length, including the final newline.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pieces)
}

// Selection returns the cursor, or false when no cursor has been placed.
func (d *Document) Selection() (Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasCursor {
		return Selection{}, false
	}
	return Selection{Index: d.cursor}, true
}

// SetSelection places the cursor. The offset is clamped to the document, as
// a rich-text view does when asked to select past the end. Placing the cursor
// discards the pending format state.
func (d *Document) SetSelection(offset int, _ delta.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.cursor = max(0, min(offset, len(d.pieces)-1))
	d.hasCursor = true
	d.pending = nil
	return nil
}

// Format sets a running style for the next typed character. A false value
// turns the style off even if the previous character carries it.
func (d *Document) Format(name string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasCursor {
		return
	}
	if d.pending == nil {
		d.pending = delta.Attributes{}
	}
	d.pending[name] = value
}

// PendingFormat returns a copy of the running style state.
func (d *Document) PendingFormat() delta.Attributes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending.Clone()
}

// DeleteText removes length characters starting at offset. The final newline
// cannot be deleted.
func (d *Document) DeleteText(offset, length int, source delta.Source) error {
	return d.mutate(source, func() (delta.Delta, error) {
		if offset < 0 || length < 0 || offset+length > len(d.pieces)-1 {
			return delta.Delta{}, d.rangeError(offset, length)
		}
		if length == 0 {
			return delta.Delta{}, nil
		}

		d.pieces = append(d.pieces[:offset:offset], d.pieces[offset+length:]...)
		change := delta.New(delta.Retain(offset, nil), delta.Delete(length))

		// Joining text onto a block embed line splits it again.
		if offset > 0 && d.pieces[offset].block && !d.pieces[offset-1].endsLine() {
			d.insertPieces(offset, []piece{{r: '\n'}})
			change = change.Push(delta.Insert("\n", nil))
		}
		return change, nil
	})
}

// InsertText inserts text with inline attributes at offset. Inserted newlines
// copy the block formats of the line they split.
func (d *Document) InsertText(offset int, text string, attrs delta.Attributes, source delta.Source) error {
	return d.mutate(source, func() (delta.Delta, error) {
		if offset < 0 || offset > len(d.pieces)-1 {
			return delta.Delta{}, d.rangeError(offset, 0)
		}
		if text == "" {
			return delta.Delta{}, nil
		}

		lineFormat := d.lineFormatAt(offset)
		ps := make([]piece, 0, len(text))
		for _, r := range text {
			if r == '\n' {
				ps = append(ps, piece{r: r, attrs: lineFormat.Clone()})
				continue
			}
			ps = append(ps, piece{r: r, attrs: attrs.Clone()})
		}
		return d.insertPieces(offset, ps), nil
	})
}

// InsertEmbed inserts a registered embed at offset. A block embed inserted in
// the middle of a line splits the line first.
func (d *Document) InsertEmbed(offset int, embedType string, value any, source delta.Source) error {
	return d.mutate(source, func() (delta.Delta, error) {
		block, ok := d.embeds[embedType]
		if !ok {
			return delta.Delta{}, fmt.Errorf("%w: %q", ErrUnknownEmbed, embedType)
		}
		if offset < 0 || offset > len(d.pieces)-1 {
			return delta.Delta{}, d.rangeError(offset, 0)
		}

		e := delta.Embed{Type: embedType, Value: value}
		var ps []piece
		if block && offset > 0 && !d.pieces[offset-1].endsLine() {
			ps = append(ps, piece{r: '\n', attrs: d.lineFormatAt(offset).Clone()})
		}
		ps = append(ps, piece{embed: &e, block: block})
		return d.insertPieces(offset, ps), nil
	})
}

// FormatLine applies a block format to every line overlapping
// [offset, offset+length]. A nil or false value removes the format. Block
// formats are exclusive: setting one clears the others.
func (d *Document) FormatLine(offset, length int, name string, value any, source delta.Source) error {
	return d.mutate(source, func() (delta.Delta, error) {
		if offset < 0 || length < 0 || offset > len(d.pieces)-1 || offset+length > len(d.pieces) {
			return delta.Delta{}, d.rangeError(offset, length)
		}

		end := min(offset+length, len(d.pieces)-1)
		var change delta.Delta
		prev := 0
		for i := d.lineStartAt(offset); i < len(d.pieces); i++ {
			p := d.pieces[i]
			if !p.endsLine() {
				continue
			}
			if p.isNewline() {
				next := applyBlockFormat(p.attrs, name, value)
				if diff := diffAttributes(p.attrs, next); diff != nil {
					d.pieces[i].attrs = next
					change = change.Push(delta.Retain(i-prev, nil))
					change = change.Push(delta.Retain(1, diff))
					prev = i + 1
				}
			}
			if i >= end {
				break
			}
		}
		return change, nil
	})
}

// Type simulates a keystroke at the cursor. Typed text inherits the inline
// formats of the previous character on the line, overlaid with the pending
// format state; a typed newline keeps the line's block formats. The cursor
// moves past the character before subscribers are notified.
func (d *Document) Type(r rune) error {
	return d.mutate(delta.SourceUser, func() (delta.Delta, error) {
		if !d.hasCursor {
			return delta.Delta{}, ErrNoSelection
		}
		at := d.cursor

		var attrs delta.Attributes
		if r == '\n' {
			attrs = d.lineFormatAt(at).Clone()
		} else {
			attrs = d.inheritedAt(at).Compose(d.pending)
		}
		d.pending = nil
		return d.insertPieces(at, []piece{{r: r, attrs: attrs}}), nil
	})
}

// Contents returns the document as a delta of inserts.
func (d *Document) Contents() delta.Delta {
	d.mu.Lock()
	defer d.mu.Unlock()
	return piecesToDelta(d.pieces)
}

// Text returns the plain text, embeds rendered as U+FFFC.
func (d *Document) Text() string {
	return d.Contents().Text()
}

// SetContents replaces the whole document. The delta must contain only
// inserts; a final newline is added when missing.
func (d *Document) SetContents(contents delta.Delta, source delta.Source) error {
	return d.mutate(source, func() (delta.Delta, error) {
		var ps []piece
		for i, op := range contents.Ops {
			switch v := op.Insert.(type) {
			case string:
				for _, r := range v {
					ps = appendPiece(ps, piece{r: r, attrs: op.Attributes.Clone()})
				}
			case delta.Embed:
				block, ok := d.embeds[v.Type]
				if !ok {
					return delta.Delta{}, fmt.Errorf("%w: %q", ErrUnknownEmbed, v.Type)
				}
				e := v
				ps = appendPiece(ps, piece{embed: &e, block: block, attrs: op.Attributes.Clone()})
			default:
				return delta.Delta{}, fmt.Errorf("%w: op %d is not an insert", ErrInvalidContents, i)
			}
		}
		if len(ps) == 0 || !ps[len(ps)-1].isNewline() {
			ps = append(ps, piece{r: '\n'})
		}

		old := len(d.pieces)
		d.pieces = ps
		change := piecesToDelta(ps)
		change = change.Push(delta.Delete(old))
		return change, nil
	})
}

// mutate runs fn under the lock, shifts the cursor through the resulting
// change and notifies subscribers once the lock is released.
func (d *Document) mutate(source delta.Source, fn func() (delta.Delta, error)) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.split = -1
	change, err := fn()
	if err != nil || len(change.Ops) == 0 {
		d.mu.Unlock()
		return err
	}
	if d.hasCursor {
		d.cursor = max(0, min(delta.TransformPosition(d.cursor, change), len(d.pieces)-1))
		// A cursor pushed past a split newline stays on the text line.
		if d.split >= 0 && d.cursor == d.split+1 {
			d.cursor = d.split
		}
	}
	ev := Change{Delta: change, Source: source}
	fns := make([]func(Change), len(d.listeners))
	for i, l := range d.listeners {
		fns[i] = l.fn
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

// insertPieces splices ps in at offset and returns the change. Content that
// would end up on the same line as a following block embed gets its own
// newline, recorded in d.split. Caller holds the lock.
func (d *Document) insertPieces(offset int, ps []piece) delta.Delta {
	if d.pieces[offset].block && !ps[len(ps)-1].endsLine() {
		ps = append(ps, piece{r: '\n'})
		d.split = offset + len(ps) - 1
	}

	out := make([]piece, 0, len(d.pieces)+len(ps))
	out = append(out, d.pieces[:offset]...)
	out = append(out, ps...)
	out = append(out, d.pieces[offset:]...)
	d.pieces = out

	change := delta.New(delta.Retain(offset, nil))
	for _, op := range piecesToDelta(ps).Ops {
		change = change.Push(op)
	}
	return change
}

// lineStartAt returns the offset of the first character of the line holding
// offset. Caller holds the lock.
func (d *Document) lineStartAt(offset int) int {
	if d.pieces[offset].block {
		return offset
	}
	start := offset
	for start > 0 && !d.pieces[start-1].endsLine() {
		start--
	}
	return start
}

// lineEndAt returns the index of the terminator of the line holding offset.
// Caller holds the lock.
func (d *Document) lineEndAt(offset int) int {
	end := offset
	for !d.pieces[end].endsLine() {
		end++
	}
	return end
}

// lineFormatAt returns the block formats of the line holding offset.
// Caller holds the lock.
func (d *Document) lineFormatAt(offset int) delta.Attributes {
	p := d.pieces[d.lineEndAt(offset)]
	if p.block {
		return nil
	}
	return p.attrs
}

// inheritedAt returns the inline formats a character typed at offset takes
// from its left neighbour on the same line. Caller holds the lock.
func (d *Document) inheritedAt(offset int) delta.Attributes {
	if offset == 0 || !d.pieces[offset-1].isText() {
		return nil
	}
	return d.pieces[offset-1].attrs
}

func (d *Document) rangeError(offset, length int) error {
	return fmt.Errorf("%w: offset %d length %d (document length %d)",
		ErrOffsetOutOfRange, offset, length, len(d.pieces))
}

func appendPiece(ps []piece, p piece) []piece {
	if p.block && len(ps) > 0 && !ps[len(ps)-1].endsLine() {
		ps = append(ps, piece{r: '\n'})
	}
	return append(ps, p)
}

func piecesToDelta(ps []piece) delta.Delta {
	var d delta.Delta
	for _, p := range ps {
		if p.embed != nil {
			d = d.Push(delta.InsertEmbed(*p.embed, p.attrs))
			continue
		}
		d = d.Push(delta.Insert(string(p.r), p.attrs))
	}
	return d
}
