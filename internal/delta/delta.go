package delta

import (
	"reflect"
	"strings"
	"unicode/utf8"
)

// ObjectReplacement stands in for an embed when a delta is rendered as text.
// Using a single rune keeps text offsets aligned with document offsets.
const ObjectReplacement = '\uFFFC'

// Source identifies who produced a change.
type Source string

const (
	// SourceUser marks changes typed by the user.
	SourceUser Source = "user"
	// SourceAPI marks programmatic changes (shortcut rewrites, loading a note).
	SourceAPI Source = "api"
	// SourceSilent marks changes that should not be observed as edits.
	SourceSilent Source = "silent"
)

// Attributes holds inline or block formats keyed by format name.
// A nil or false value means "remove this format" when composing.
type Attributes map[string]any

// Clone returns a shallow copy. Returns nil for an empty map.
func (a Attributes) Clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Compose overlays b on a. Keys whose value in b is nil or false are removed.
func (a Attributes) Compose(b Attributes) Attributes {
	out := a.Clone()
	for k, v := range b {
		if IsRemoval(v) {
			delete(out, k)
			continue
		}
		if out == nil {
			out = Attributes{}
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Equal reports whether both attribute sets hold the same formats.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// IsRemoval reports whether a format value clears the format.
func IsRemoval(v any) bool {
	if v == nil {
		return true
	}
	b, ok := v.(bool)
	return ok && !b
}

// Embed is a non-text atomic unit (image, horizontal rule). It has length 1.
type Embed struct {
	Type  string
	Value any
}

// Op is a single delta operation: exactly one of Insert, Delete or Retain is set.
// Insert holds either a string or an Embed.
type Op struct {
	Insert     any
	Delete     int
	Retain     int
	Attributes Attributes
}

// Insert returns an insert op for text.
func Insert(text string, attrs Attributes) Op {
	return Op{Insert: text, Attributes: attrs.Clone()}
}

// InsertEmbed returns an insert op for an embed.
func InsertEmbed(e Embed, attrs Attributes) Op {
	return Op{Insert: e, Attributes: attrs.Clone()}
}

// Retain returns a retain op, optionally carrying formats to apply.
func Retain(n int, attrs Attributes) Op {
	return Op{Retain: n, Attributes: attrs}
}

// Delete returns a delete op.
func Delete(n int) Op {
	return Op{Delete: n}
}

// IsInsert reports whether the op inserts content.
func (o Op) IsInsert() bool {
	return o.Insert != nil
}

// Text returns the inserted string, if the op is a text insert.
func (o Op) Text() (string, bool) {
	s, ok := o.Insert.(string)
	return s, ok
}

// Embed returns the inserted embed, if the op is an embed insert.
func (o Op) Embed() (Embed, bool) {
	e, ok := o.Insert.(Embed)
	return e, ok
}

// Len returns the number of characters the op spans.
func (o Op) Len() int {
	switch v := o.Insert.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case Embed:
		return 1
	}
	if o.Delete > 0 {
		return o.Delete
	}
	return o.Retain
}

// Delta is an ordered list of operations. A delta made only of inserts
// describes a whole document; a mixed delta describes a change.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New builds a delta, merging adjacent compatible ops.
func New(ops ...Op) Delta {
	var d Delta
	for _, op := range ops {
		d = d.Push(op)
	}
	return d
}

// Push appends op, merging it into the last op when both are text inserts
// with equal attributes, or both are deletes, or both are plain retains.
// Zero-length ops are dropped.
func (d Delta) Push(op Op) Delta {
	if op.Len() == 0 {
		return d
	}
	n := len(d.Ops)
	if n == 0 {
		d.Ops = append(d.Ops, op)
		return d
	}
	last := &d.Ops[n-1]
	switch {
	case op.Delete > 0 && last.Delete > 0:
		last.Delete += op.Delete
		return d
	case op.Retain > 0 && last.Retain > 0 && len(op.Attributes) == 0 && len(last.Attributes) == 0:
		last.Retain += op.Retain
		return d
	}
	if s, ok := op.Text(); ok {
		if ls, lok := last.Text(); lok && last.Attributes.Equal(op.Attributes) {
			last.Insert = ls + s
			return d
		}
	}
	d.Ops = append(d.Ops, op)
	return d
}

// Length returns the total length of the delta's inserts.
func (d Delta) Length() int {
	n := 0
	for _, op := range d.Ops {
		if op.IsInsert() {
			n += op.Len()
		}
	}
	return n
}

// Text renders the inserts as plain text, embeds as ObjectReplacement.
func (d Delta) Text() string {
	var b strings.Builder
	for _, op := range d.Ops {
		switch v := op.Insert.(type) {
		case string:
			b.WriteString(v)
		case Embed:
			b.WriteRune(ObjectReplacement)
		}
	}
	return b.String()
}

// TransformPosition shifts an absolute offset through a change.
//
// Inserts at or before pos push it right; deletes before pos pull it left,
// never past the start of the deleted range.
func TransformPosition(pos int, d Delta) int {
	offset := 0
	for _, op := range d.Ops {
		if offset > pos {
			break
		}
		n := op.Len()
		switch {
		case op.Delete > 0:
			pos -= min(n, pos-offset)
			continue
		case op.IsInsert():
			pos += n
		}
		offset += n
	}
	return pos
}
