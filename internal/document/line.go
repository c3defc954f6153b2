package document

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/notedown/internal/delta"
)

// Line is a snapshot of one line of the document.
type Line struct {
	// Start is the absolute offset of the line's first character.
	Start int
	// Text is the line's plain text without its newline. Embeds render as
	// U+FFFC so that text offsets equal document offsets.
	Text string
	// TagName names the element the line renders as: P, H1..H6,
	// BLOCKQUOTE, PRE, LI, or the upper-cased type of a block embed.
	TagName string
	// Format holds the line's block formats.
	Format delta.Attributes
	// Length counts the line's characters including its terminator.
	Length int
}

// Line returns the line holding offset and the offset within that line.
func (d *Document) Line(offset int) (Line, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if offset < 0 || offset > len(d.pieces)-1 {
		return Line{}, 0, d.rangeError(offset, 0)
	}
	start := d.lineStartAt(offset)
	return d.lineAt(start), offset - start, nil
}

// Lines returns every line in document order.
func (d *Document) Lines() []Line {
	d.mu.Lock()
	defer d.mu.Unlock()
	var lines []Line
	for start := 0; start < len(d.pieces); {
		l := d.lineAt(start)
		lines = append(lines, l)
		start += l.Length
	}
	return lines
}

// lineAt builds the line starting at start. Caller holds the lock.
func (d *Document) lineAt(start int) Line {
	end := d.lineEndAt(start)
	term := d.pieces[end]
	if term.block {
		return Line{
			Start:   start,
			Text:    string(delta.ObjectReplacement),
			TagName: strings.ToUpper(term.embed.Type),
			Length:  1,
		}
	}

	var b strings.Builder
	for _, p := range d.pieces[start:end] {
		if p.embed != nil {
			b.WriteRune(delta.ObjectReplacement)
			continue
		}
		b.WriteRune(p.r)
	}
	return Line{
		Start:   start,
		Text:    b.String(),
		TagName: TagName(term.attrs),
		Format:  term.attrs.Clone(),
		Length:  end - start + 1,
	}
}

// TagName maps block formats to the element name a line renders as.
func TagName(format delta.Attributes) string {
	switch {
	case format["header"] != nil:
		if level, ok := headerLevel(format["header"]); ok {
			return fmt.Sprintf("H%d", level)
		}
	case format["blockquote"] != nil:
		return "BLOCKQUOTE"
	case format["code-block"] != nil:
		return "PRE"
	case format["list"] != nil:
		return "LI"
	}
	return "P"
}

func headerLevel(v any) (int, bool) {
	var level int
	switch n := v.(type) {
	case int:
		level = n
	case int64:
		level = int(n)
	case float64:
		level = int(n)
	default:
		return 0, false
	}
	if level < 1 || level > 6 {
		return 0, false
	}
	return level, true
}

var blockFormats = []string{"header", "blockquote", "code-block", "list"}

func isBlockFormat(name string) bool {
	for _, f := range blockFormats {
		if f == name {
			return true
		}
	}
	return false
}

// applyBlockFormat returns attrs with name set to value. Setting a block
// format clears the other block formats.
func applyBlockFormat(attrs delta.Attributes, name string, value any) delta.Attributes {
	next := attrs.Clone()
	if !delta.IsRemoval(value) && isBlockFormat(name) {
		for _, f := range blockFormats {
			delete(next, f)
		}
	}
	return next.Compose(delta.Attributes{name: value})
}

// diffAttributes returns the format change turning from into to, with nil
// marking removed keys. Returns nil when nothing changed.
func diffAttributes(from, to delta.Attributes) delta.Attributes {
	var diff delta.Attributes
	set := func(k string, v any) {
		if diff == nil {
			diff = delta.Attributes{}
		}
		diff[k] = v
	}
	for k, v := range to {
		if w, ok := from[k]; !ok || !reflect.DeepEqual(v, w) {
			set(k, v)
		}
	}
	for k := range from {
		if _, ok := to[k]; !ok {
			set(k, nil)
		}
	}
	return diff
}
