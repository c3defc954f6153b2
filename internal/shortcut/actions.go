package shortcut

import (
	"strings"
	"unicode"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
)

// lineAction turns the line into a block and deletes the Markdown marker.
// The marker is the whole match, clamped to the stored line so a space
// appended for matching is never deleted.
//
// When enter completed a line holding only the marker, the marker and the
// typed newline are both deleted and the line the cursor moved to takes
// the format.
func lineAction(format string, value func(match) any) Action {
	return func(h Host, in Input) (bool, error) {
		m, ok := in.match()
		if !ok {
			return false, nil
		}
		start, end, _ := m.span(0)
		end = min(end, runeLen(in.LineText))
		if start == 0 && end == runeLen(in.LineText) && in.Selection.Length > 0 && in.Selection.Index == in.LineStart+end {
			if err := h.DeleteText(in.LineStart, in.Selection.Index+in.Selection.Length-in.LineStart, delta.SourceAPI); err != nil {
				return false, err
			}
			return done(h.FormatLine(in.LineStart, 0, format, value(m), delta.SourceAPI))
		}
		if err := h.FormatLine(in.LineStart, 0, format, value(m), delta.SourceAPI); err != nil {
			return false, err
		}
		if end <= start {
			return true, nil
		}
		return done(h.DeleteText(in.LineStart+start, end-start, delta.SourceAPI))
	}
}

// wrap describes an inline rule that replaces delimited text with a
// formatted run.
type wrap struct {
	// delims are the wrapper characters; a line made only of these and
	// whitespace is left alone.
	delims string
	attrs  delta.Attributes
	// reset names the pending formats cleared after the run is inserted.
	reset         []string
	trailingSpace bool
}

func wrapAction(w wrap) Action {
	return func(h Host, in Input) (bool, error) {
		if onlyWrapper(in.Text, w.delims) {
			return false, nil
		}
		m, ok := in.match()
		if !ok {
			return false, nil
		}
		spanGroup := max(in.Pattern.SubexpIndex("wrap"), 0)
		start, end, ok := m.span(spanGroup)
		if !ok || end > runeLen(in.LineText) {
			return false, nil
		}
		content := m.group(in.Pattern.SubexpIndex("content"))

		at := in.LineStart + start
		if err := h.DeleteText(at, end-start, delta.SourceAPI); err != nil {
			return false, err
		}
		if err := h.InsertText(at, content, w.attrs.Clone(), delta.SourceAPI); err != nil {
			return false, err
		}
		for _, name := range w.reset {
			h.Format(name, false)
		}
		if w.trailingSpace {
			return done(h.InsertText(at+runeLen(content), " ", nil, delta.SourceAPI))
		}
		return true, nil
	}
}

// onlyWrapper reports whether text holds nothing but delimiter characters
// and whitespace.
func onlyWrapper(text, delims string) bool {
	rest := strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(delims, r)
	})
	return rest == ""
}

func hrAction(h Host, in Input) (bool, error) {
	if _, ok := in.match(); !ok {
		return false, nil
	}
	if n := runeLen(in.LineText); n > 0 {
		if err := h.DeleteText(in.LineStart, n, delta.SourceAPI); err != nil {
			return false, err
		}
	}
	if err := h.InsertEmbed(in.LineStart, document.EmbedHR, true, delta.SourceAPI); err != nil {
		return false, err
	}
	return done(h.SetSelection(in.LineStart+2, delta.SourceSilent))
}

func imageAction(h Host, in Input) (bool, error) {
	m, ok := in.match()
	if !ok {
		return false, nil
	}
	start, end, _ := m.span(0)
	if end > runeLen(in.LineText) {
		return false, nil
	}
	at := in.LineStart + start
	if err := h.DeleteText(at, end-start, delta.SourceAPI); err != nil {
		return false, err
	}
	return done(h.InsertEmbed(at, document.EmbedImage, m.group(2), delta.SourceAPI))
}

func linkAction(h Host, in Input) (bool, error) {
	m, ok := in.match()
	if !ok {
		return false, nil
	}
	start, end, _ := m.span(0)
	if end > runeLen(in.LineText) {
		return false, nil
	}
	at := in.LineStart + start
	if err := h.DeleteText(at, end-start, delta.SourceAPI); err != nil {
		return false, err
	}
	return done(h.InsertText(at, m.group(1), delta.Attributes{"link": m.group(2)}, delta.SourceAPI))
}

// done reports a rewrite as applied when its last host call succeeded.
func done(err error) (bool, error) {
	return err == nil, err
}
