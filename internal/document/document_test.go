package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notedown/internal/delta"
)

func typeString(t *testing.T, d *Document, s string) {
	t.Helper()
	for _, r := range s {
		require.NoError(t, d.Type(r))
	}
}

func TestNew_EmptyDocument(t *testing.T) {
	d := New()

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, "\n", d.Text())

	_, ok := d.Selection()
	assert.False(t, ok, "a fresh document has no cursor")

	lines := d.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "P", lines[0].TagName)
	assert.Equal(t, "", lines[0].Text)
}

func TestType_RequiresSelection(t *testing.T) {
	d := New()
	assert.ErrorIs(t, d.Type('a'), ErrNoSelection)
}

func TestType_MovesCursorBeforeNotifying(t *testing.T) {
	d := New()
	require.NoError(t, d.SetSelection(0, delta.SourceAPI))

	var changes []Change
	var cursors []int
	d.OnChange(func(c Change) {
		changes = append(changes, c)
		sel, _ := d.Selection()
		cursors = append(cursors, sel.Index)
	})

	typeString(t, d, "ab")

	assert.Equal(t, "ab\n", d.Text())
	assert.Equal(t, []int{1, 2}, cursors)
	require.Len(t, changes, 2)
	assert.Equal(t, delta.SourceUser, changes[0].Source)
	assert.Equal(t, delta.New(delta.Insert("a", nil)), changes[0].Delta)
	assert.Equal(t, delta.New(delta.Retain(1, nil), delta.Insert("b", nil)), changes[1].Delta)
}

func TestType_InheritsFormatAndHonoursPendingState(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "bold", delta.Attributes{"bold": true}, delta.SourceAPI))
	require.NoError(t, d.SetSelection(4, delta.SourceAPI))

	require.NoError(t, d.Type('x'))
	d.Format("bold", false)
	assert.Equal(t, delta.Attributes{"bold": false}, d.PendingFormat())
	require.NoError(t, d.Type('y'))

	assert.Nil(t, d.PendingFormat(), "typing consumes the pending state")
	assert.Equal(t, delta.New(
		delta.Insert("boldx", delta.Attributes{"bold": true}),
		delta.Insert("y\n", nil),
	), d.Contents())
}

func TestType_NewlineKeepsBlockFormat(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "title", nil, delta.SourceAPI))
	require.NoError(t, d.FormatLine(0, 0, "header", 1, delta.SourceAPI))
	require.NoError(t, d.SetSelection(5, delta.SourceAPI))

	require.NoError(t, d.Type('\n'))

	lines := d.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "title", lines[0].Text)
	assert.Equal(t, "H1", lines[0].TagName)
	assert.Equal(t, "", lines[1].Text)
	assert.Equal(t, "H1", lines[1].TagName)

	sel, ok := d.Selection()
	require.True(t, ok)
	assert.Equal(t, 6, sel.Index)
}

func TestDeleteText_Ranges(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "abc", nil, delta.SourceAPI))

	assert.ErrorIs(t, d.DeleteText(0, 4, delta.SourceAPI), ErrOffsetOutOfRange, "final newline is not deletable")
	assert.ErrorIs(t, d.DeleteText(-1, 1, delta.SourceAPI), ErrOffsetOutOfRange)
	assert.ErrorIs(t, d.DeleteText(1, -1, delta.SourceAPI), ErrOffsetOutOfRange)

	require.NoError(t, d.DeleteText(1, 2, delta.SourceAPI))
	assert.Equal(t, "a\n", d.Text())
}

func TestDeleteText_ShiftsCursor(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "abcdef", nil, delta.SourceAPI))
	require.NoError(t, d.SetSelection(5, delta.SourceAPI))

	require.NoError(t, d.DeleteText(1, 2, delta.SourceAPI))

	sel, _ := d.Selection()
	assert.Equal(t, 3, sel.Index)
}

func TestFormatLine_BlockFormatsAreExclusive(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "q", nil, delta.SourceAPI))
	require.NoError(t, d.FormatLine(0, 0, "header", 2, delta.SourceAPI))

	var got []Change
	d.OnChange(func(c Change) { got = append(got, c) })

	require.NoError(t, d.FormatLine(0, 0, "blockquote", true, delta.SourceAPI))

	line, _, err := d.Line(0)
	require.NoError(t, err)
	assert.Equal(t, "BLOCKQUOTE", line.TagName)
	assert.Equal(t, delta.Attributes{"blockquote": true}, line.Format)

	require.Len(t, got, 1)
	assert.Equal(t, delta.New(
		delta.Retain(1, nil),
		delta.Retain(1, delta.Attributes{"blockquote": true, "header": nil}),
	), got[0].Delta)
}

func TestFormatLine_SpansSeveralLines(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "a\nb\nc", nil, delta.SourceAPI))

	require.NoError(t, d.FormatLine(0, 3, "list", "unordered", delta.SourceAPI))

	var tags []string
	for _, l := range d.Lines() {
		tags = append(tags, l.TagName)
	}
	assert.Equal(t, []string{"LI", "LI", "P"}, tags)
}

func TestFormatLine_UnchangedEmitsNothing(t *testing.T) {
	d := New()
	calls := 0
	d.OnChange(func(Change) { calls++ })

	require.NoError(t, d.FormatLine(0, 0, "header", false, delta.SourceAPI))
	assert.Zero(t, calls)
}

func TestInsertEmbed(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "ab\n", nil, delta.SourceAPI))

	assert.ErrorIs(t, d.InsertEmbed(0, "video", "x", delta.SourceAPI), ErrUnknownEmbed)

	require.NoError(t, d.InsertEmbed(1, EmbedHR, true, delta.SourceAPI))

	lines := d.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, "a", lines[0].Text)
	assert.Equal(t, "HR", lines[1].TagName)
	assert.Equal(t, 1, lines[1].Length)
	assert.Equal(t, "b", lines[2].Text)
	assert.Equal(t, "", lines[3].Text)
}

func TestType_BeforeBlockEmbedStaysOnOneLine(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertEmbed(0, EmbedHR, true, delta.SourceAPI))
	require.NoError(t, d.SetSelection(0, delta.SourceAPI))

	typeString(t, d, "ab")

	lines := d.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "P", lines[0].TagName)
	assert.Equal(t, "ab", lines[0].Text)
	assert.Equal(t, "HR", lines[1].TagName)
	assert.Equal(t, "", lines[2].Text)

	sel, ok := d.Selection()
	require.True(t, ok)
	assert.Equal(t, 2, sel.Index)
}

func TestInsertText_BeforeBlockEmbedKeepsLaterCursor(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertEmbed(0, EmbedHR, true, delta.SourceAPI))
	require.NoError(t, d.SetSelection(1, delta.SourceAPI))

	require.NoError(t, d.InsertText(0, "x", nil, delta.SourceAPI))

	assert.Equal(t, "x\n\uFFFC\n", d.Text())
	sel, ok := d.Selection()
	require.True(t, ok)
	assert.Equal(t, 3, sel.Index)
}

func TestInsertEmbed_InlineImageRendersAsObjectReplacement(t *testing.T) {
	d := New()
	require.NoError(t, d.InsertText(0, "ab", nil, delta.SourceAPI))
	require.NoError(t, d.InsertEmbed(1, EmbedImage, "x.png", delta.SourceAPI))

	line, off, err := d.Line(2)
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFCb", line.Text)
	assert.Equal(t, 2, off)
	assert.Equal(t, 0, line.Start)
}

func TestWithEmbed_RegistersCustomType(t *testing.T) {
	d := New(WithEmbed("formula", false))
	require.NoError(t, d.InsertEmbed(0, "formula", "e=mc^2", delta.SourceAPI))
	assert.Equal(t, 2, d.Len())
}

func TestLine_OutOfRange(t *testing.T) {
	d := New()
	_, _, err := d.Line(1)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
}

func TestSetSelection_Clamps(t *testing.T) {
	d := New()
	require.NoError(t, d.SetSelection(10, delta.SourceSilent))
	sel, ok := d.Selection()
	require.True(t, ok)
	assert.Equal(t, 0, sel.Index)
}

func TestSetContents(t *testing.T) {
	d := New()
	contents := delta.New(
		delta.Insert("Title", nil),
		delta.Insert("\n", delta.Attributes{"header": 1}),
		delta.InsertEmbed(delta.Embed{Type: EmbedHR, Value: true}, nil),
		delta.Insert("body\n", nil),
	)

	require.NoError(t, d.SetContents(contents, delta.SourceAPI))
	assert.Equal(t, contents, d.Contents())

	err := d.SetContents(delta.New(delta.Retain(1, nil)), delta.SourceAPI)
	assert.ErrorIs(t, err, ErrInvalidContents)

	err = d.SetContents(delta.New(delta.InsertEmbed(delta.Embed{Type: "video"}, nil)), delta.SourceAPI)
	assert.ErrorIs(t, err, ErrUnknownEmbed)
}

func TestSetContents_AddsFinalNewline(t *testing.T) {
	d := New()
	require.NoError(t, d.SetContents(delta.New(delta.Insert("abc", nil)), delta.SourceAPI))
	assert.Equal(t, "abc\n", d.Text())
}

func TestOnChange_Unsubscribe(t *testing.T) {
	d := New()
	calls := 0
	unsubscribe := d.OnChange(func(Change) { calls++ })

	require.NoError(t, d.InsertText(0, "a", nil, delta.SourceAPI))
	unsubscribe()
	unsubscribe()
	require.NoError(t, d.InsertText(0, "b", nil, delta.SourceAPI))

	assert.Equal(t, 1, calls)
}

func TestClose_RejectsMutations(t *testing.T) {
	d := New()
	d.Close()

	assert.ErrorIs(t, d.InsertText(0, "a", nil, delta.SourceAPI), ErrClosed)
	assert.ErrorIs(t, d.SetSelection(0, delta.SourceAPI), ErrClosed)
}

func TestTagName(t *testing.T) {
	tests := []struct {
		format delta.Attributes
		want   string
	}{
		{nil, "P"},
		{delta.Attributes{"header": 3}, "H3"},
		{delta.Attributes{"header": float64(6)}, "H6"},
		{delta.Attributes{"header": 9}, "P"},
		{delta.Attributes{"blockquote": true}, "BLOCKQUOTE"},
		{delta.Attributes{"code-block": true}, "PRE"},
		{delta.Attributes{"list": "unordered"}, "LI"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TagName(tt.format), "%v", tt.format)
	}
}
