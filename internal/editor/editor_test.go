package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
	"github.com/roach88/notedown/internal/shortcut"
)

func TestMount_FocusesEndOfDocument(t *testing.T) {
	doc := document.New()
	require.NoError(t, doc.InsertText(0, "abc", nil, delta.SourceAPI))

	ed, err := Mount(doc)
	require.NoError(t, err)
	defer ed.Unmount()

	sel, ok := doc.Selection()
	require.True(t, ok)
	assert.Equal(t, 3, sel.Index)
}

func TestMount_KeepsExistingSelection(t *testing.T) {
	doc := document.New()
	require.NoError(t, doc.InsertText(0, "abc", nil, delta.SourceAPI))
	require.NoError(t, doc.SetSelection(1, delta.SourceAPI))

	ed, err := Mount(doc)
	require.NoError(t, err)
	defer ed.Unmount()

	sel, _ := doc.Selection()
	assert.Equal(t, 1, sel.Index)
}

func TestType_AppliesShortcutsAsYouType(t *testing.T) {
	ed, err := Mount(document.New())
	require.NoError(t, err)
	defer ed.Unmount()

	require.NoError(t, ed.Type(context.Background(), "## Notes\n*done* ok"))

	lines := ed.Document().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "H2", lines[0].TagName)
	assert.Equal(t, "Notes", lines[0].Text)
	assert.Equal(t, "done ok", lines[1].Text)
	assert.Equal(t, []string{shortcut.RuleHeader, shortcut.RuleBold}, ed.Applied())
}

func TestManualTick_DefersRewrites(t *testing.T) {
	ed, err := Mount(document.New(), WithManualTick())
	require.NoError(t, err)
	defer ed.Unmount()

	ctx := context.Background()
	require.NoError(t, ed.Type(ctx, "> "))
	assert.Equal(t, 1, ed.Pending())
	assert.Equal(t, "> \n", ed.Document().Text())

	require.NoError(t, ed.Tick(ctx))
	assert.Zero(t, ed.Pending())
	assert.Equal(t, "BLOCKQUOTE", ed.Document().Lines()[0].TagName)
}

func TestUnmount_CancelsPendingRewrites(t *testing.T) {
	ed, err := Mount(document.New(), WithManualTick())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ed.Type(ctx, "## "))
	assert.Equal(t, 1, ed.Unmount())

	assert.ErrorIs(t, ed.Type(ctx, "x"), ErrUnmounted)
	assert.ErrorIs(t, ed.Tick(ctx), ErrUnmounted)
	assert.Equal(t, "## \n", ed.Document().Text())
}

func TestType_StopsOnCancelledContext(t *testing.T) {
	ed, err := Mount(document.New())
	require.NoError(t, err)
	defer ed.Unmount()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ed.Type(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "\n", ed.Document().Text())
}

func TestType_ReportsRewriteFailures(t *testing.T) {
	var handled []error
	ed, err := Mount(document.New(), WithEngineOptions(
		shortcut.WithRules([]shortcut.Rule{{
			Name:    "fail",
			Pattern: shortcut.DefaultRules()[0].Pattern,
			Action: func(shortcut.Host, shortcut.Input) (bool, error) {
				return false, errors.New("host rejected")
			},
		}}),
		shortcut.WithErrorHandler(func(err error) { handled = append(handled, err) }),
	))
	require.NoError(t, err)
	defer ed.Unmount()

	err = ed.Type(context.Background(), "# title")
	require.Error(t, err)
	assert.True(t, shortcut.IsRewriteError(err))
	assert.Equal(t, "# title\n", ed.Document().Text(), "typing continues after a failed rewrite")
	assert.Empty(t, handled, "Drain returns errors rather than calling the handler")
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"---<enter>", "---\n"},
		{"##<space>x", "## x"},
		{"a<tab>b", "a\tb"},
		{"<lt>enter>", "<enter>"},
		{"line\nnext", "line\nnext"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseKeys(tt.in), tt.in)
	}
}
