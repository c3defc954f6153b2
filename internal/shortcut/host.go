package shortcut

import (
	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
)

// Host is the rich-text document the engine edits. It is exactly the
// capability set the engine needs; *document.Document implements it.
type Host interface {
	Selection() (document.Selection, bool)
	Line(offset int) (document.Line, int, error)
	DeleteText(offset, length int, source delta.Source) error
	InsertText(offset int, text string, attrs delta.Attributes, source delta.Source) error
	FormatLine(offset, length int, name string, value any, source delta.Source) error
	Format(name string, value any)
	InsertEmbed(offset int, embedType string, value any, source delta.Source) error
	SetSelection(offset int, source delta.Source) error
	OnChange(fn func(document.Change)) (unsubscribe func())
}

var _ Host = (*document.Document)(nil)
