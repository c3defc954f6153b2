package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/notedown/internal/delta"
)

// fold normalises s for matching: NFC, then Unicode case folding.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// searchText is the folded text SearchNotes matches against. Embeds do not
// take part in matching.
func searchText(title string, contents delta.Delta) string {
	text := strings.ReplaceAll(contents.Text(), string(delta.ObjectReplacement), " ")
	return fold(title + "\n" + text)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchNotes returns the notes whose title or text contains query, ignoring
// case and Unicode normalisation form, and that carry every tag in tags.
// An empty query matches every note. Results are ordered like ListNotes.
func (s *Store) SearchNotes(ctx context.Context, query string, tags []string) ([]Note, error) {
	var (
		where []string
		args  []any
	)

	if q := strings.TrimSpace(query); q != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(fold(q))+"%")
	}

	if tags = normalizeTags(tags); len(tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tags)), ", ")
		where = append(where, fmt.Sprintf(`id IN (
			SELECT note_id FROM note_tags
			WHERE tag IN (%s)
			GROUP BY note_id
			HAVING COUNT(DISTINCT tag) = ?
		)`, placeholders))
		for _, t := range tags {
			args = append(args, t)
		}
		args = append(args, len(tags))
	}

	query = `SELECT id, title, contents, created_at, updated_at FROM notes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id ASC COLLATE BINARY"

	notes, err := s.queryNotes(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}
