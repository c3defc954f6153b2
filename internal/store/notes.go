package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/notedown/internal/delta"
)

// DefaultTitle is the title of a note created without one.
const DefaultTitle = "Untitled Note"

// ErrNotFound is returned when a note does not exist.
var ErrNotFound = errors.New("note not found")

// Note is a stored note. Contents is the document delta.
type Note struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Contents  delta.Delta `json:"contents"`
	Tags      []string    `json:"tags"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Text returns the note's plain text.
func (n Note) Text() string {
	return n.Contents.Text()
}

// CreateNote stores a new note. An empty title becomes DefaultTitle and
// empty contents become a single empty line.
func (s *Store) CreateNote(ctx context.Context, title string, contents delta.Delta, tags ...string) (Note, error) {
	now := s.now()
	n := Note{
		ID:        s.ids.Generate(),
		Title:     title,
		Contents:  contents,
		Tags:      normalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultTitle
	}
	if n.Contents.Length() == 0 {
		n.Contents = delta.New(delta.Insert("\n", nil))
	}

	contentsJSON, err := json.Marshal(n.Contents)
	if err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, title, contents, search_text, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			n.ID,
			n.Title,
			string(contentsJSON),
			searchText(n.Title, n.Contents),
			n.CreatedAt.UnixNano(),
			n.UpdatedAt.UnixNano(),
		)
		if err != nil {
			return err
		}
		return writeTags(ctx, tx, n.ID, n.Tags)
	})
	if err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// GetNote returns the note with the given ID, or ErrNotFound.
func (s *Store) GetNote(ctx context.Context, id string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, contents, created_at, updated_at
		FROM notes
		WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, fmt.Errorf("get note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	if err := s.loadTags(ctx, []*Note{&n}); err != nil {
		return Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

// UpdateNote saves the title, contents and tags of n and bumps its update
// time. Returns the saved note.
func (s *Store) UpdateNote(ctx context.Context, n Note) (Note, error) {
	n.Tags = normalizeTags(n.Tags)
	n.UpdatedAt = s.now()
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultTitle
	}

	contentsJSON, err := json.Marshal(n.Contents)
	if err != nil {
		return Note{}, fmt.Errorf("update note %s: %w", n.ID, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE notes
			SET title = ?, contents = ?, search_text = ?, updated_at = ?
			WHERE id = ?
		`,
			n.Title,
			string(contentsJSON),
			searchText(n.Title, n.Contents),
			n.UpdatedAt.UnixNano(),
			n.ID,
		)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, n.ID); err != nil {
			return err
		}
		return writeTags(ctx, tx, n.ID, n.Tags)
	})
	if err != nil {
		return Note{}, fmt.Errorf("update note %s: %w", n.ID, err)
	}

	// created_at is owned by the store.
	saved, err := s.GetNote(ctx, n.ID)
	if err != nil {
		return Note{}, err
	}
	return saved, nil
}

// CopyNote stores a copy of a note titled "<title> copy".
func (s *Store) CopyNote(ctx context.Context, id string) (Note, error) {
	src, err := s.GetNote(ctx, id)
	if err != nil {
		return Note{}, err
	}
	return s.CreateNote(ctx, src.Title+" copy", src.Contents, src.Tags...)
}

// DeleteNote removes a note and its tags.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete note %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListNotes returns every note, most recently updated first. Ties are
// broken by ID for deterministic output.
func (s *Store) ListNotes(ctx context.Context) ([]Note, error) {
	notes, err := s.queryNotes(ctx, `
		SELECT id, title, contents, created_at, updated_at
		FROM notes
		ORDER BY updated_at DESC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Tags returns every tag in use, sorted.
func (s *Store) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tag FROM note_tags ORDER BY tag ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// queryNotes runs a notes query and loads the tags of every row.
func (s *Store) queryNotes(ctx context.Context, query string, args ...any) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*Note, len(notes))
	for i := range notes {
		ptrs[i] = &notes[i]
	}
	if err := s.loadTags(ctx, ptrs); err != nil {
		return nil, err
	}
	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (Note, error) {
	var (
		n                Note
		contentsJSON     string
		created, updated int64
	)
	if err := row.Scan(&n.ID, &n.Title, &contentsJSON, &created, &updated); err != nil {
		return Note{}, err
	}
	if err := json.Unmarshal([]byte(contentsJSON), &n.Contents); err != nil {
		return Note{}, fmt.Errorf("decode contents of %s: %w", n.ID, err)
	}
	n.CreatedAt = time.Unix(0, created).UTC()
	n.UpdatedAt = time.Unix(0, updated).UTC()
	n.Tags = []string{}
	return n, nil
}

func (s *Store) loadTags(ctx context.Context, notes []*Note) error {
	for _, n := range notes {
		rows, err := s.db.QueryContext(ctx, `
			SELECT tag FROM note_tags WHERE note_id = ? ORDER BY tag ASC COLLATE BINARY
		`, n.ID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var tag string
			if err := rows.Scan(&tag); err != nil {
				rows.Close()
				return err
			}
			n.Tags = append(n.Tags, tag)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeTags(ctx context.Context, tx *sql.Tx, noteID string, tags []string) error {
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO note_tags (note_id, tag) VALUES (?, ?)`, noteID, tag); err != nil {
			return err
		}
	}
	return nil
}

// normalizeTags trims, NFC-normalises, de-duplicates and sorts tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, t := range tags {
		t = norm.NFC.String(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
