package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
	"github.com/roach88/notedown/internal/store"
)

// NoteOptions holds flags shared by the note commands.
type NoteOptions struct {
	*RootOptions
	Database string
	Title    string
	Tags     []string
}

// NoteSummary is one row of a note listing.
type NoteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteList is the output of list and search.
type NoteList struct {
	Notes []NoteSummary `json:"notes"`
}

// WriteText prints one note per line, most recent first.
func (l NoteList) WriteText(w io.Writer) error {
	if len(l.Notes) == 0 {
		_, err := fmt.Fprintln(w, "No notes.")
		return err
	}
	for _, n := range l.Notes {
		line := fmt.Sprintf("%s  %s", n.ID, n.Title)
		if len(n.Tags) > 0 {
			line += "  [" + strings.Join(n.Tags, ", ") + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// NoteView is a single note with its rendered lines.
type NoteView struct {
	store.Note
	Lines   []LineOutput `json:"lines"`
	Applied []string     `json:"applied,omitempty"`
}

// WriteText prints the note header followed by its lines.
func (v NoteView) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s (%s)\n", v.Title, v.ID)
	if len(v.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(v.Tags, ", "))
	}
	fmt.Fprintf(w, "updated: %s\n\n", v.UpdatedAt.Format(time.RFC3339))
	return DocumentResult{Lines: v.Lines, Applied: v.Applied}.WriteText(w)
}

// DeleteResult is the output of delete.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (r DeleteResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Deleted %s\n", r.ID)
	return err
}

// NewNoteCommand creates the note command and its subcommands.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage stored notes",
		Long: `Create, list, search, show, copy, delete and edit notes.

Notes live in a SQLite database, by default the store path from the
configuration (notedown.db).

Examples:
  notedown note create --title Plan '## Steps<enter>* first '
  notedown note list
  notedown note search bread --tag food
  notedown note type <id> 'more *text* '`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	cmd.AddCommand(newNoteCreateCommand(opts))
	cmd.AddCommand(newNoteListCommand(opts))
	cmd.AddCommand(newNoteShowCommand(opts))
	cmd.AddCommand(newNoteSearchCommand(opts))
	cmd.AddCommand(newNoteCopyCommand(opts))
	cmd.AddCommand(newNoteDeleteCommand(opts))
	cmd.AddCommand(newNoteTypeCommand(opts))

	return cmd
}

func newNoteCreateCommand(opts *NoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [keys]",
		Short: "Create a note, typing keys into it",
		Long: `Create a note. Keys, if given, are typed into the new note with
shortcuts applied. Without keys the note holds a single empty line.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := ""
			if len(args) > 0 {
				keys = args[0]
			}
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				engineOpts, err := opts.engineOptions()
				if err != nil {
					return err
				}
				doc := document.New()
				defer doc.Close()

				applied, typeErr := typeKeys(ctx, engineOpts, doc, keys)
				n, err := st.CreateNote(ctx, opts.Title, doc.Contents(), opts.Tags...)
				if err != nil {
					return fail(f, ErrCodeStore, ExitCommandError, "failed to create note", err)
				}
				slog.Info("note created", "id", n.ID, "applied", len(applied))
				if err := f.Success(viewNote(n, applied)); err != nil {
					return err
				}
				if typeErr != nil {
					return WrapExitError(ExitFailure, "typing failed", typeErr)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "note title (default "+store.DefaultTitle+")")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tag the note (repeatable)")

	return cmd
}

func newNoteListCommand(opts *NoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List notes, most recently updated first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				notes, err := st.ListNotes(ctx)
				if err != nil {
					return fail(f, ErrCodeStore, ExitCommandError, "failed to list notes", err)
				}
				return f.Success(listNotes(notes))
			})
		},
	}
}

func newNoteShowCommand(opts *NoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show a note",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				n, err := st.GetNote(ctx, args[0])
				if err != nil {
					return failNote(f, "failed to load note", err)
				}
				return f.Success(viewNote(n, nil))
			})
		},
	}
}

func newNoteSearchCommand(opts *NoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search note titles and text",
		Long: `Search note titles and text. Matching ignores case and Unicode
normalisation form. Every --tag given must be on the note.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				notes, err := st.SearchNotes(ctx, query, opts.Tags)
				if err != nil {
					return fail(f, ErrCodeStore, ExitCommandError, "failed to search notes", err)
				}
				return f.Success(listNotes(notes))
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "only notes with this tag (repeatable)")

	return cmd
}

func newNoteCopyCommand(opts *NoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "copy <id>",
		Short:         "Copy a note",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				n, err := st.CopyNote(ctx, args[0])
				if err != nil {
					return failNote(f, "failed to copy note", err)
				}
				return f.Success(viewNote(n, nil))
			})
		},
	}
}

func newNoteDeleteCommand(opts *NoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a note",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				if err := st.DeleteNote(ctx, args[0]); err != nil {
					return failNote(f, "failed to delete note", err)
				}
				return f.Success(DeleteResult{ID: args[0], Deleted: true})
			})
		},
	}
}

func newNoteTypeCommand(opts *NoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "type <id> [keys]",
		Short: "Type keys at the end of a stored note",
		Long: `Type keys at the end of a stored note and save it.

Keys are read from the second argument, or from stdin. An interrupt stops
typing; whatever was typed so far is saved.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := readKeys(cmd, args[1:])
			if err != nil {
				return err
			}
			return withStore(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				return typeIntoNote(ctx, opts, st, f, args[0], keys)
			})
		},
	}
}

func typeIntoNote(ctx context.Context, opts *NoteOptions, st *store.Store, f *OutputFormatter, id, keys string) error {
	engineOpts, err := opts.engineOptions()
	if err != nil {
		return err
	}

	n, err := st.GetNote(ctx, id)
	if err != nil {
		return failNote(f, "failed to load note", err)
	}

	doc := document.New()
	defer doc.Close()
	if err := doc.SetContents(n.Contents, delta.SourceAPI); err != nil {
		return fail(f, ErrCodeStore, ExitCommandError, "failed to open note", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	applied, typeErr := typeKeys(ctx, engineOpts, doc, keys)
	if errors.Is(typeErr, context.Canceled) {
		slog.Info("typing interrupted, saving", "id", id)
	}

	// Saved even when interrupted.
	n.Contents = doc.Contents()
	saved, err := st.UpdateNote(context.WithoutCancel(ctx), n)
	if err != nil {
		return fail(f, ErrCodeStore, ExitCommandError, "failed to save note", err)
	}

	if err := f.Success(viewNote(saved, applied)); err != nil {
		return err
	}
	if typeErr != nil {
		return WrapExitError(ExitFailure, "typing failed", typeErr)
	}
	return nil
}

// withStore opens the note database for the duration of fn.
func withStore(opts *NoteOptions, cmd *cobra.Command, fn func(ctx context.Context, st *store.Store, f *OutputFormatter) error) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path := opts.Database
	if path == "" {
		path = opts.settings().Store.Path
	}
	formatter.VerboseLog("Opening %s", path)

	st, err := store.Open(path)
	if err != nil {
		return fail(formatter, ErrCodeStore, ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	return fn(commandContext(cmd), st, formatter)
}

// fail reports an error in JSON output and returns it as an ExitError. In
// text mode the caller prints the returned error.
func fail(f *OutputFormatter, code string, exit int, message string, err error) error {
	if f.Format == "json" {
		_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	}
	return WrapExitError(exit, message, err)
}

// failNote is fail with ErrCodeNotFound for missing notes.
func failNote(f *OutputFormatter, message string, err error) error {
	code := ErrCodeStore
	if errors.Is(err, store.ErrNotFound) {
		code = ErrCodeNotFound
	}
	return fail(f, code, ExitCommandError, message, err)
}

func listNotes(notes []store.Note) NoteList {
	list := NoteList{Notes: make([]NoteSummary, 0, len(notes))}
	for _, n := range notes {
		list.Notes = append(list.Notes, NoteSummary{
			ID:        n.ID,
			Title:     n.Title,
			Tags:      n.Tags,
			UpdatedAt: n.UpdatedAt,
		})
	}
	return list
}

// viewNote renders a note's lines by loading it into a document.
func viewNote(n store.Note, applied []string) NoteView {
	v := NoteView{Note: n, Lines: []LineOutput{}, Applied: applied}
	doc := document.New()
	defer doc.Close()
	if err := doc.SetContents(n.Contents, delta.SourceSilent); err != nil {
		slog.Warn("note contents do not load", "id", n.ID, "error", err)
		return v
	}
	for _, l := range doc.Lines() {
		v.Lines = append(v.Lines, LineOutput{Tag: l.TagName, Text: l.Text})
	}
	return v
}
