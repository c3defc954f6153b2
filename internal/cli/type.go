package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
	"github.com/roach88/notedown/internal/editor"
	"github.com/roach88/notedown/internal/shortcut"
)

// LineOutput is one rendered line.
type LineOutput struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// DocumentResult describes a document after typing.
type DocumentResult struct {
	Text     string       `json:"text"`
	Lines    []LineOutput `json:"lines"`
	Contents delta.Delta  `json:"contents"`
	Applied  []string     `json:"applied"`
}

// WriteText prints one line per document line, tag first.
func (r DocumentResult) WriteText(w io.Writer) error {
	for _, l := range r.Lines {
		if _, err := fmt.Fprintf(w, "%-10s %s\n", l.Tag, l.Text); err != nil {
			return err
		}
	}
	if len(r.Applied) > 0 {
		_, err := fmt.Fprintf(w, "\napplied: %s\n", strings.Join(r.Applied, ", "))
		return err
	}
	return nil
}

// NewTypeCommand creates the type command.
func NewTypeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type [keys]",
		Short: "Type keys into a fresh document",
		Long: `Type keys into a fresh document and print the result.

Keys are read from the argument, or from stdin when no argument is given.
Besides literal text they may contain <enter>, <space>, <tab> and <lt>.

Examples:
  notedown type '## Title<enter>some *bold* words '
  printf -- '---\n' | notedown type --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := readKeys(cmd, args)
			if err != nil {
				return err
			}
			return runType(rootOpts, keys, cmd)
		},
	}

	return cmd
}

// readKeys returns the first argument, or all of stdin.
func readKeys(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to read keys from stdin", err)
	}
	return string(data), nil
}

func runType(opts *RootOptions, keys string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	engineOpts, err := opts.engineOptions()
	if err != nil {
		return err
	}

	doc := document.New()
	defer doc.Close()

	applied, typeErr := typeKeys(commandContext(cmd), engineOpts, doc, keys)
	if err := formatter.Success(describeDocument(doc, applied)); err != nil {
		return err
	}
	if typeErr != nil {
		return WrapExitError(ExitFailure, "typing failed", typeErr)
	}
	return nil
}

// engineOptions builds the shortcut engine options from the configuration.
func (o *RootOptions) engineOptions() ([]shortcut.Option, error) {
	engineOpts, err := o.settings().EngineOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid shortcut configuration", err)
	}
	return engineOpts, nil
}

// typeKeys mounts an editor on doc, types keys and unmounts. Returns the
// rules applied. The document keeps its contents even when a rewrite fails.
func typeKeys(ctx context.Context, engineOpts []shortcut.Option, doc *document.Document, keys string) ([]string, error) {
	ed, err := editor.Mount(doc, editor.WithEngineOptions(engineOpts...))
	if err != nil {
		return nil, err
	}
	defer ed.Unmount()

	err = ed.TypeKeys(ctx, keys)
	return ed.Applied(), err
}

func describeDocument(doc *document.Document, applied []string) DocumentResult {
	if applied == nil {
		applied = []string{}
	}
	r := DocumentResult{
		Text:     doc.Text(),
		Lines:    []LineOutput{},
		Contents: doc.Contents(),
		Applied:  applied,
	}
	for _, l := range doc.Lines() {
		r.Lines = append(r.Lines, LineOutput{Tag: l.TagName, Text: l.Text})
	}
	return r
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
