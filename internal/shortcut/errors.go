package shortcut

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnknownRule is returned when a rule name is not in the table.
var ErrUnknownRule = errors.New("unknown shortcut rule")

// RewriteError is a host failure raised while a matched rule was rewriting
// the document. The engine reports it and moves on to the next task.
type RewriteError struct {
	// Rule names the rule that was running.
	Rule string
	// Offset is the start of the line the rule was rewriting.
	Offset int
	// Err is the host error.
	Err error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("shortcut %s at offset %d: %v", e.Rule, e.Offset, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}

// IsRewriteError reports whether err wraps a *RewriteError.
func IsRewriteError(err error) bool {
	var re *RewriteError
	return errors.As(err, &re)
}

// logError is the default error handler for Run.
func logError(err error) {
	var re *RewriteError
	if errors.As(err, &re) {
		slog.Error("shortcut rewrite failed", "rule", re.Rule, "offset", re.Offset, "error", re.Err)
		return
	}
	slog.Error("shortcut rewrite failed", "error", err)
}
