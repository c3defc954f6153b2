package document

import "errors"

// Errors returned by document operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrUnknownEmbed     = errors.New("unknown embed type")
	ErrClosed           = errors.New("document closed")
	ErrNoSelection      = errors.New("no selection")
	ErrInvalidContents  = errors.New("invalid contents")
)
