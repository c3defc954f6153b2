// Package document implements an in-memory rich-text document: the host the
// shortcut engine edits.
//
// Content is a flat sequence of characters. Newlines terminate lines and
// carry block formats; text characters carry inline formats; embeds (image,
// hr) are single characters, and block embeds (hr) form a line on their own.
// The document always ends with a newline.
//
// The document exposes the capability set a rich-text view offers to editor
// plugins: selection, line lookup, text insertion and deletion by offset,
// line and pending formats, embed insertion, and change notifications
// carrying deltas. Embed types are negotiated once at construction with
// WithEmbed.
package document
