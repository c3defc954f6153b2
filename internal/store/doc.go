// Package store provides SQLite-backed storage for notes.
//
// A note is a title, a document delta and a set of tags. Contents are stored
// as delta JSON so a note loads straight back into a document with
// SetContents.
//
// # Ordering
//
// ListNotes and SearchNotes order by updated_at DESC, id ASC COLLATE BINARY
// so that output is deterministic when timestamps tie.
//
// # Search
//
// Each note keeps a search_text column: its title and plain text, NFC
// normalised and case folded with golang.org/x/text. Queries are folded the
// same way, so "CAFÉ" finds "café" whatever form either was typed in.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Tags are deleted with their note
package store
