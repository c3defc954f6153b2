// Package delta describes rich-text content and changes as ordered lists of
// insert, delete and retain operations.
//
// A document is a delta made only of inserts. Newline inserts carry block
// formats (header, blockquote, list, code-block); other inserts carry inline
// formats (bold, italic, link, ...). A change notification carries a delta
// whose retains skip over unchanged content.
//
// All lengths and offsets count characters (runes). An embed counts as one
// character and renders as U+FFFC in plain text.
package delta
