// Package shortcut implements Markdown-like typing shortcuts for a rich-text
// host document.
//
// When the user types a space or a newline, the Engine matches the current
// line against an ordered rule table. The first rule that matches wins and
// its rewrite is queued. Queued rewrites run later, one at a time in FIFO
// order, from Drain (the editor's next tick) or Run (a consumer goroutine).
//
// A queued rewrite never trusts state captured at match time. It keeps only
// the start offset of its line, moved through every later document change,
// and re-reads and re-matches the line when it runs. A line that no longer
// matches is left alone.
//
// Rules:
//
//	header          "# " .. "###### "   block heading, marker removed
//	blockquote      "> "                block quote, marker removed
//	code-block      "```"               code block, marker removed (with the newline on enter)
//	bolditalic      ***text***          bold italic run
//	bold            *text* or _text_    bold run
//	italic          /text/              italic run
//	underline       _text_              underline run (shadowed by bold)
//	strikethrough   ~~text~~            strike run
//	highlight       ::text::            background colour run
//	code            `text`              code run plus a plain space
//	hr              ---, ***, - - -     horizontal rule embed
//	unordered-list  "* " or "+ "        list item, marker removed
//	image           ![alt](url)         image embed
//	link            [text](url)         link run
package shortcut
