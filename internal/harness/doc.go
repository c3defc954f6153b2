// Package harness runs keystroke scenarios against the shortcut engine.
//
// A scenario types a key script into a fresh document with an editor
// mounted, stores the result as a note and reads it back, then checks
// expectations against the final document.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: header
//	description: "Two hashes and a space turn the line into an H2"
//	initial: ""          # optional text present before typing
//	disabled: [bold]     # optional rules to remove
//	highlight: "#ffa8a8" # optional highlight colour
//	keys: "##<space>"
//	deferred: false      # queue rewrites until typing is done
//	expect:
//	  text: "\n"
//	  lines:
//	    - { text: "", tag: H2 }
//	  runs:
//	    - text: bold
//	      attributes: { bold: true }
//	  selection: 0
//	  applied: [header]
//
// Keys use the editor key script: literal text plus <enter>, <space>,
// <tab> and <lt>.
//
// # Expectations
//
//   - text: the plain text of the whole document
//   - lines: every line's text and tag name, in order
//   - runs: insert ops that must appear in order, attributes matched as a subset
//   - selection: the final cursor index
//   - applied: the rules that fired, in order
//
// Unknown fields are rejected so that typos fail loudly.
//
// # Golden Files
//
// RunWithGolden compares the rules that fired and the final contents with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
