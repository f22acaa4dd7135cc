// Package subtitle turns SubRip (SRT) text into ordered, timed entries.
//
// Only the three fields the voice pipeline needs are kept: start, end and
// text. Input may be UTF-8 (with or without BOM) or BOM-marked UTF-16, with
// LF or CRLF line endings. Validate enforces the ordering the timeline
// assembler relies on.
package subtitle
