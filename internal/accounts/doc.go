// Package accounts loads platform credentials from a line-oriented text file.
//
// Format: one "email:password" pair per line. Blank lines and lines missing
// the ':' separator are dropped silently — a partially malformed file still
// yields every valid entry, in file order.
//
// Load(path) returns the parsed slice or an error when the file itself
// cannot be read. The caller (cmd/streamnode) treats that error as fatal.
package accounts
