// Package record provides the reading sinks: an append-only CSV recorder
// and a console printer.
//
// Both consume readings as they are produced. The CSV recorder flushes
// after every row so a crash mid-session loses at most the row being
// written; the console printer rewrites a single status line when stdout
// is a terminal and falls back to plain lines otherwise.
package record
