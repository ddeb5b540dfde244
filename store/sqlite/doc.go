// Package sqlite implements the queuectl store over a SQLite database
// using the pure-Go modernc.org/sqlite driver. Suitable when the flat
// JSON aggregate becomes a bottleneck: membership checks are indexed
// and the whole-file rewrite per operation disappears.
//
// SQLite's own locking replaces the marker-file lock of the file
// backend. Claim is a single atomic UPDATE of the first pending row,
// which preserves the at-most-once-claim invariant; there is no
// bounded-wait lock timeout here beyond the driver's busy timeout.
package sqlite
