// Package loan persists loan progress records, their append-only stage
// history, and upstream collaborator signals in SQLite. CommitAdvance is the
// compare-and-set primitive that serializes concurrent stage advancement.
package loan
