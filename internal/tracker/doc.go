// Package tracker implements the guarded stage-advance operation and the
// read-only loan view projection. Advance is the only mutation path for loan
// progress: it checks the actor's capability, the terminal-stage precondition,
// and the required sub-task gate before committing through the store's
// compare-and-set primitive, then emits a best-effort stage-entered event.
package tracker
