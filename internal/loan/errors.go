package loan

import "errors"

// ErrConflict indicates a CommitAdvance lost the compare-and-set race: the
// stored stage no longer matches the value read at precondition-check time.
var ErrConflict = errors.New("loan progress conflict")

// ErrArchived indicates a write against a loan that has reached the terminal
// stage and is read-only.
var ErrArchived = errors.New("loan archived")
