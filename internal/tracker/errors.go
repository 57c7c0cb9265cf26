package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates an unknown loan id.
	ErrNotFound = errors.New("loan not found")
	// ErrForbidden indicates the actor lacks the advance capability.
	ErrForbidden = errors.New("actor lacks capability")
	// ErrAlreadyComplete indicates the loan is at the terminal stage.
	ErrAlreadyComplete = errors.New("loan already complete")
	// ErrIncompleteSubtasks indicates required sub-tasks of the current stage
	// are not yet completed.
	ErrIncompleteSubtasks = errors.New("incomplete subtasks")
	// ErrConflict indicates both advance attempts lost the concurrent
	// compare-and-set race; the caller should re-read and retry.
	ErrConflict = errors.New("loan state changed, retry")
)

// IncompleteSubtasksError reports which required sub-tasks block advancement.
type IncompleteSubtasksError struct {
	StageID string
	Missing []string
}

func (e *IncompleteSubtasksError) Error() string {
	return fmt.Sprintf("stage %s has incomplete required subtasks: %s", e.StageID, strings.Join(e.Missing, ", "))
}

func (e *IncompleteSubtasksError) Unwrap() error {
	return ErrIncompleteSubtasks
}
