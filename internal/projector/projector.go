package projector

import (
	"strings"

	"stagegate/internal/catalog"
)

// State is the reported condition of one upstream signal source for one
// sub-task.
type State string

const (
	StatePending  State = "pending"
	StateReceived State = "received"
	StateVerified State = "verified"
	StateRejected State = "rejected"
)

var stateSet = map[State]struct{}{
	StatePending:  {},
	StateReceived: {},
	StateVerified: {},
	StateRejected: {},
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	_, ok := stateSet[normalized]
	return normalized, ok
}

// Project derives a sub-task's status from the signal states reported by its
// contributing sources, keyed by source name.
//
// A rejected signal from any source pins the status to failed. The status is
// completed only when every contributing source has verified. Any in-flight
// or partial signal yields in_progress; no signals at all yields pending.
func Project(task catalog.SubTask, signals map[string]State) catalog.TaskStatus {
	if len(task.Sources) == 0 {
		return catalog.TaskPending
	}

	verified := 0
	inflight := 0
	for _, source := range task.Sources {
		state, ok := signals[source]
		if !ok {
			continue
		}
		switch state {
		case StateRejected:
			return catalog.TaskFailed
		case StateVerified:
			verified++
		case StatePending, StateReceived:
			inflight++
		}
	}

	switch {
	case verified == len(task.Sources):
		return catalog.TaskCompleted
	case inflight > 0 || verified > 0:
		return catalog.TaskInProgress
	default:
		return catalog.TaskPending
	}
}

// StageStatus rolls sub-task statuses up to a stage-level status: any failed
// sub-task fails the stage, all completed completes it, and any progress at
// all marks it in_progress.
func StageStatus(statuses []catalog.TaskStatus) catalog.TaskStatus {
	if len(statuses) == 0 {
		return catalog.TaskPending
	}
	completed := 0
	progressed := false
	for _, status := range statuses {
		switch status {
		case catalog.TaskFailed:
			return catalog.TaskFailed
		case catalog.TaskCompleted:
			completed++
			progressed = true
		case catalog.TaskInProgress:
			progressed = true
		}
	}
	switch {
	case completed == len(statuses):
		return catalog.TaskCompleted
	case progressed:
		return catalog.TaskInProgress
	default:
		return catalog.TaskPending
	}
}
