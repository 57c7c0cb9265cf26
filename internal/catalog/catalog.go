package catalog

import (
	"fmt"
	"strings"
)

// TaskStatus is the derived completion state of a sub-task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// SubTask is a unit of work within a stage. Required sub-tasks gate
// advancement out of the stage. Sources names the upstream signal sources
// whose reports drive the sub-task's derived status.
type SubTask struct {
	ID       string
	Title    string
	Required bool
	Sources  []string
}

// Stage is a named step in the fixed loan-processing sequence.
type Stage struct {
	ID          string
	Title       string
	Description string
	Ordinal     int
	SubTasks    []SubTask
}

// Catalog is the ordered, immutable stage sequence.
type Catalog struct {
	stages []Stage
	byID   map[string]int
}

// New builds a catalog from an ordered stage list. Ordinals are assigned
// from position; input stages must have unique, non-empty ids.
func New(stages []Stage) (*Catalog, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("catalog: at least one stage required")
	}
	c := &Catalog{
		stages: make([]Stage, len(stages)),
		byID:   make(map[string]int, len(stages)),
	}
	seenTasks := make(map[string]string)
	for i, stage := range stages {
		id := strings.TrimSpace(stage.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: stage %d has empty id", i)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("catalog: duplicate stage id %q", id)
		}
		stage.ID = id
		stage.Ordinal = i
		stage.SubTasks = append([]SubTask(nil), stage.SubTasks...)
		for j, task := range stage.SubTasks {
			taskID := strings.TrimSpace(task.ID)
			if taskID == "" {
				return nil, fmt.Errorf("catalog: stage %q sub-task %d has empty id", id, j)
			}
			if owner, dup := seenTasks[taskID]; dup {
				return nil, fmt.Errorf("catalog: sub-task id %q appears in stages %q and %q", taskID, owner, id)
			}
			seenTasks[taskID] = id
			stage.SubTasks[j].ID = taskID
		}
		c.stages[i] = stage
		c.byID[id] = i
	}
	return c, nil
}

// Stage returns the stage with the given id.
func (c *Catalog) Stage(id string) (Stage, error) {
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Stage{}, fmt.Errorf("%w: %q", ErrUnknownStage, id)
	}
	return c.stages[idx], nil
}

// Next returns the successor of the stage with the given id. The boolean is
// false when the stage is terminal.
func (c *Catalog) Next(id string) (Stage, bool, error) {
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Stage{}, false, fmt.Errorf("%w: %q", ErrUnknownStage, id)
	}
	if idx+1 >= len(c.stages) {
		return Stage{}, false, nil
	}
	return c.stages[idx+1], true, nil
}

// All returns the stages in catalog order. The slice is a copy.
func (c *Catalog) All() []Stage {
	cp := make([]Stage, len(c.stages))
	copy(cp, c.stages)
	return cp
}

// First returns the initial stage.
func (c *Catalog) First() Stage {
	return c.stages[0]
}

// Terminal returns the last stage.
func (c *Catalog) Terminal() Stage {
	return c.stages[len(c.stages)-1]
}

// IsTerminal reports whether the given stage id is the last stage.
func (c *Catalog) IsTerminal(id string) (bool, error) {
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownStage, id)
	}
	return idx == len(c.stages)-1, nil
}

// Len returns the number of stages.
func (c *Catalog) Len() int {
	return len(c.stages)
}
