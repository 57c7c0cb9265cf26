package tracker

import (
	"context"
	"fmt"

	"stagegate/internal/catalog"
	"stagegate/internal/identity"
	"stagegate/internal/loan"
	"stagegate/internal/projector"
)

// SubTaskView is a sub-task with its projected status.
type SubTaskView struct {
	ID       string
	Title    string
	Required bool
	Status   catalog.TaskStatus
}

// StageView is a catalog stage with statuses derived for one loan.
type StageView struct {
	ID          string
	Title       string
	Description string
	Ordinal     int
	Status      catalog.TaskStatus
	SubTasks    []SubTaskView
}

// View is the read-only projection the UI renders: catalog plus loan
// progress plus projected sub-task statuses.
type View struct {
	LoanID         string
	Applicant      string
	LoanType       string
	AmountCents    int64
	CurrentStageID string
	Archived       bool
	CanAdvance     bool
	// BlockedBy lists the required sub-tasks preventing advancement, empty
	// when the gate is clear.
	BlockedBy []string
	Stages    []StageView
	History   []loan.HistoryEntry
}

// CurrentView assembles the loan's stage view. CanAdvance reflects both the
// actor's capability and the sub-task gate so the UI can disable the action
// without a write round trip. Sub-task statuses are re-projected from
// signals on every call, never cached.
func (t *Tracker) CurrentView(ctx context.Context, loanID string, actor identity.Actor) (*View, error) {
	progress, err := t.store.GetByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("load loan: %w", err)
	}
	if progress == nil {
		return nil, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}

	current, err := t.catalog.Stage(progress.CurrentStageID)
	if err != nil {
		return nil, fmt.Errorf("loan %s references stage outside catalog: %w", loanID, err)
	}

	states, err := t.store.SignalStates(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}

	view := &View{
		LoanID:         progress.ID,
		Applicant:      progress.Applicant,
		LoanType:       progress.LoanType,
		AmountCents:    progress.AmountCents,
		CurrentStageID: progress.CurrentStageID,
		Archived:       progress.Archived,
	}

	for _, stage := range t.catalog.All() {
		stageView := StageView{
			ID:          stage.ID,
			Title:       stage.Title,
			Description: stage.Description,
			Ordinal:     stage.Ordinal,
		}
		taskStatuses := make([]catalog.TaskStatus, 0, len(stage.SubTasks))
		for _, task := range stage.SubTasks {
			status := projector.Project(task, states[task.ID])
			taskStatuses = append(taskStatuses, status)
			stageView.SubTasks = append(stageView.SubTasks, SubTaskView{
				ID:       task.ID,
				Title:    task.Title,
				Required: task.Required,
				Status:   status,
			})
		}

		switch {
		case stage.Ordinal < current.Ordinal:
			stageView.Status = catalog.TaskCompleted
		case stage.Ordinal == current.Ordinal:
			if progress.Archived {
				stageView.Status = catalog.TaskCompleted
			} else {
				stageView.Status = activeStageStatus(taskStatuses)
			}
		default:
			stageView.Status = catalog.TaskPending
		}
		view.Stages = append(view.Stages, stageView)
	}

	terminal, err := t.catalog.IsTerminal(current.ID)
	if err != nil {
		return nil, err
	}
	missing, err := t.missingRequiredSubtasks(ctx, loanID, current)
	if err != nil {
		return nil, err
	}
	view.BlockedBy = missing
	view.CanAdvance = !terminal &&
		len(missing) == 0 &&
		t.identity.HasCapability(actor, identity.CapAdvanceLoanStage)

	history, err := t.store.History(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	view.History = history
	return view, nil
}

// activeStageStatus renders the loan's current stage: untouched stages still
// show in_progress because the loan is parked on them.
func activeStageStatus(taskStatuses []catalog.TaskStatus) catalog.TaskStatus {
	status := projector.StageStatus(taskStatuses)
	if status == catalog.TaskPending {
		return catalog.TaskInProgress
	}
	return status
}
