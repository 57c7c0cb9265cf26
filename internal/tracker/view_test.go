package tracker_test

import (
	"context"
	"errors"
	"testing"

	"stagegate/internal/catalog"
	"stagegate/internal/projector"
	"stagegate/internal/testsupport"
	"stagegate/internal/tracker"
)

func TestCurrentViewReflectsGateAndCapability(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr, c := newTracker(t, store, nil)

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")

	view, err := tr.CurrentView(ctx, progress.ID, processor)
	if err != nil {
		t.Fatalf("CurrentView failed: %v", err)
	}
	if view.CanAdvance {
		t.Fatal("fresh loan with no signals must not be advanceable")
	}
	if len(view.BlockedBy) == 0 {
		t.Fatal("expected blocking sub-tasks on a fresh loan")
	}
	if view.Stages[0].Status != catalog.TaskInProgress {
		t.Fatalf("current stage should render in_progress, got %q", view.Stages[0].Status)
	}
	for _, stage := range view.Stages[1:] {
		if stage.Status != catalog.TaskPending {
			t.Fatalf("future stage %s should be pending, got %q", stage.ID, stage.Status)
		}
	}

	testsupport.CompleteStage(t, store, c, progress.ID, progress.CurrentStageID)

	view, err = tr.CurrentView(ctx, progress.ID, processor)
	if err != nil {
		t.Fatalf("CurrentView failed: %v", err)
	}
	if !view.CanAdvance {
		t.Fatalf("gate satisfied, expected CanAdvance; blocked by %v", view.BlockedBy)
	}
	if len(view.BlockedBy) != 0 {
		t.Fatalf("expected empty BlockedBy, got %v", view.BlockedBy)
	}

	// Same gate, but an actor without the advance capability.
	view, err = tr.CurrentView(ctx, progress.ID, broker)
	if err != nil {
		t.Fatalf("CurrentView failed: %v", err)
	}
	if view.CanAdvance {
		t.Fatal("actor without advance capability must see CanAdvance false")
	}
}

func TestCurrentViewAfterAdvance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr, c := newTracker(t, store, nil)

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")
	testsupport.CompleteStage(t, store, c, progress.ID, progress.CurrentStageID)
	if _, err := tr.Advance(ctx, progress.ID, processor); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	view, err := tr.CurrentView(ctx, progress.ID, processor)
	if err != nil {
		t.Fatalf("CurrentView failed: %v", err)
	}
	if view.Stages[0].Status != catalog.TaskCompleted {
		t.Fatalf("passed stage should render completed, got %q", view.Stages[0].Status)
	}
	if view.CurrentStageID != view.Stages[1].ID {
		t.Fatalf("view current stage mismatch: %q vs %q", view.CurrentStageID, view.Stages[1].ID)
	}
	if len(view.History) != 2 {
		t.Fatalf("expected two history entries, got %d", len(view.History))
	}
}

func TestCurrentViewRejectedSignalShowsFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr, c := newTracker(t, store, nil)

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")
	first := c.First()
	task := first.SubTasks[0]
	if err := store.PutSignal(ctx, progress.ID, task.ID, task.Sources[0], projector.StateRejected, "illegible scan"); err != nil {
		t.Fatalf("PutSignal failed: %v", err)
	}

	view, err := tr.CurrentView(ctx, progress.ID, processor)
	if err != nil {
		t.Fatalf("CurrentView failed: %v", err)
	}
	if got := view.Stages[0].SubTasks[0].Status; got != catalog.TaskFailed {
		t.Fatalf("rejected signal should project failed, got %q", got)
	}
	if view.Stages[0].Status != catalog.TaskFailed {
		t.Fatalf("stage with failed sub-task should roll up failed, got %q", view.Stages[0].Status)
	}
}

func TestCurrentViewUnknownLoan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr, _ := newTracker(t, store, nil)

	_, err := tr.CurrentView(context.Background(), "no-such-loan", processor)
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
