package loan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stagegate/internal/catalog"
	"stagegate/internal/loan"
	"stagegate/internal/projector"
	"stagegate/internal/testsupport"
)

func TestNewLoanOpensFirstStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")
	if progress.ID == "" {
		t.Fatal("expected loan id to be assigned")
	}
	if progress.CurrentStageID != c.First().ID {
		t.Fatalf("expected first stage, got %q", progress.CurrentStageID)
	}
	if progress.Archived {
		t.Fatal("new loan must not be archived")
	}

	history, err := store.History(ctx, progress.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}
	if history[0].StageID != c.First().ID || history[0].ExitedAt != nil {
		t.Fatalf("expected open entry for first stage, got %+v", history[0])
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	progress, err := store.GetByID(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if progress != nil {
		t.Fatalf("expected nil for unknown loan, got %+v", progress)
	}
}

func TestCommitAdvanceMovesStageAndHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")
	next, ok, err := c.Next(progress.CurrentStageID)
	if err != nil || !ok {
		t.Fatalf("Next failed: %v %v", ok, err)
	}

	if err := store.CommitAdvance(ctx, progress.ID, progress.CurrentStageID, next.ID, time.Now(), false); err != nil {
		t.Fatalf("CommitAdvance failed: %v", err)
	}

	updated, err := store.GetByID(ctx, progress.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.CurrentStageID != next.ID {
		t.Fatalf("expected stage %q, got %q", next.ID, updated.CurrentStageID)
	}

	history, err := store.History(ctx, progress.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected two history entries, got %d", len(history))
	}
	if history[0].ExitedAt == nil {
		t.Fatal("first entry should be closed")
	}
	if history[1].StageID != next.ID || history[1].ExitedAt != nil {
		t.Fatalf("second entry should be open for %q, got %+v", next.ID, history[1])
	}
}

func TestCommitAdvanceStaleStageConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")
	second, _, _ := c.Next(progress.CurrentStageID)
	third, _, _ := c.Next(second.ID)

	if err := store.CommitAdvance(ctx, progress.ID, progress.CurrentStageID, second.ID, time.Now(), false); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}
	// Same expected stage again: the CAS guard must reject it.
	err := store.CommitAdvance(ctx, progress.ID, progress.CurrentStageID, third.ID, time.Now(), false)
	if !errors.Is(err, loan.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	updated, _ := store.GetByID(ctx, progress.ID)
	if updated.CurrentStageID != second.ID {
		t.Fatalf("conflict must not move the stage: %q", updated.CurrentStageID)
	}
	history, _ := store.History(ctx, progress.ID)
	if len(history) != 2 {
		t.Fatalf("conflict must not append history, got %d entries", len(history))
	}
}

func TestCommitAdvanceTerminalArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")

	current := progress.CurrentStageID
	for {
		next, ok, err := c.Next(current)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		terminal, _ := c.IsTerminal(next.ID)
		if err := store.CommitAdvance(ctx, progress.ID, current, next.ID, time.Now(), terminal); err != nil {
			t.Fatalf("advance to %q failed: %v", next.ID, err)
		}
		current = next.ID
	}

	final, _ := store.GetByID(ctx, progress.ID)
	if !final.Archived {
		t.Fatal("loan at terminal stage should be archived")
	}

	// Archived loans are read-only for both advancement and signals.
	err := store.CommitAdvance(ctx, progress.ID, current, current, time.Now(), true)
	if !errors.Is(err, loan.ErrConflict) {
		t.Fatalf("expected conflict on archived loan, got %v", err)
	}
	err = store.PutSignal(ctx, progress.ID, "client_signing", catalog.SourceSigning, projector.StateVerified, "")
	if !errors.Is(err, loan.ErrArchived) {
		t.Fatalf("expected ErrArchived, got %v", err)
	}
}

func TestPutSignalUpserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()

	ctx := context.Background()
	progress := testsupport.NewLoan(t, store, c, "Avery Chen")

	if err := store.PutSignal(ctx, progress.ID, "id_docs", catalog.SourceDocuments, projector.StateReceived, "passport uploaded"); err != nil {
		t.Fatalf("PutSignal failed: %v", err)
	}
	if err := store.PutSignal(ctx, progress.ID, "id_docs", catalog.SourceDocuments, projector.StateVerified, "passport verified"); err != nil {
		t.Fatalf("PutSignal update failed: %v", err)
	}

	signals, err := store.Signals(ctx, progress.ID)
	if err != nil {
		t.Fatalf("Signals failed: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected upsert to keep one row, got %d", len(signals))
	}
	if signals[0].State != projector.StateVerified || signals[0].Detail != "passport verified" {
		t.Fatalf("unexpected signal: %+v", signals[0])
	}

	states, err := store.SignalStates(ctx, progress.ID)
	if err != nil {
		t.Fatalf("SignalStates failed: %v", err)
	}
	if states["id_docs"][catalog.SourceDocuments] != projector.StateVerified {
		t.Fatalf("unexpected state map: %+v", states)
	}
}

func TestPutSignalUnknownLoan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	err := store.PutSignal(context.Background(), "missing", "id_docs", catalog.SourceDocuments, projector.StateVerified, "")
	if err == nil {
		t.Fatal("expected error for unknown loan")
	}
}

func TestListAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()

	ctx := context.Background()
	first := testsupport.NewLoan(t, store, c, "Avery Chen")
	testsupport.NewLoan(t, store, c, "Sam Ortiz")

	second, _, _ := c.Next(first.CurrentStageID)
	if err := store.CommitAdvance(ctx, first.ID, first.CurrentStageID, second.ID, time.Now(), false); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(all))
	}

	filtered, err := store.List(ctx, second.ID)
	if err != nil {
		t.Fatalf("filtered List failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != first.ID {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[c.First().ID] != 1 || stats[second.ID] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Active != 2 || health.Archived != 0 {
		t.Fatalf("unexpected health: %+v", health)
	}
}
