package testsupport

import (
	"context"
	"testing"

	"stagegate/internal/catalog"
	"stagegate/internal/config"
	"stagegate/internal/loan"
	"stagegate/internal/projector"
)

// MustOpenStore opens a loan.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *loan.Store {
	t.Helper()

	store, err := loan.Open(cfg)
	if err != nil {
		t.Fatalf("loan.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewLoan creates a loan at the catalog's first stage for tests.
func NewLoan(t testing.TB, store *loan.Store, c *catalog.Catalog, applicant string) *loan.Progress {
	t.Helper()

	progress, err := store.NewLoan(context.Background(), applicant, "mortgage", 50_000_000, c.First().ID)
	if err != nil {
		t.Fatalf("store.NewLoan: %v", err)
	}
	return progress
}

// CompleteStage records verified signals for every required sub-task of the
// loan's current stage so the advance gate passes.
func CompleteStage(t testing.TB, store *loan.Store, c *catalog.Catalog, loanID, stageID string) {
	t.Helper()

	stage, err := c.Stage(stageID)
	if err != nil {
		t.Fatalf("catalog.Stage(%q): %v", stageID, err)
	}
	for _, task := range stage.SubTasks {
		if !task.Required {
			continue
		}
		for _, source := range task.Sources {
			if err := store.PutSignal(context.Background(), loanID, task.ID, source, projector.StateVerified, ""); err != nil {
				t.Fatalf("store.PutSignal(%q, %q): %v", task.ID, source, err)
			}
		}
	}
}
