package loan

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS loans (
        id TEXT PRIMARY KEY,
        applicant TEXT NOT NULL,
        loan_type TEXT NOT NULL,
        amount_cents INTEGER NOT NULL DEFAULT 0,
        current_stage_id TEXT NOT NULL,
        archived INTEGER NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS loan_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
        stage_id TEXT NOT NULL,
        entered_at TEXT NOT NULL,
        exited_at TEXT
    )`,
	`CREATE TABLE IF NOT EXISTS loan_signals (
        loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
        subtask_id TEXT NOT NULL,
        source TEXT NOT NULL,
        state TEXT NOT NULL,
        detail TEXT,
        updated_at TEXT NOT NULL,
        PRIMARY KEY (loan_id, subtask_id, source)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_loans_stage ON loans(current_stage_id)`,
	`CREATE INDEX IF NOT EXISTS idx_history_loan ON loan_history(loan_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_loan ON loan_signals(loan_id)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
