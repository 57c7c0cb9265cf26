package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const loanColumns = "id, applicant, loan_type, amount_cents, current_stage_id, archived, created_at, updated_at"

// NewLoan inserts a loan at the given initial stage with one open history row.
func (s *Store) NewLoan(ctx context.Context, applicant, loanType string, amountCents int64, initialStageID string) (*Progress, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin loan insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO loans (id, applicant, loan_type, amount_cents, current_stage_id, archived, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, applicant, loanType, amountCents, initialStageID, timestamp, timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO loan_history (loan_id, stage_id, entered_at, exited_at) VALUES (?, ?, ?, NULL)`,
		id, initialStageID, timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert initial history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit loan insert: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a loan by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Progress, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	progress, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return progress, nil
}

// List returns loans filtered by current stage (or all loans when no stage is
// provided), ordered by creation time.
func (s *Store) List(ctx context.Context, stageIDs ...string) ([]*Progress, error) {
	ctx = ensureContext(ctx)

	baseQuery := `SELECT ` + loanColumns + ` FROM loans`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(stageIDs) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stageIDs))
		args := make([]any, len(stageIDs))
		for i, stageID := range stageIDs {
			args[i] = stageID
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE current_stage_id IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []*Progress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, progress)
	}
	return loans, rows.Err()
}

// History returns the loan's stage audit trail in entry order.
func (s *Store) History(ctx context.Context, loanID string) ([]HistoryEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, loan_id, stage_id, entered_at, exited_at FROM loan_history WHERE loan_id = ? ORDER BY id`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			enteredRaw string
			exitedRaw  sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.LoanID, &entry.StageID, &enteredRaw, &exitedRaw); err != nil {
			return nil, err
		}
		if entered, err := parseTimeString(enteredRaw); err == nil {
			entry.EnteredAt = entered
		}
		if exitedRaw.Valid {
			if exited, err := parseTimeString(exitedRaw.String); err == nil {
				entry.ExitedAt = &exited
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CommitAdvance atomically moves a loan from expectedStageID to nextStageID:
// the current stage row is guarded by a compare-and-set, the open history
// entry is closed, and a new open entry is appended, all in one transaction.
// A stale expectedStageID yields ErrConflict; a terminal nextStage archives
// the loan.
func (s *Store) CommitAdvance(ctx context.Context, loanID, expectedStageID, nextStageID string, now time.Time, terminal bool) error {
	ctx = ensureContext(ctx)
	timestamp := now.UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin advance: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(
			ctx,
			`UPDATE loans SET current_stage_id = ?, archived = ?, updated_at = ?
             WHERE id = ? AND current_stage_id = ? AND archived = 0`,
			nextStageID, boolToInt(terminal), timestamp, loanID, expectedStageID,
		)
		if err != nil {
			return fmt.Errorf("advance loan: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("loan %s at stage %s: %w", loanID, expectedStageID, ErrConflict)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE loan_history SET exited_at = ? WHERE loan_id = ? AND exited_at IS NULL`,
			timestamp, loanID,
		); err != nil {
			return fmt.Errorf("close history entry: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO loan_history (loan_id, stage_id, entered_at, exited_at) VALUES (?, ?, ?, NULL)`,
			loanID, nextStageID, timestamp,
		); err != nil {
			return fmt.Errorf("open history entry: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit advance: %w", err)
		}
		return nil
	})
}

// Stats returns a count of loans grouped by current stage.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT current_stage_id, COUNT(1) FROM loans GROUP BY current_stage_id`)
	if err != nil {
		return nil, fmt.Errorf("loan stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var stageID string
		var count int
		if err := rows.Scan(&stageID, &count); err != nil {
			return nil, err
		}
		stats[stageID] = count
	}
	return stats, rows.Err()
}

// Health aggregates loan state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(CASE WHEN archived = 0 THEN 1 ELSE 0 END), 0) FROM loans`,
	)
	var health HealthSummary
	if err := row.Scan(&health.Total, &health.Active); err != nil {
		return HealthSummary{}, fmt.Errorf("loan health: %w", err)
	}
	health.Archived = health.Total - health.Active
	return health, nil
}

func scanProgress(scanner interface{ Scan(dest ...any) error }) (*Progress, error) {
	var (
		id           string
		applicant    sql.NullString
		loanType     sql.NullString
		amountCents  sql.NullInt64
		currentStage string
		archived     sql.NullInt64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&applicant,
		&loanType,
		&amountCents,
		&currentStage,
		&archived,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	progress := &Progress{
		ID:             id,
		Applicant:      applicant.String,
		LoanType:       loanType.String,
		AmountCents:    amountCents.Int64,
		CurrentStageID: currentStage,
	}
	if archived.Valid {
		progress.Archived = archived.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		progress.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		progress.UpdatedAt = updated
	}
	return progress, nil
}
