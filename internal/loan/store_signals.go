package loan

import (
	"context"
	"fmt"
	"time"

	"stagegate/internal/projector"
)

// PutSignal records or updates an upstream collaborator report for a
// sub-task. Writes against archived loans are rejected.
func (s *Store) PutSignal(ctx context.Context, loanID, subtaskID, source string, state projector.State, detail string) error {
	ctx = ensureContext(ctx)

	progress, err := s.GetByID(ctx, loanID)
	if err != nil {
		return err
	}
	if progress == nil {
		return fmt.Errorf("loan %s not found", loanID)
	}
	if progress.Archived {
		return fmt.Errorf("loan %s: %w", loanID, ErrArchived)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO loan_signals (loan_id, subtask_id, source, state, detail, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (loan_id, subtask_id, source)
         DO UPDATE SET state = excluded.state, detail = excluded.detail, updated_at = excluded.updated_at`,
		loanID, subtaskID, source, string(state), nullableString(detail), timestamp,
	)
	if err != nil {
		return fmt.Errorf("put signal: %w", err)
	}
	return nil
}

// Signals returns all collaborator reports recorded for a loan.
func (s *Store) Signals(ctx context.Context, loanID string) ([]Signal, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT loan_id, subtask_id, source, state, COALESCE(detail, ''), updated_at
         FROM loan_signals WHERE loan_id = ? ORDER BY subtask_id, source`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []Signal
	for rows.Next() {
		var (
			signal     Signal
			stateRaw   string
			updatedRaw string
		)
		if err := rows.Scan(&signal.LoanID, &signal.SubtaskID, &signal.Source, &stateRaw, &signal.Detail, &updatedRaw); err != nil {
			return nil, err
		}
		signal.State = projector.State(stateRaw)
		if updated, err := parseTimeString(updatedRaw); err == nil {
			signal.UpdatedAt = updated
		}
		signals = append(signals, signal)
	}
	return signals, rows.Err()
}

// SignalStates reshapes a loan's signals for projection: sub-task id to
// source to reported state.
func (s *Store) SignalStates(ctx context.Context, loanID string) (map[string]map[string]projector.State, error) {
	signals, err := s.Signals(ctx, loanID)
	if err != nil {
		return nil, err
	}
	states := make(map[string]map[string]projector.State)
	for _, signal := range signals {
		bySource, ok := states[signal.SubtaskID]
		if !ok {
			bySource = make(map[string]projector.State)
			states[signal.SubtaskID] = bySource
		}
		bySource[signal.Source] = signal.State
	}
	return states, nil
}
