package loan

import (
	"time"

	"stagegate/internal/projector"
)

// Progress is the mutable, persisted record of a loan's position in the
// stage catalog. It is created when a loan enters the system and mutated
// only through CommitAdvance until it reaches the terminal stage, after
// which it is archived and read-only.
type Progress struct {
	ID             string
	Applicant      string
	LoanType       string
	AmountCents    int64
	CurrentStageID string
	Archived       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HistoryEntry is one row of the append-only stage audit trail. ExitedAt is
// nil for the currently open stage.
type HistoryEntry struct {
	ID        int64
	LoanID    string
	StageID   string
	EnteredAt time.Time
	ExitedAt  *time.Time
}

// Signal is one upstream collaborator report for a sub-task: a document
// verification outcome, a credit bureau response, a valuation result.
type Signal struct {
	LoanID    string
	SubtaskID string
	Source    string
	State     projector.State
	Detail    string
	UpdatedAt time.Time
}

// HealthSummary describes aggregated loan counts for diagnostics.
type HealthSummary struct {
	Total    int
	Active   int
	Archived int
}
