package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stagegate/internal/catalog"
	"stagegate/internal/identity"
	"stagegate/internal/loan"
	"stagegate/internal/projector"
	"stagegate/internal/tracker"
)

// ErrInvalidArgument marks request payloads the service cannot act on.
var ErrInvalidArgument = errors.New("invalid argument")

// LoanStore abstracts the loan persistence interactions the service needs.
type LoanStore interface {
	NewLoan(ctx context.Context, applicant, loanType string, amountCents int64, initialStageID string) (*loan.Progress, error)
	GetByID(ctx context.Context, id string) (*loan.Progress, error)
	List(ctx context.Context, stageIDs ...string) ([]*loan.Progress, error)
	Signals(ctx context.Context, loanID string) ([]loan.Signal, error)
	PutSignal(ctx context.Context, loanID, subtaskID, source string, state projector.State, detail string) error
	Stats(ctx context.Context) (map[string]int, error)
	Health(ctx context.Context) (loan.HealthSummary, error)
}

// LoanService exposes loan operations returning API DTOs. Mutations enforce
// the actor's capabilities; reads do not, matching the surfaces that call
// them.
type LoanService struct {
	catalog  *catalog.Catalog
	store    LoanStore
	tracker  *tracker.Tracker
	identity identity.Provider
}

// NewLoanService constructs a LoanService.
func NewLoanService(c *catalog.Catalog, store LoanStore, tr *tracker.Tracker, provider identity.Provider) *LoanService {
	if c == nil || store == nil || tr == nil || provider == nil {
		return nil
	}
	return &LoanService{catalog: c, store: store, tracker: tr, identity: provider}
}

// List returns loans, optionally filtered to the given stages.
func (s *LoanService) List(ctx context.Context, stageIDs ...string) ([]Loan, error) {
	if s == nil {
		return nil, nil
	}
	records, err := s.store.List(ctx, stageIDs...)
	if err != nil {
		return nil, err
	}
	return FromProgressList(records), nil
}

// Describe returns the full view for one loan, nil when the loan is unknown.
func (s *LoanService) Describe(ctx context.Context, loanID string, actor identity.Actor) (*LoanView, error) {
	if s == nil {
		return nil, nil
	}
	view, err := s.tracker.CurrentView(ctx, loanID, actor)
	if errors.Is(err, tracker.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dto := FromView(view)
	return &dto, nil
}

// Create opens a new loan at the catalog's first stage.
func (s *LoanService) Create(ctx context.Context, actor identity.Actor, req CreateLoanRequest) (*Loan, error) {
	if s == nil {
		return nil, nil
	}
	if !s.identity.HasCapability(actor, identity.CapCreateLoan) {
		return nil, fmt.Errorf("actor %s creating loan: %w", actor.ID, tracker.ErrForbidden)
	}
	applicant := strings.TrimSpace(req.Applicant)
	if applicant == "" {
		return nil, fmt.Errorf("applicant is required: %w", ErrInvalidArgument)
	}
	loanType := strings.ToLower(strings.TrimSpace(req.LoanType))
	if loanType == "" {
		loanType = "mortgage"
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrInvalidArgument)
	}
	progress, err := s.store.NewLoan(ctx, applicant, loanType, req.AmountCents, s.catalog.First().ID)
	if err != nil {
		return nil, err
	}
	dto := FromProgress(progress)
	return &dto, nil
}

// Advance moves the loan one stage forward through the tracker's guarded
// operation.
func (s *LoanService) Advance(ctx context.Context, loanID string, actor identity.Actor) (*Loan, error) {
	if s == nil {
		return nil, nil
	}
	progress, err := s.tracker.Advance(ctx, loanID, actor)
	if err != nil {
		return nil, err
	}
	dto := FromProgress(progress)
	return &dto, nil
}

// RecordSignal stores an upstream collaborator report after validating the
// sub-task, source, and state against the catalog.
func (s *LoanService) RecordSignal(ctx context.Context, loanID string, actor identity.Actor, req SignalRequest) error {
	if s == nil {
		return nil
	}
	if !s.identity.HasCapability(actor, identity.CapRecordSignal) {
		return fmt.Errorf("actor %s recording signal: %w", actor.ID, tracker.ErrForbidden)
	}
	subtaskID := strings.ToLower(strings.TrimSpace(req.SubtaskID))
	source := strings.ToLower(strings.TrimSpace(req.Source))
	if subtaskID == "" || source == "" {
		return fmt.Errorf("subtask and source are required: %w", ErrInvalidArgument)
	}
	task, ok := s.findSubTask(subtaskID)
	if !ok {
		return fmt.Errorf("unknown subtask %q: %w", subtaskID, ErrInvalidArgument)
	}
	if !contributes(task, source) {
		return fmt.Errorf("source %q does not contribute to subtask %q: %w", source, subtaskID, ErrInvalidArgument)
	}
	state, ok := projector.ParseState(req.State)
	if !ok {
		return fmt.Errorf("unknown signal state %q: %w", req.State, ErrInvalidArgument)
	}
	return s.store.PutSignal(ctx, loanID, subtaskID, source, state, strings.TrimSpace(req.Detail))
}

// Signals returns the recorded reports for a loan.
func (s *LoanService) Signals(ctx context.Context, loanID string) ([]Signal, error) {
	if s == nil {
		return nil, nil
	}
	signals, err := s.store.Signals(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return FromSignals(signals), nil
}

// Stats returns per-stage loan counts.
func (s *LoanService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil {
		return nil, nil
	}
	return s.store.Stats(ctx)
}

// Health returns aggregate loan counts.
func (s *LoanService) Health(ctx context.Context) (StoreHealth, error) {
	if s == nil {
		return StoreHealth{}, nil
	}
	health, err := s.store.Health(ctx)
	if err != nil {
		return StoreHealth{}, err
	}
	return FromHealth(health), nil
}

func (s *LoanService) findSubTask(subtaskID string) (catalog.SubTask, bool) {
	for _, stage := range s.catalog.All() {
		for _, task := range stage.SubTasks {
			if task.ID == subtaskID {
				return task, true
			}
		}
	}
	return catalog.SubTask{}, false
}

func contributes(task catalog.SubTask, source string) bool {
	for _, candidate := range task.Sources {
		if candidate == source {
			return true
		}
	}
	return false
}
