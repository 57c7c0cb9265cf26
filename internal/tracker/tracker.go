package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stagegate/internal/catalog"
	"stagegate/internal/events"
	"stagegate/internal/identity"
	"stagegate/internal/loan"
	"stagegate/internal/logging"
	"stagegate/internal/projector"
)

// Store abstracts the loan persistence the tracker needs.
type Store interface {
	GetByID(ctx context.Context, id string) (*loan.Progress, error)
	SignalStates(ctx context.Context, loanID string) (map[string]map[string]projector.State, error)
	CommitAdvance(ctx context.Context, loanID, expectedStageID, nextStageID string, now time.Time, terminal bool) error
	History(ctx context.Context, loanID string) ([]loan.HistoryEntry, error)
}

// Tracker coordinates stage advancement over the catalog, store, identity
// provider, and event sink.
type Tracker struct {
	catalog   *catalog.Catalog
	store     Store
	identity  identity.Provider
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes tracker construction.
type Option func(*Tracker)

// WithClock overrides the tracker's time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New constructs a tracker. The publisher may be nil when no event sink is
// configured.
func New(c *catalog.Catalog, store Store, provider identity.Provider, publisher events.Publisher, logger *slog.Logger, opts ...Option) (*Tracker, error) {
	if c == nil || store == nil || provider == nil {
		return nil, errors.New("tracker requires catalog, store, and identity provider")
	}
	t := &Tracker{
		catalog:   c,
		store:     store,
		identity:  provider,
		publisher: publisher,
		logger:    logging.WithComponent(logger, "tracker"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Advance moves the loan to its next stage after checking the actor's
// capability, the terminal-stage precondition, and the required sub-task
// gate. The commit is a compare-and-set; on a lost race the whole
// read-check-write sequence is retried exactly once before ErrConflict is
// surfaced. The stage-entered event is best effort and never rolls back the
// transition.
func (t *Tracker) Advance(ctx context.Context, loanID string, actor identity.Actor) (*loan.Progress, error) {
	if !t.identity.HasCapability(actor, identity.CapAdvanceLoanStage) {
		return nil, fmt.Errorf("actor %s advancing loan %s: %w", actor.ID, loanID, ErrForbidden)
	}

	progress, next, err := t.tryAdvance(ctx, loanID)
	if errors.Is(err, loan.ErrConflict) {
		t.logger.Warn("advance lost compare-and-set race, retrying",
			logging.String(logging.FieldLoanID, loanID),
			logging.String(logging.FieldActor, actor.ID),
		)
		progress, next, err = t.tryAdvance(ctx, loanID)
		if errors.Is(err, loan.ErrConflict) {
			return nil, fmt.Errorf("loan %s: %w", loanID, ErrConflict)
		}
	}
	if err != nil {
		return nil, err
	}

	t.logger.Info("loan advanced",
		logging.String(logging.FieldLoanID, loanID),
		logging.String(logging.FieldStage, next.ID),
		logging.String(logging.FieldActor, actor.ID),
	)
	t.publishStageEntered(ctx, progress, next, actor)
	return progress, nil
}

// tryAdvance runs one read-check-write pass and returns the refreshed
// progress and the stage that was entered.
func (t *Tracker) tryAdvance(ctx context.Context, loanID string) (*loan.Progress, catalog.Stage, error) {
	progress, err := t.store.GetByID(ctx, loanID)
	if err != nil {
		return nil, catalog.Stage{}, fmt.Errorf("load loan: %w", err)
	}
	if progress == nil {
		return nil, catalog.Stage{}, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}

	current, err := t.catalog.Stage(progress.CurrentStageID)
	if err != nil {
		return nil, catalog.Stage{}, fmt.Errorf("loan %s references stage outside catalog: %w", loanID, err)
	}
	next, ok, err := t.catalog.Next(current.ID)
	if err != nil {
		return nil, catalog.Stage{}, err
	}
	if !ok {
		return nil, catalog.Stage{}, fmt.Errorf("loan %s at stage %s: %w", loanID, current.ID, ErrAlreadyComplete)
	}

	if missing, err := t.missingRequiredSubtasks(ctx, loanID, current); err != nil {
		return nil, catalog.Stage{}, err
	} else if len(missing) > 0 {
		return nil, catalog.Stage{}, &IncompleteSubtasksError{StageID: current.ID, Missing: missing}
	}

	terminal, err := t.catalog.IsTerminal(next.ID)
	if err != nil {
		return nil, catalog.Stage{}, err
	}
	if err := t.store.CommitAdvance(ctx, loanID, current.ID, next.ID, t.now(), terminal); err != nil {
		return nil, catalog.Stage{}, err
	}

	refreshed, err := t.store.GetByID(ctx, loanID)
	if err != nil {
		return nil, catalog.Stage{}, fmt.Errorf("reload loan: %w", err)
	}
	if refreshed == nil {
		return nil, catalog.Stage{}, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}
	return refreshed, next, nil
}

func (t *Tracker) missingRequiredSubtasks(ctx context.Context, loanID string, stage catalog.Stage) ([]string, error) {
	states, err := t.store.SignalStates(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}
	var missing []string
	for _, task := range stage.SubTasks {
		if !task.Required {
			continue
		}
		if projector.Project(task, states[task.ID]) != catalog.TaskCompleted {
			missing = append(missing, task.ID)
		}
	}
	return missing, nil
}

func (t *Tracker) publishStageEntered(ctx context.Context, progress *loan.Progress, next catalog.Stage, actor identity.Actor) {
	if t.publisher == nil {
		return
	}
	eventType := events.TypeStageEntered
	if terminal, err := t.catalog.IsTerminal(next.ID); err == nil && terminal {
		eventType = events.TypeLoanCompleted
	}
	event := events.Event{
		Type:       eventType,
		LoanID:     progress.ID,
		Applicant:  progress.Applicant,
		StageID:    next.ID,
		StageTitle: next.Title,
		Actor:      actor.ID,
		OccurredAt: t.now().UTC(),
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		// Delivery is best effort; the committed transition stands.
		t.logger.Warn("stage event delivery failed",
			logging.String(logging.FieldEvent, event.Type),
			logging.String(logging.FieldLoanID, event.LoanID),
			logging.String(logging.FieldStage, event.StageID),
			logging.Error(err),
		)
	}
}
