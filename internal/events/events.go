// Package events defines the best-effort event sink the tracker publishes to
// when a loan enters a new stage. Delivery failures never roll back a stage
// transition; they are logged and left to out-of-band retry.
package events

import (
	"context"
	"log/slog"
	"time"

	"stagegate/internal/logging"
)

// Event types emitted by the tracker.
const (
	TypeStageEntered  = "stage_entered"
	TypeLoanCompleted = "loan_completed"
)

// Event describes a loan crossing a stage boundary.
type Event struct {
	Type       string
	LoanID     string
	Applicant  string
	StageID    string
	StageTitle string
	Actor      string
	OccurredAt time.Time
}

// Publisher delivers events to downstream automation. Implementations must
// tolerate duplicate delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Fanout delivers each event to every publisher. Individual failures are
// logged and do not stop delivery to the remaining publishers; the first
// failure is returned so callers can count it.
type Fanout struct {
	publishers []Publisher
	logger     *slog.Logger
}

// NewFanout composes publishers into one. Nil entries are skipped.
func NewFanout(logger *slog.Logger, publishers ...Publisher) *Fanout {
	kept := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fanout{publishers: kept, logger: logging.WithComponent(logger, "events")}
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			f.logger.Warn("event delivery failed",
				logging.String(logging.FieldEvent, event.Type),
				logging.String(logging.FieldLoanID, event.LoanID),
				logging.String(logging.FieldStage, event.StageID),
				logging.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// WithTimeout bounds each delivery attempt so a slow sink cannot stall the
// operation that emitted the event.
func WithTimeout(publisher Publisher, timeout time.Duration) Publisher {
	if publisher == nil || timeout <= 0 {
		return publisher
	}
	return PublisherFunc(func(ctx context.Context, event Event) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return publisher.Publish(ctx, event)
	})
}

// NewLogPublisher returns a publisher that records events to the logger.
func NewLogPublisher(logger *slog.Logger) Publisher {
	log := logging.WithComponent(logger, "event-log")
	return PublisherFunc(func(_ context.Context, event Event) error {
		log.Info("event published",
			logging.String(logging.FieldEvent, event.Type),
			logging.String(logging.FieldLoanID, event.LoanID),
			logging.String(logging.FieldStage, event.StageID),
			logging.String(logging.FieldActor, event.Actor),
		)
		return nil
	})
}
