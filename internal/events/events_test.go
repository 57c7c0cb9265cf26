package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stagegate/internal/events"
	"stagegate/internal/logging"
)

func TestFanoutDeliversToAllDespiteFailure(t *testing.T) {
	var delivered []string
	failing := events.PublisherFunc(func(context.Context, events.Event) error {
		delivered = append(delivered, "failing")
		return errors.New("webhook down")
	})
	working := events.PublisherFunc(func(_ context.Context, event events.Event) error {
		delivered = append(delivered, "working:"+event.Type)
		return nil
	})

	fanout := events.NewFanout(logging.NewNop(), failing, working, nil)
	err := fanout.Publish(context.Background(), events.Event{
		Type:       events.TypeStageEntered,
		LoanID:     "loan-1",
		StageID:    "assessment",
		OccurredAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected first failure to be reported")
	}
	if len(delivered) != 2 {
		t.Fatalf("expected both publishers invoked, got %v", delivered)
	}
	if delivered[1] != "working:"+events.TypeStageEntered {
		t.Fatalf("second publisher missed event: %v", delivered)
	}
}

func TestFanoutEmptyIsNoop(t *testing.T) {
	fanout := events.NewFanout(logging.NewNop())
	if err := fanout.Publish(context.Background(), events.Event{Type: events.TypeLoanCompleted}); err != nil {
		t.Fatalf("empty fanout should not fail: %v", err)
	}
}

func TestWithTimeoutCancelsSlowSink(t *testing.T) {
	slow := events.PublisherFunc(func(ctx context.Context, _ events.Event) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	bounded := events.WithTimeout(slow, 10*time.Millisecond)
	err := bounded.Publish(context.Background(), events.Event{Type: events.TypeStageEntered})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWithTimeoutZeroIsPassthrough(t *testing.T) {
	p := events.PublisherFunc(func(context.Context, events.Event) error { return nil })
	if got := events.WithTimeout(p, 0); got == nil {
		t.Fatal("zero timeout should return the publisher unchanged")
	}
}
