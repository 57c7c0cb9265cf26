package api_test

import (
	"context"
	"errors"
	"testing"

	"stagegate/internal/api"
	"stagegate/internal/catalog"
	"stagegate/internal/config"
	"stagegate/internal/identity"
	"stagegate/internal/logging"
	"stagegate/internal/testsupport"
	"stagegate/internal/tracker"
)

var (
	admin    = identity.Actor{ID: "u-admin", Name: "Sam", Roles: []string{"admin"}}
	observer = identity.Actor{ID: "u-observer", Name: "Lee", Roles: []string{"observer"}}
)

func newService(t *testing.T) (*api.LoanService, *catalog.Catalog) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	c := catalog.BuiltIn()
	provider := identity.NewRoleProvider(config.DefaultRoles())
	tr, err := tracker.New(c, store, provider, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("tracker.New: %v", err)
	}
	svc := api.NewLoanService(c, store, tr, provider)
	if svc == nil {
		t.Fatal("NewLoanService returned nil")
	}
	return svc, c
}

func TestCreateAndDescribe(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, api.CreateLoanRequest{
		Applicant:   "Avery Chen",
		LoanType:    "Mortgage",
		AmountCents: 42_500_000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.CurrentStageID != c.First().ID {
		t.Fatalf("new loan should start at %q, got %q", c.First().ID, created.CurrentStageID)
	}
	if created.LoanType != "mortgage" {
		t.Fatalf("loan type should normalize, got %q", created.LoanType)
	}

	view, err := svc.Describe(ctx, created.ID, admin)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if view == nil {
		t.Fatal("Describe returned nil for existing loan")
	}
	if len(view.Stages) != c.Len() {
		t.Fatalf("expected %d stages, got %d", c.Len(), len(view.Stages))
	}
	if view.CanAdvance {
		t.Fatal("fresh loan must not be advanceable")
	}
	if len(view.History) != 1 || view.History[0].ExitedAt != "" {
		t.Fatalf("expected single open history entry, got %+v", view.History)
	}
}

func TestDescribeUnknownLoanReturnsNil(t *testing.T) {
	svc, _ := newService(t)
	view, err := svc.Describe(context.Background(), "no-such-loan", admin)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil view, got %+v", view)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, api.CreateLoanRequest{Applicant: "  ", AmountCents: 1000})
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("blank applicant: expected ErrInvalidArgument, got %v", err)
	}
	_, err = svc.Create(ctx, admin, api.CreateLoanRequest{Applicant: "Avery", AmountCents: 0})
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("zero amount: expected ErrInvalidArgument, got %v", err)
	}
	_, err = svc.Create(ctx, observer, api.CreateLoanRequest{Applicant: "Avery", AmountCents: 1000})
	if !errors.Is(err, tracker.ErrForbidden) {
		t.Fatalf("unknown role: expected ErrForbidden, got %v", err)
	}
}

func TestRecordSignalValidation(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, api.CreateLoanRequest{Applicant: "Avery", AmountCents: 1000})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	task := c.First().SubTasks[0]
	valid := api.SignalRequest{SubtaskID: task.ID, Source: task.Sources[0], State: "verified"}
	if err := svc.RecordSignal(ctx, created.ID, admin, valid); err != nil {
		t.Fatalf("valid signal rejected: %v", err)
	}

	cases := map[string]api.SignalRequest{
		"unknown subtask": {SubtaskID: "bogus", Source: task.Sources[0], State: "verified"},
		"wrong source":    {SubtaskID: task.ID, Source: "weather", State: "verified"},
		"unknown state":   {SubtaskID: task.ID, Source: task.Sources[0], State: "maybe"},
	}
	for name, req := range cases {
		if err := svc.RecordSignal(ctx, created.ID, admin, req); !errors.Is(err, api.ErrInvalidArgument) {
			t.Fatalf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}

	if err := svc.RecordSignal(ctx, created.ID, observer, valid); !errors.Is(err, tracker.ErrForbidden) {
		t.Fatalf("unauthorized signal: expected ErrForbidden, got %v", err)
	}

	signals, err := svc.Signals(ctx, created.ID)
	if err != nil {
		t.Fatalf("Signals failed: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected one stored signal, got %d", len(signals))
	}
}

func TestListFiltersByStage(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	for _, applicant := range []string{"Avery", "Blake", "Casey"} {
		if _, err := svc.Create(ctx, admin, api.CreateLoanRequest{Applicant: applicant, AmountCents: 1000}); err != nil {
			t.Fatalf("Create(%s) failed: %v", applicant, err)
		}
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected three loans, got %d", len(all))
	}

	first, err := svc.List(ctx, c.First().ID)
	if err != nil {
		t.Fatalf("List(stage) failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("all loans sit at the first stage, got %d", len(first))
	}

	terminal, err := svc.List(ctx, c.Terminal().ID)
	if err != nil {
		t.Fatalf("List(terminal) failed: %v", err)
	}
	if len(terminal) != 0 {
		t.Fatalf("expected no terminal loans, got %d", len(terminal))
	}
}
