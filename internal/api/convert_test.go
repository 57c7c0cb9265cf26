package api

import (
	"testing"
	"time"

	"stagegate/internal/loan"
)

func TestFromProgressFormatsTimestamps(t *testing.T) {
	entered := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	dto := FromProgress(&loan.Progress{
		ID:             "loan-1",
		Applicant:      "Avery Chen",
		LoanType:       "mortgage",
		AmountCents:    42_500_000,
		CurrentStageID: "assessment",
		CreatedAt:      entered,
		UpdatedAt:      entered,
	})
	if dto.CreatedAt != "2026-03-14T09:26:53.000Z" {
		t.Fatalf("unexpected createdAt: %q", dto.CreatedAt)
	}
	if dto.CurrentStageID != "assessment" {
		t.Fatalf("unexpected stage: %q", dto.CurrentStageID)
	}
}

func TestFromProgressNil(t *testing.T) {
	if dto := FromProgress(nil); dto != (Loan{}) {
		t.Fatalf("expected zero DTO, got %+v", dto)
	}
}

func TestFromHistoryOmitsOpenExit(t *testing.T) {
	entered := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	exited := entered.Add(2 * time.Hour)
	dtos := FromHistory([]loan.HistoryEntry{
		{StageID: "initial_contact", EnteredAt: entered, ExitedAt: &exited},
		{StageID: "identity_verification", EnteredAt: exited},
	})
	if len(dtos) != 2 {
		t.Fatalf("expected two entries, got %d", len(dtos))
	}
	if dtos[0].ExitedAt == "" {
		t.Fatal("closed entry should carry exitedAt")
	}
	if dtos[1].ExitedAt != "" {
		t.Fatalf("open entry should omit exitedAt, got %q", dtos[1].ExitedAt)
	}
}
