package api

import (
	"time"

	"stagegate/internal/catalog"
	"stagegate/internal/identity"
	"stagegate/internal/loan"
	"stagegate/internal/tracker"
)

// ToActor converts a request actor reference into the identity type.
func (ref ActorRef) ToActor() identity.Actor {
	return identity.Actor{ID: ref.ID, Name: ref.Name, Roles: ref.Roles}
}

// FromProgress converts a loan record into its API DTO.
func FromProgress(progress *loan.Progress) Loan {
	if progress == nil {
		return Loan{}
	}
	return Loan{
		ID:             progress.ID,
		Applicant:      progress.Applicant,
		LoanType:       progress.LoanType,
		AmountCents:    progress.AmountCents,
		CurrentStageID: progress.CurrentStageID,
		Archived:       progress.Archived,
		CreatedAt:      formatTime(progress.CreatedAt),
		UpdatedAt:      formatTime(progress.UpdatedAt),
	}
}

// FromProgressList converts a slice of loan records.
func FromProgressList(records []*loan.Progress) []Loan {
	if len(records) == 0 {
		return nil
	}
	out := make([]Loan, 0, len(records))
	for _, record := range records {
		out = append(out, FromProgress(record))
	}
	return out
}

// FromHistory converts audit trail entries.
func FromHistory(entries []loan.HistoryEntry) []HistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		dto := HistoryEntry{
			StageID:   entry.StageID,
			EnteredAt: formatTime(entry.EnteredAt),
		}
		if entry.ExitedAt != nil {
			dto.ExitedAt = formatTime(*entry.ExitedAt)
		}
		out = append(out, dto)
	}
	return out
}

// FromView converts a tracker view into its API DTO.
func FromView(view *tracker.View) LoanView {
	if view == nil {
		return LoanView{}
	}
	dto := LoanView{
		Loan: Loan{
			ID:             view.LoanID,
			Applicant:      view.Applicant,
			LoanType:       view.LoanType,
			AmountCents:    view.AmountCents,
			CurrentStageID: view.CurrentStageID,
			Archived:       view.Archived,
		},
		CanAdvance: view.CanAdvance,
		BlockedBy:  append([]string(nil), view.BlockedBy...),
		History:    FromHistory(view.History),
	}
	for _, stage := range view.Stages {
		stageDTO := Stage{
			ID:          stage.ID,
			Title:       stage.Title,
			Description: stage.Description,
			Ordinal:     stage.Ordinal,
			Status:      string(stage.Status),
		}
		for _, task := range stage.SubTasks {
			stageDTO.SubTasks = append(stageDTO.SubTasks, SubTask{
				ID:       task.ID,
				Title:    task.Title,
				Required: task.Required,
				Status:   string(task.Status),
			})
		}
		dto.Stages = append(dto.Stages, stageDTO)
	}
	return dto
}

// FromCatalog converts the stage catalog without per-loan statuses.
func FromCatalog(c *catalog.Catalog) []Stage {
	if c == nil {
		return nil
	}
	stages := c.All()
	out := make([]Stage, 0, len(stages))
	for _, stage := range stages {
		dto := Stage{
			ID:          stage.ID,
			Title:       stage.Title,
			Description: stage.Description,
			Ordinal:     stage.Ordinal,
		}
		for _, task := range stage.SubTasks {
			dto.SubTasks = append(dto.SubTasks, SubTask{
				ID:       task.ID,
				Title:    task.Title,
				Required: task.Required,
			})
		}
		out = append(out, dto)
	}
	return out
}

// FromSignals converts recorded signals.
func FromSignals(signals []loan.Signal) []Signal {
	if len(signals) == 0 {
		return nil
	}
	out := make([]Signal, 0, len(signals))
	for _, signal := range signals {
		out = append(out, Signal{
			SubtaskID: signal.SubtaskID,
			Source:    signal.Source,
			State:     string(signal.State),
			Detail:    signal.Detail,
			UpdatedAt: formatTime(signal.UpdatedAt),
		})
	}
	return out
}

// FromHealth converts a store health summary.
func FromHealth(health loan.HealthSummary) StoreHealth {
	return StoreHealth{
		Total:    health.Total,
		Active:   health.Active,
		Archived: health.Archived,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
