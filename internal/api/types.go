package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Loan describes a loan progress record in a transport-friendly format.
type Loan struct {
	ID             string `json:"id"`
	Applicant      string `json:"applicant"`
	LoanType       string `json:"loanType"`
	AmountCents    int64  `json:"amountCents"`
	CurrentStageID string `json:"currentStageId"`
	Archived       bool   `json:"archived"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// SubTask is one checklist entry of a stage with its projected status.
type SubTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Required bool   `json:"required"`
	Status   string `json:"status"`
}

// Stage is one catalog stage with statuses derived for a loan.
type Stage struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Ordinal     int       `json:"ordinal"`
	Status      string    `json:"status,omitempty"`
	SubTasks    []SubTask `json:"subTasks,omitempty"`
}

// HistoryEntry is one row of a loan's stage audit trail.
type HistoryEntry struct {
	StageID   string `json:"stageId"`
	EnteredAt string `json:"enteredAt"`
	ExitedAt  string `json:"exitedAt,omitempty"`
}

// LoanView is the full read projection for a single loan.
type LoanView struct {
	Loan       Loan           `json:"loan"`
	CanAdvance bool           `json:"canAdvance"`
	BlockedBy  []string       `json:"blockedBy,omitempty"`
	Stages     []Stage        `json:"stages"`
	History    []HistoryEntry `json:"history"`
}

// Signal is one recorded upstream collaborator report.
type Signal struct {
	SubtaskID string `json:"subtaskId"`
	Source    string `json:"source"`
	State     string `json:"state"`
	Detail    string `json:"detail,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// StoreHealth summarizes loan counts for diagnostics.
type StoreHealth struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Archived int `json:"archived"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	StageCounts  map[string]int `json:"stageCounts"`
	Store        StoreHealth    `json:"store"`
}

// CreateLoanRequest is the POST /api/loans body.
type CreateLoanRequest struct {
	Applicant   string `json:"applicant"`
	LoanType    string `json:"loanType"`
	AmountCents int64  `json:"amountCents"`
}

// ActorRef identifies the acting staff member on mutating requests.
type ActorRef struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

// AdvanceRequest is the POST /api/loans/{id}/advance body.
type AdvanceRequest struct {
	Actor ActorRef `json:"actor"`
}

// SignalRequest is the POST /api/loans/{id}/signals body.
type SignalRequest struct {
	Actor     ActorRef `json:"actor"`
	SubtaskID string   `json:"subtaskId"`
	Source    string   `json:"source"`
	State     string   `json:"state"`
	Detail    string   `json:"detail,omitempty"`
}

// LoanListResponse wraps a collection of loans.
type LoanListResponse struct {
	Loans []Loan `json:"loans"`
}

// LoanViewResponse wraps a single loan view.
type LoanViewResponse struct {
	View LoanView `json:"view"`
}

// LoanResponse wraps a single loan record.
type LoanResponse struct {
	Loan Loan `json:"loan"`
}

// StageListResponse wraps the stage catalog.
type StageListResponse struct {
	Stages []Stage `json:"stages"`
}

// SignalListResponse wraps a loan's recorded signals.
type SignalListResponse struct {
	Signals []Signal `json:"signals"`
}
