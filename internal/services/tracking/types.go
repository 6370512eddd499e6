package tracking

import (
	"time"

	"checktrack/internal/models"
	"checktrack/internal/runner"
)

// Dispatcher hands a created process to the external job runner.
// Satisfied by *runner.Client; tests substitute a fake.
type Dispatcher interface {
	StartJob(jobID string, req runner.StartJobRequest) error
}

// CreateProcessRequest describes one process creation.
type CreateProcessRequest struct {
	ClientID       uint
	PageCodes      []string
	Headless       bool
	GenerateReport bool

	// Origin labels who triggered the creation for metrics ("api" when
	// empty, "daemon" for swept clients).
	Origin string
}

// ClientFilter narrows ListClients. Zero values mean "no filter"; the
// date range is inclusive and applies to the client creation time.
type ClientFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Query  string // matches name, surname, CI or RUC
}

// ProcessSummary is the display shape of a client's most recent process.
type ProcessSummary struct {
	ProcessID      uint       `json:"process_id"`
	JobID          string     `json:"job_id"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	TotalRequested int        `json:"total_requested"`
	TotalSucceeded int        `json:"total_succeeded"`
	TotalFailed    int        `json:"total_failed"`
}

// ClientOverview is a client enriched with its active process, newest
// process first being the one shown.
type ClientOverview struct {
	Client        models.Client   `json:"client"`
	ActiveProcess *ProcessSummary `json:"active_process"`
}
