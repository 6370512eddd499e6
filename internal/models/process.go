package models

import "time"

// Process status lifecycle:
// Pending -> Processing -> Completed | CompletedWithErrors | ErrorTotal.
const (
	ProcessPending             = "Pending"
	ProcessProcessing          = "Processing"
	ProcessCompleted           = "Completed"
	ProcessCompletedWithErrors = "Completed_With_Errors"
	ProcessErrorTotal          = "Error_Total"
)

// Process is one end-to-end check run of a client against a set of
// pages. Created atomically with its consults; mutated afterwards only
// by job reconciliation. JobID correlates it with the external runner.
type Process struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"not null;index;column:client_id" json:"client_id"`
	JobID    string `gorm:"size:100;unique;index;column:job_id" json:"job_id"`

	// Snapshot of the client's alert at creation time.
	AlertType string     `gorm:"size:100;column:alert_type" json:"alert_type"`
	AmountUSD float64    `gorm:"column:amount_usd" json:"amount_usd"`
	AlertDate *time.Time `gorm:"column:alert_date" json:"alert_date"`

	Status    string     `gorm:"not null;default:Pending;index" json:"status"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	StartedAt *time.Time `gorm:"column:started_at" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at"`

	Headless       bool `gorm:"default:false" json:"headless"`
	GenerateReport bool `gorm:"default:true;column:generate_report" json:"generate_report"`

	// Counters recomputed from the consult snapshot on every
	// reconciliation; TotalSucceeded+TotalFailed <= TotalRequested.
	TotalRequested int `gorm:"default:0;column:total_requested" json:"total_requested"`
	TotalSucceeded int `gorm:"default:0;column:total_succeeded" json:"total_succeeded"`
	TotalFailed    int `gorm:"default:0;column:total_failed" json:"total_failed"`

	ErrorMessage string `gorm:"type:text;column:error_message" json:"error_message"`

	Consults []Consult `gorm:"foreignKey:ProcessID" json:"-"`
}

// Terminal reports whether the process reached a final status.
func (p *Process) Terminal() bool {
	switch p.Status {
	case ProcessCompleted, ProcessCompletedWithErrors, ProcessErrorTotal:
		return true
	}
	return false
}

// TableName specifies the table name for GORM
func (Process) TableName() string {
	return "processes"
}
