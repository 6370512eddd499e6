package models

import "time"

// Consult status lifecycle: Pending -> Completed | Failed.
const (
	ConsultPending   = "Pending"
	ConsultCompleted = "Completed"
	ConsultFailed    = "Failed"
)

// Consult is one page-level lookup inside a process. Its page is always
// one of the process's requested pages.
type Consult struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProcessID uint `gorm:"not null;index;column:process_id" json:"process_id"`
	PageID    uint `gorm:"not null;index;column:page_id" json:"page_id"`

	// ValueSent is the input submitted to the external source; empty
	// when the value mapper has no field for the page.
	ValueSent string `gorm:"size:200;column:value_sent" json:"value_sent"`

	Status string `gorm:"not null;default:Pending;index" json:"status"`

	// CapturedData holds the runner's opaque result payload as JSON.
	CapturedData string `gorm:"type:text;column:captured_data" json:"captured_data"`
	ErrorMessage string `gorm:"type:text;column:error_message" json:"error_message"`

	Attempts    int `gorm:"default:0" json:"attempts"`
	MaxAttempts int `gorm:"default:2;column:max_attempts" json:"max_attempts"`

	StartedAt       *time.Time `gorm:"index;column:started_at" json:"started_at"`
	EndedAt         *time.Time `gorm:"column:ended_at" json:"ended_at"`
	DurationSeconds int        `gorm:"column:duration_seconds" json:"duration_seconds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Page Page `gorm:"foreignKey:PageID" json:"-"`
}

// TableName specifies the table name for GORM
func (Consult) TableName() string {
	return "consults"
}
