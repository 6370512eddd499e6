package models

import "time"

// Report is the artifact record tied 1:1 to a process. The file itself
// is produced by an external reporting step; the core only records it
// and checks existence.
type Report struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProcessID uint   `gorm:"not null;index;column:process_id" json:"process_id"`
	ClientID  uint   `gorm:"not null;index;column:client_id" json:"client_id"`
	JobID     string `gorm:"size:100;index;column:job_id" json:"job_id"`

	AlertType string     `gorm:"size:100;column:alert_type" json:"alert_type"`
	AmountUSD float64    `gorm:"column:amount_usd" json:"amount_usd"`
	AlertDate *time.Time `gorm:"column:alert_date" json:"alert_date"`

	FileName    string `gorm:"size:255;column:file_name" json:"file_name"`
	FilePath    string `gorm:"size:1000;column:file_path" json:"file_path"`
	DownloadURL string `gorm:"size:1000;column:download_url" json:"download_url"`
	SizeBytes   int64  `gorm:"column:size_bytes" json:"size_bytes"`
	FileType    string `gorm:"size:10;default:DOCX;column:file_type" json:"file_type"`
	Generated   bool   `gorm:"default:false;index" json:"generated"`

	GeneratedAt time.Time `gorm:"index;column:generated_at" json:"generated_at"`
}

// TableName specifies the table name for GORM
func (Report) TableName() string {
	return "reports"
}
