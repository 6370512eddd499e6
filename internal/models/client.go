package models

import (
	"time"
)

// Client status lifecycle: Pending -> Processing -> Processed | Error.
const (
	ClientPending    = "Pending"
	ClientProcessing = "Processing"
	ClientProcessed  = "Processed"
	ClientError      = "Error"
)

// Client represents a person or company under background check.
// Status is mutated only by process creation (-> Processing) and by
// job reconciliation (-> Processed/Error).
type Client struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:60" json:"name"`
	Surname    string     `gorm:"size:60" json:"surname"`
	NationalID string     `gorm:"size:10;index;column:national_id" json:"national_id"`
	TaxID      string     `gorm:"size:13;index;column:tax_id" json:"tax_id"`
	AlertType  string     `gorm:"size:100;column:alert_type" json:"alert_type"`
	AmountUSD  float64    `gorm:"column:amount_usd" json:"amount_usd"`
	AlertDate  *time.Time `gorm:"column:alert_date" json:"alert_date"`
	Status     string     `gorm:"not null;default:Pending;index" json:"status"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Processes []Process `gorm:"foreignKey:ClientID" json:"-"`
}

// TableName specifies the table name for GORM
func (Client) TableName() string {
	return "clients"
}
