package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunnerProfile stores how to reach the external scraping runner.
// The password is encrypted with the crypto package before persisting.
type RunnerProfile struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	BaseURL     string    `gorm:"not null;column:base_url" json:"base_url"`
	Username    string    `json:"username"`
	PasswordEnc string    `gorm:"column:password_enc" json:"-"` // Encrypted, never expose in JSON
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (rp *RunnerProfile) BeforeCreate(tx *gorm.DB) error {
	if rp.ID == "" {
		rp.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (RunnerProfile) TableName() string {
	return "runner_profiles"
}
