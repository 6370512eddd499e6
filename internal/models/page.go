package models

import "time"

// Page is a catalog entry for an external information source.
// Reference data: the core only ever reads it.
type Page struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Code         string    `gorm:"size:50;not null;unique;index" json:"code"`
	URL          string    `gorm:"size:500" json:"url"`
	Description  string    `gorm:"type:text" json:"description"`
	Active       bool      `gorm:"default:true;index" json:"active"`
	DisplayOrder int       `gorm:"default:0;index;column:display_order" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Page) TableName() string {
	return "pages"
}
