package models

import "time"

// Category groups costs for reporting.
type Category struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:64;not null"`
	Icon      string    `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
