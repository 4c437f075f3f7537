package models

import "time"

// User represents application user. DefaultCurrency governs all
// aggregation and display conversions for the user.
type User struct {
	ID              uint      `gorm:"primaryKey"`
	Username        string    `gorm:"size:64;uniqueIndex;not null"`
	Email           string    `gorm:"size:128;uniqueIndex;not null"`
	PasswordHash    string    `gorm:"size:255;not null"`
	DisplayName     string    `gorm:"size:64"`
	DefaultCurrency string    `gorm:"size:3;not null;default:USD"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`
}
