package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund is a named sub-balance owned by one user, denominated in a
// single currency. CurrentBalance is mutated only through ledger
// operations, each of which leaves a FundTransaction behind; the
// transaction log is the ground truth and CurrentBalance is a
// derived cache.
type Fund struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         uint            `gorm:"index;not null"`
	Name           string          `gorm:"size:64;not null"`
	Icon           string          `gorm:"size:64"`
	Description    string          `gorm:"size:255"`
	Currency       string          `gorm:"size:3;not null"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	IsDefault      bool            `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
