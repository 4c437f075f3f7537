package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cost is a single spending record. Currency and Rate are captured at
// creation time and never recomputed: the historical conversion of a
// cost is frozen even if rates later change. Legacy rows may miss
// Currency/Rate; readers treat those as the user's base currency with
// rate 1.
type Cost struct {
	ID         uint             `gorm:"primaryKey"`
	UserID     uint             `gorm:"index;not null"`
	CategoryID uint             `gorm:"index;not null"`
	FundID     *uint            `gorm:"index"`
	Amount     decimal.Decimal  `gorm:"type:decimal(20,8);not null"` // positive, in original currency
	Currency   *string          `gorm:"size:3"`
	Rate       *decimal.Decimal `gorm:"type:decimal(24,12)"` // cost currency -> user currency, frozen
	Date       time.Time        `gorm:"index;not null"`
	Comment    string           `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	User     User     `gorm:"constraint:OnDelete:CASCADE"`
	Category Category `gorm:"constraint:OnDelete:SET NULL"`
}
