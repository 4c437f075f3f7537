package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund transaction types.
const (
	TxTypeExpense     = "expense"
	TxTypeAdjustment  = "adjustment"
	TxTypeTransferOut = "transfer-out"
	TxTypeTransferIn  = "transfer-in"
)

// FundTransaction is an immutable signed amount record justifying a
// fund balance change. Append-only; deleted only as a cascade when the
// owning fund is deleted.
type FundTransaction struct {
	ID          string          `gorm:"primaryKey;size:36"` // UUID
	UserID      uint            `gorm:"index;not null"`
	FundID      uint            `gorm:"index;not null"`
	Type        string          `gorm:"size:16;index;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null"` // signed
	Description string          `gorm:"size:255"`
	CreatedAt   time.Time
}
