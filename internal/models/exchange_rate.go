package models

import "time"

// ExchangeRate is the single persisted rate snapshot: base (pivot)
// currency plus a JSON-encoded map of currency code -> rate, where
// 1 base = rate x target. Replaced wholesale on every refresh, never
// merged. The rates/Store normalizes RatesJSON into currency.Table at
// its boundary; nothing else reads this row.
type ExchangeRate struct {
	ID        uint   `gorm:"primaryKey"`
	Base      string `gorm:"size:3;not null"`
	RatesJSON string `gorm:"type:text;not null"`
	FetchedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
