// Package currency implements the rate table and cross-currency
// conversion through a single pivot currency.
package currency

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyNotFound reports a currency absent from an otherwise
	// valid rate table.
	ErrCurrencyNotFound = errors.New("currency not found in rate table")

	// ErrInvalidTable reports a malformed table (bad pivot code or a
	// non-positive rate).
	ErrInvalidTable = errors.New("invalid rate table")
)

// Table is an immutable snapshot of pivot-relative exchange rates.
// Rate semantics: 1 unit of Pivot = Rates[c] units of c. The pivot
// itself never appears in Rates (its rate is implicitly 1).
type Table struct {
	Pivot string
	Rates map[string]decimal.Decimal
	AsOf  time.Time
}

// NewTable builds a normalized table. The pivot entry, if present in
// rates, is dropped; non-positive rates and a pivot that is not a
// 3-letter code are rejected.
func NewTable(pivot string, rates map[string]decimal.Decimal, asOf time.Time) (*Table, error) {
	if len(pivot) != 3 {
		return nil, fmt.Errorf("%w: pivot %q is not a 3-letter code", ErrInvalidTable, pivot)
	}
	normalized := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		if code == pivot {
			continue
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("%w: rate for %s is not positive", ErrInvalidTable, code)
		}
		normalized[code] = rate
	}
	return &Table{Pivot: pivot, Rates: normalized, AsOf: asOf}, nil
}

// Rate returns the pivot-relative rate for code. The pivot itself
// resolves to 1.
func (t *Table) Rate(code string) (decimal.Decimal, error) {
	if code == t.Pivot {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := t.Rates[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
	}
	return rate, nil
}

// Has reports whether code is quotable against the table.
func (t *Table) Has(code string) bool {
	if code == t.Pivot {
		return true
	}
	_, ok := t.Rates[code]
	return ok
}
