package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// factorPrecision bounds the divisions below; rates themselves carry
// far fewer significant digits.
const factorPrecision = 16

// Factor computes the multiplier that converts an amount in from-units
// into to-units, triangulating through the table's pivot P:
//
//	from == to  ->  1 (no lookup at all)
//	from == P   ->  R[to]
//	to == P     ->  1 / R[from]
//	otherwise   ->  R[to] / R[from]
//
// A missing currency on either side yields ErrCurrencyNotFound.
func Factor(from, to string, t *Table) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if from == t.Pivot {
		rate, ok := t.Rates[to]
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, to)
		}
		return rate, nil
	}
	if to == t.Pivot {
		rate, ok := t.Rates[from]
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, from)
		}
		return decimal.NewFromInt(1).DivRound(rate, factorPrecision), nil
	}
	fromRate, ok := t.Rates[from]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, from)
	}
	toRate, ok := t.Rates[to]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, to)
	}
	return toRate.DivRound(fromRate, factorPrecision), nil
}

// Convert converts amount from one currency into another using the
// table's pivot rates.
func Convert(amount decimal.Decimal, from, to string, t *Table) (decimal.Decimal, error) {
	factor, err := Factor(from, to, t)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(factor), nil
}
