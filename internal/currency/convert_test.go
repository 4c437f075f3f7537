package currency

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("USD", map[string]decimal.Decimal{
		"THB": decimal.NewFromInt(35),
		"EUR": decimal.NewFromFloat(0.9),
		"RUB": decimal.NewFromInt(90),
	}, time.Now())
	require.NoError(t, err)
	return table
}

func TestNewTableDropsPivotEntry(t *testing.T) {
	table, err := NewTable("USD", map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"THB": decimal.NewFromInt(35),
	}, time.Now())
	require.NoError(t, err)

	_, ok := table.Rates["USD"]
	assert.False(t, ok, "pivot must not appear in rates")
	assert.True(t, table.Has("USD"))
}

func TestNewTableRejectsNonPositiveRates(t *testing.T) {
	_, err := NewTable("USD", map[string]decimal.Decimal{
		"THB": decimal.NewFromInt(-1),
	}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = NewTable("USD", map[string]decimal.Decimal{
		"THB": decimal.Zero,
	}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestNewTableRejectsBadPivot(t *testing.T) {
	_, err := NewTable("US", nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestFactorSameCurrency(t *testing.T) {
	table := testTable(t)

	// Identity must hold even for currencies the table has never seen.
	for _, code := range []string{"USD", "THB", "XXX"} {
		f, err := Factor(code, code, table)
		require.NoError(t, err)
		assert.True(t, f.Equal(decimal.NewFromInt(1)), "factor(%s,%s) = %s", code, code, f)
	}
}

func TestFactorFromPivot(t *testing.T) {
	table := testTable(t)

	f, err := Factor("USD", "THB", table)
	require.NoError(t, err)
	assert.True(t, f.Equal(decimal.NewFromInt(35)))

	_, err = Factor("USD", "GBP", table)
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestFactorToPivot(t *testing.T) {
	table := testTable(t)

	f, err := Factor("THB", "USD", table)
	require.NoError(t, err)
	want := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(35), factorPrecision)
	assert.True(t, f.Equal(want), "got %s want %s", f, want)

	_, err = Factor("GBP", "USD", table)
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestFactorTriangulation(t *testing.T) {
	table := testTable(t)

	// THB -> EUR = 0.9 / 35
	f, err := Factor("THB", "EUR", table)
	require.NoError(t, err)
	want := decimal.NewFromFloat(0.9).DivRound(decimal.NewFromInt(35), factorPrecision)
	assert.True(t, f.Equal(want), "got %s want %s", f, want)

	// 3500 THB -> 90 EUR
	got, err := Convert(decimal.NewFromInt(3500), "THB", "EUR", table)
	require.NoError(t, err)
	diff := got.Sub(decimal.NewFromInt(90)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(1e-9)), "3500 THB = %s EUR", got)

	_, err = Factor("THB", "GBP", table)
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
	_, err = Factor("GBP", "THB", table)
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestFactorRoundTrip(t *testing.T) {
	table := testTable(t)
	one := decimal.NewFromInt(1)
	eps := decimal.NewFromFloat(1e-9)

	codes := []string{"USD", "THB", "EUR", "RUB"}
	for _, from := range codes {
		for _, to := range codes {
			fwd, err := Factor(from, to, table)
			require.NoError(t, err)
			back, err := Factor(to, from, table)
			require.NoError(t, err)

			diff := fwd.Mul(back).Sub(one).Abs()
			assert.True(t, diff.LessThan(eps),
				"factor(%s,%s)*factor(%s,%s) = %s", from, to, to, from, fwd.Mul(back))
		}
	}
}

func TestFactorComposesThroughPivot(t *testing.T) {
	table := testTable(t)
	eps := decimal.NewFromFloat(1e-9)

	for _, pair := range [][2]string{{"THB", "EUR"}, {"EUR", "RUB"}, {"RUB", "THB"}} {
		direct, err := Factor(pair[0], pair[1], table)
		require.NoError(t, err)
		toPivot, err := Factor(pair[0], table.Pivot, table)
		require.NoError(t, err)
		fromPivot, err := Factor(table.Pivot, pair[1], table)
		require.NoError(t, err)

		diff := direct.Sub(toPivot.Mul(fromPivot)).Abs()
		assert.True(t, diff.LessThan(eps),
			"factor(%s,%s) != factor(%s,USD)*factor(USD,%s)", pair[0], pair[1], pair[0], pair[1])
	}
}

func TestTableRate(t *testing.T) {
	table := testTable(t)

	r, err := table.Rate("USD")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(1)))

	r, err = table.Rate("THB")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(35)))

	_, err = table.Rate("GBP")
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}
