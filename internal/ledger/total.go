package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shataev/wanna-track-api/internal/currency"
	"github.com/shataev/wanna-track-api/internal/models"
)

// TotalResult is the user's aggregate balance across all funds,
// expressed in Currency.
type TotalResult struct {
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	FundsCount int             `json:"funds_count"`
}

// FundTotal sums every fund balance of the user into userCurrency.
// Each balance is converted in two hops: fund currency to the pivot,
// then the pivot sum to userCurrency. Funds whose currency is missing
// from the table are skipped (logged, not fatal); a missing rate for
// userCurrency degrades the result to the pivot currency. With zero
// funds the total is zero and no rate table is consulted at all.
func (l *Ledger) FundTotal(userID uint, userCurrency string) (*TotalResult, error) {
	var funds []models.Fund
	if err := l.db.Where("user_id = ?", userID).Find(&funds).Error; err != nil {
		return nil, fmt.Errorf("load funds: %w", err)
	}

	if len(funds) == 0 {
		return &TotalResult{Total: decimal.Zero, Currency: userCurrency, FundsCount: 0}, nil
	}

	table, err := l.rates.Get()
	if err != nil {
		return nil, err
	}

	// Hop one: every balance into the pivot currency.
	pivotTotal := decimal.Zero
	for _, fund := range funds {
		factor, err := currency.Factor(fund.Currency, table.Pivot, table)
		if err != nil {
			l.logger.Warn().
				Uint("fund_id", fund.ID).
				Str("currency", fund.Currency).
				Msg("no rate for fund currency, skipping fund in total")
			continue
		}
		pivotTotal = pivotTotal.Add(fund.CurrentBalance.Mul(factor))
	}

	// Hop two: pivot sum into the user's currency.
	total := pivotTotal
	resultCurrency := userCurrency
	if userCurrency != table.Pivot {
		factor, err := currency.Factor(table.Pivot, userCurrency, table)
		if err != nil {
			l.logger.Warn().
				Str("currency", userCurrency).
				Msg("no rate for user currency, reporting total in pivot currency")
			resultCurrency = table.Pivot
		} else {
			total = pivotTotal.Mul(factor)
		}
	}

	return &TotalResult{
		Total:      total.Round(2),
		Currency:   resultCurrency,
		FundsCount: len(funds),
	}, nil
}
