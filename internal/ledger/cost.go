package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/currency"
	"github.com/shataev/wanna-track-api/internal/models"
)

// CreateCostParams describes a new cost record. FundID is optional:
// with a fund the cost debits the fund balance and freezes the
// conversion rate from the fund currency to the user's currency at
// creation time; without one the caller may supply Currency and Rate
// directly, defaulting to the user's currency with rate 1.
type CreateCostParams struct {
	UserID     uint
	CategoryID uint
	FundID     *uint
	Amount     decimal.Decimal
	Date       time.Time
	Comment    string
	Currency   *string
	Rate       *decimal.Decimal
}

// CreateCost records a cost. When a fund is involved the balance
// check, rate lookup, fund debit, expense transaction and cost row are
// one atomic operation: any failure leaves no partial state.
func (l *Ledger) CreateCost(p CreateCostParams) (*models.Cost, error) {
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var user models.User
	if err := l.db.First(&user, p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	userCurrency := user.DefaultCurrency
	if userCurrency == "" {
		userCurrency = "USD"
	}

	if p.FundID == nil {
		costCurrency := userCurrency
		if p.Currency != nil && *p.Currency != "" {
			costCurrency = *p.Currency
		}
		rate := decimal.NewFromInt(1)
		if p.Rate != nil {
			rate = *p.Rate
		}
		cost := l.newCost(p, costCurrency, rate)
		if err := l.db.Create(cost).Error; err != nil {
			return nil, fmt.Errorf("create cost: %w", err)
		}
		return cost, nil
	}

	var cost *models.Cost
	err := l.db.Transaction(func(tx *gorm.DB) error {
		fund, err := lockFund(tx, p.UserID, *p.FundID)
		if err != nil {
			return err
		}

		table, err := l.rates.Get()
		if err != nil {
			return err
		}
		// Frozen at creation time; never recomputed for this cost.
		rate, err := currency.Factor(fund.Currency, userCurrency, table)
		if err != nil {
			return err
		}

		if err := debitFund(tx, fund.ID, p.Amount); err != nil {
			return err
		}

		description := p.Comment
		if description == "" {
			description = "Cost payment"
		}
		record := models.FundTransaction{
			ID:          uuid.NewString(),
			UserID:      p.UserID,
			FundID:      fund.ID,
			Type:        models.TxTypeExpense,
			Amount:      p.Amount.Neg(),
			Description: description,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		cost = l.newCost(p, fund.Currency, rate)
		return tx.Create(cost).Error
	})
	if err != nil {
		return nil, err
	}
	return cost, nil
}

func (l *Ledger) newCost(p CreateCostParams, costCurrency string, rate decimal.Decimal) *models.Cost {
	return &models.Cost{
		UserID:     p.UserID,
		CategoryID: p.CategoryID,
		FundID:     p.FundID,
		Amount:     p.Amount,
		Currency:   &costCurrency,
		Rate:       &rate,
		Date:       p.Date,
		Comment:    p.Comment,
	}
}

// CostItem is a single cost inside a category report, with the amount
// already converted into the user's currency via the cost's frozen
// rate.
type CostItem struct {
	ID                   uint            `json:"id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Rate                 decimal.Decimal `json:"rate"`
	AmountInUserCurrency decimal.Decimal `json:"amount_in_user_currency"`
	Comment              string          `json:"comment"`
	Date                 time.Time       `json:"date"`
	FundID               *uint           `json:"fund_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// CategoryReport is the converted cost total for one category.
type CategoryReport struct {
	CategoryID uint            `json:"category_id"`
	Category   string          `json:"category"`
	Icon       string          `json:"icon"`
	Amount     decimal.Decimal `json:"amount"` // integer, user currency
	Currency   string          `json:"currency"`
	Costs      []CostItem      `json:"costs"`
}

// CostsByCategory groups the user's costs created in [from, to) by
// category. Each cost contributes round(amount x storedRate) in the
// user's currency; category sums are rounded to integers and the
// result is sorted by descending total. Legacy costs without a stored
// currency or rate count as the user's currency with rate 1.
func (l *Ledger) CostsByCategory(userID uint, userCurrency string, from, to time.Time) ([]CategoryReport, error) {
	var costs []models.Cost
	if err := l.db.Preload("Category").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Find(&costs).Error; err != nil {
		return nil, fmt.Errorf("load costs: %w", err)
	}

	one := decimal.NewFromInt(1)
	byCategory := make(map[uint]*CategoryReport)
	for i := range costs {
		c := &costs[i]

		costCurrency := userCurrency
		if c.Currency != nil && *c.Currency != "" {
			costCurrency = *c.Currency
		}
		rate := one
		if c.Rate != nil {
			rate = *c.Rate
		}
		converted := c.Amount.Mul(rate).Round(0)

		report, ok := byCategory[c.CategoryID]
		if !ok {
			report = &CategoryReport{
				CategoryID: c.CategoryID,
				Category:   c.Category.Name,
				Icon:       c.Category.Icon,
				Currency:   userCurrency,
			}
			byCategory[c.CategoryID] = report
		}

		report.Amount = report.Amount.Add(converted)
		report.Costs = append(report.Costs, CostItem{
			ID:                   c.ID,
			Amount:               c.Amount,
			Currency:             costCurrency,
			Rate:                 rate,
			AmountInUserCurrency: converted,
			Comment:              c.Comment,
			Date:                 c.Date,
			FundID:               c.FundID,
			CreatedAt:            c.CreatedAt,
		})
	}

	reports := make([]CategoryReport, 0, len(byCategory))
	for _, report := range byCategory {
		report.Amount = report.Amount.Round(0)
		reports = append(reports, *report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Amount.GreaterThan(reports[j].Amount)
	})
	return reports, nil
}
