// Package ledger owns fund balance mutation rules and the
// aggregation of fund and cost totals into a user's currency. Every
// balance change is justified by exactly one immutable FundTransaction
// per affected fund, written in the same database transaction as the
// balance update.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/models"
	"github.com/shataev/wanna-track-api/internal/rates"
)

var (
	// ErrFundNotFound reports a missing fund or one the caller does
	// not own.
	ErrFundNotFound = errors.New("fund not found")

	// ErrUserNotFound reports a missing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientFunds reports a debit below the balance floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameFund reports a transfer where source and destination are
	// the same fund.
	ErrSameFund = errors.New("transfer funds must be different")

	// ErrInvalidAmount reports a non-positive operation amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Ledger mutates fund balances and aggregates totals. Concurrent
// operations against the same fund are serialized by conditional
// writes on current_balance; operations on different funds do not
// coordinate.
type Ledger struct {
	db     *gorm.DB
	rates  *rates.Store
	logger zerolog.Logger
}

func New(db *gorm.DB, rateStore *rates.Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		db:     db,
		rates:  rateStore,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// PostExpense debits amount from the fund and records one expense
// transaction with the negated amount. Overdraw fails with
// ErrInsufficientFunds and leaves the fund untouched.
func (l *Ledger) PostExpense(userID, fundID uint, amount decimal.Decimal, description string) (*models.FundTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var record models.FundTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		fund, err := lockFund(tx, userID, fundID)
		if err != nil {
			return err
		}
		if err := debitFund(tx, fund.ID, amount); err != nil {
			return err
		}

		record = models.FundTransaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			FundID:      fund.ID,
			Type:        models.TxTypeExpense,
			Amount:      amount.Neg(),
			Description: description,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Adjust sets the fund balance to newBalance and records one
// adjustment transaction carrying the delta, which may be zero. This
// is the one operation allowed to set a balance directly instead of
// deriving it from the transaction sum; replay-based reconciliation
// must treat adjustment records as override points.
func (l *Ledger) Adjust(fundID uint, newBalance decimal.Decimal, description string) (*models.FundTransaction, error) {
	if description == "" {
		description = "Manual adjustment"
	}

	var record models.FundTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var fund models.Fund
		if err := tx.First(&fund, fundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFundNotFound
			}
			return fmt.Errorf("load fund: %w", err)
		}

		delta := newBalance.Sub(fund.CurrentBalance)
		if err := tx.Model(&models.Fund{}).Where("id = ?", fund.ID).
			UpdateColumn("current_balance", newBalance).Error; err != nil {
			return fmt.Errorf("set balance: %w", err)
		}

		record = models.FundTransaction{
			ID:          uuid.NewString(),
			UserID:      fund.UserID,
			FundID:      fund.ID,
			Type:        models.TxTypeAdjustment,
			Amount:      delta,
			Description: description,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Transfer moves amount between two funds of the same owner: exactly
// two transaction records (transfer-out with the negated amount on the
// source, transfer-in on the destination) and both balance deltas, all
// in one database transaction. The raw numeric amount is moved
// unchanged even when the funds are denominated in different
// currencies; see the tests for this documented behavior.
func (l *Ledger) Transfer(userID, fromFundID, toFundID uint, amount decimal.Decimal, description string) error {
	if fromFundID == toFundID {
		return ErrSameFund
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		var funds []models.Fund
		if err := tx.Where("id IN ? AND user_id = ?", []uint{fromFundID, toFundID}, userID).
			Find(&funds).Error; err != nil {
			return fmt.Errorf("load funds: %w", err)
		}
		if len(funds) != 2 {
			return ErrFundNotFound
		}

		if err := debitFund(tx, fromFundID, amount); err != nil {
			return err
		}

		out := models.FundTransaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			FundID:      fromFundID,
			Type:        models.TxTypeTransferOut,
			Amount:      amount.Neg(),
			Description: description,
		}
		if err := tx.Create(&out).Error; err != nil {
			return err
		}

		in := models.FundTransaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			FundID:      toFundID,
			Type:        models.TxTypeTransferIn,
			Amount:      amount,
			Description: description,
		}
		if err := tx.Create(&in).Error; err != nil {
			return err
		}

		return tx.Model(&models.Fund{}).Where("id = ?", toFundID).
			UpdateColumn("current_balance", gorm.Expr("current_balance + ?", amount)).Error
	})
}

// DeleteFund removes the fund and cascades deletion of its transaction
// records. Irreversible.
func (l *Ledger) DeleteFund(fundID uint) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Fund{}, fundID)
		if res.Error != nil {
			return fmt.Errorf("delete fund: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrFundNotFound
		}
		return tx.Where("fund_id = ?", fundID).Delete(&models.FundTransaction{}).Error
	})
}

// lockFund loads a fund owned by userID.
func lockFund(tx *gorm.DB, userID, fundID uint) (*models.Fund, error) {
	var fund models.Fund
	if err := tx.Where("id = ? AND user_id = ?", fundID, userID).First(&fund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFundNotFound
		}
		return nil, fmt.Errorf("load fund: %w", err)
	}
	return &fund, nil
}

// debitFund decrements current_balance with the balance floor checked
// in the same statement. Two concurrent debits near the floor cannot
// both pass: the losing one sees zero rows affected.
func debitFund(tx *gorm.DB, fundID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.Fund{}).
		Where("id = ? AND current_balance >= ?", fundID, amount).
		UpdateColumn("current_balance", gorm.Expr("current_balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit fund: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
