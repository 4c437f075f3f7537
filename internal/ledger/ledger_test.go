package ledger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shataev/wanna-track-api/internal/currency"
	"github.com/shataev/wanna-track-api/internal/models"
	"github.com/shataev/wanna-track-api/internal/rates"
)

type fixture struct {
	db     *gorm.DB
	store  *rates.Store
	ledger *Ledger
	user   models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Fund{},
		&models.FundTransaction{},
		&models.Cost{},
		&models.Category{},
		&models.ExchangeRate{},
	))

	store, err := rates.NewStore(db, nil, zerolog.Nop())
	require.NoError(t, err)

	user := models.User{
		Username:        "alice",
		Email:           "alice@example.com",
		PasswordHash:    "x",
		DefaultCurrency: "THB",
	}
	require.NoError(t, db.Create(&user).Error)

	return &fixture{
		db:     db,
		store:  store,
		ledger: New(db, store, zerolog.Nop()),
		user:   user,
	}
}

func (f *fixture) createFund(t *testing.T, name, cur string, balance int64) models.Fund {
	t.Helper()
	fund := models.Fund{
		UserID:         f.user.ID,
		Name:           name,
		Currency:       cur,
		InitialBalance: decimal.NewFromInt(balance),
		CurrentBalance: decimal.NewFromInt(balance),
	}
	require.NoError(t, f.db.Create(&fund).Error)
	return fund
}

func (f *fixture) seedRates(t *testing.T) {
	t.Helper()
	table, err := currency.NewTable("USD", map[string]decimal.Decimal{
		"THB": decimal.NewFromInt(35),
		"EUR": decimal.NewFromFloat(0.9),
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Replace(table))
}

func (f *fixture) balance(t *testing.T, fundID uint) decimal.Decimal {
	t.Helper()
	var fund models.Fund
	require.NoError(t, f.db.First(&fund, fundID).Error)
	return fund.CurrentBalance
}

func (f *fixture) transactions(t *testing.T, fundID uint) []models.FundTransaction {
	t.Helper()
	var txs []models.FundTransaction
	require.NoError(t, f.db.Where("fund_id = ?", fundID).Order("created_at").Find(&txs).Error)
	return txs
}

func TestPostExpense(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	record, err := f.ledger.PostExpense(f.user.ID, fund.ID, decimal.NewFromInt(30), "groceries")
	require.NoError(t, err)

	assert.Equal(t, models.TxTypeExpense, record.Type)
	assert.True(t, record.Amount.Equal(decimal.NewFromInt(-30)))
	assert.True(t, f.balance(t, fund.ID).Equal(decimal.NewFromInt(70)))
}

func TestPostExpenseOverdraw(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	_, err := f.ledger.PostExpense(f.user.ID, fund.ID, decimal.NewFromInt(101), "too much")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// balance unchanged, no record written
	assert.True(t, f.balance(t, fund.ID).Equal(decimal.NewFromInt(100)))
	assert.Empty(t, f.transactions(t, fund.ID))
}

func TestPostExpenseExactBalance(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	_, err := f.ledger.PostExpense(f.user.ID, fund.ID, decimal.NewFromInt(100), "all of it")
	require.NoError(t, err)
	assert.True(t, f.balance(t, fund.ID).IsZero())
}

func TestPostExpenseRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	_, err := f.ledger.PostExpense(f.user.ID, fund.ID, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.ledger.PostExpense(f.user.ID, fund.ID, decimal.NewFromInt(-5), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPostExpenseUnknownFund(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.PostExpense(f.user.ID, 9999, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, ErrFundNotFound)
}

func TestPostExpenseForeignFund(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	other := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", DefaultCurrency: "USD"}
	require.NoError(t, f.db.Create(&other).Error)

	_, err := f.ledger.PostExpense(other.ID, fund.ID, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, ErrFundNotFound)
}

func TestAdjustRecordsDelta(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	record, err := f.ledger.Adjust(fund.ID, decimal.NewFromInt(80), "")
	require.NoError(t, err)

	assert.Equal(t, models.TxTypeAdjustment, record.Type)
	assert.True(t, record.Amount.Equal(decimal.NewFromInt(-20)))
	assert.Equal(t, "Manual adjustment", record.Description)
	assert.True(t, f.balance(t, fund.ID).Equal(decimal.NewFromInt(80)))
}

func TestAdjustZeroDeltaStillRecorded(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 100)

	record, err := f.ledger.Adjust(fund.ID, decimal.NewFromInt(100), "no-op edit")
	require.NoError(t, err)
	assert.True(t, record.Amount.IsZero())
	assert.Len(t, f.transactions(t, fund.ID), 1)
}

func TestAdjustUnknownFund(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Adjust(9999, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, ErrFundNotFound)
}

func TestTransferConservation(t *testing.T) {
	f := newFixture(t)
	a := f.createFund(t, "A", "USD", 100)
	b := f.createFund(t, "B", "USD", 40)

	require.NoError(t, f.ledger.Transfer(f.user.ID, a.ID, b.ID, decimal.NewFromInt(30), "move"))

	balA := f.balance(t, a.ID)
	balB := f.balance(t, b.ID)
	assert.True(t, balA.Equal(decimal.NewFromInt(70)))
	assert.True(t, balB.Equal(decimal.NewFromInt(70)))
	assert.True(t, balA.Add(balB).Equal(decimal.NewFromInt(140)), "conservation")

	// exactly two records summing to zero
	txsA := f.transactions(t, a.ID)
	txsB := f.transactions(t, b.ID)
	require.Len(t, txsA, 1)
	require.Len(t, txsB, 1)
	assert.Equal(t, models.TxTypeTransferOut, txsA[0].Type)
	assert.Equal(t, models.TxTypeTransferIn, txsB[0].Type)
	assert.True(t, txsA[0].Amount.Add(txsB[0].Amount).IsZero())
}

func TestTransferSameFund(t *testing.T) {
	f := newFixture(t)
	a := f.createFund(t, "A", "USD", 100)

	err := f.ledger.Transfer(f.user.ID, a.ID, a.ID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, ErrSameFund)
}

func TestTransferInsufficient(t *testing.T) {
	f := newFixture(t)
	a := f.createFund(t, "A", "USD", 20)
	b := f.createFund(t, "B", "USD", 0)

	err := f.ledger.Transfer(f.user.ID, a.ID, b.ID, decimal.NewFromInt(30), "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(20)))
	assert.True(t, f.balance(t, b.ID).IsZero())
	assert.Empty(t, f.transactions(t, a.ID))
	assert.Empty(t, f.transactions(t, b.ID))
}

func TestTransferMissingFund(t *testing.T) {
	f := newFixture(t)
	a := f.createFund(t, "A", "USD", 100)

	err := f.ledger.Transfer(f.user.ID, a.ID, 9999, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, ErrFundNotFound)
	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(100)))
}

func TestTransferForeignFund(t *testing.T) {
	f := newFixture(t)
	a := f.createFund(t, "A", "USD", 100)

	other := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", DefaultCurrency: "USD"}
	require.NoError(t, f.db.Create(&other).Error)
	foreign := models.Fund{
		UserID:         other.ID,
		Name:           "Bob's",
		Currency:       "USD",
		InitialBalance: decimal.Zero,
		CurrentBalance: decimal.Zero,
	}
	require.NoError(t, f.db.Create(&foreign).Error)

	err := f.ledger.Transfer(f.user.ID, a.ID, foreign.ID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, ErrFundNotFound)
}

// Transfers move the raw numeric amount even across currencies: 50
// moved from a USD fund lands as 50 in a THB fund, with no conversion
// applied. This mirrors the upstream behavior; the amount, not its
// economic value, is conserved.
func TestTransferDoesNotConvertCurrency(t *testing.T) {
	f := newFixture(t)
	f.seedRates(t)
	a := f.createFund(t, "A", "USD", 100)
	b := f.createFund(t, "B", "THB", 0)

	require.NoError(t, f.ledger.Transfer(f.user.ID, a.ID, b.ID, decimal.NewFromInt(50), ""))

	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(50)))
	assert.True(t, f.balance(t, b.ID).Equal(decimal.NewFromInt(50)))
}

func TestDeleteFundCascadesTransactions(t *testing.T) {
	f := newFixture(t)
	a := f.createFund(t, "A", "USD", 100)
	b := f.createFund(t, "B", "USD", 0)

	require.NoError(t, f.ledger.Transfer(f.user.ID, a.ID, b.ID, decimal.NewFromInt(10), ""))
	_, err := f.ledger.PostExpense(f.user.ID, a.ID, decimal.NewFromInt(5), "")
	require.NoError(t, err)

	require.NoError(t, f.ledger.DeleteFund(a.ID))

	var fund models.Fund
	err = f.db.First(&fund, a.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, f.transactions(t, a.ID))

	// the other fund and its records are untouched
	assert.Len(t, f.transactions(t, b.ID), 1)
}

func TestDeleteFundUnknown(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ledger.DeleteFund(9999), ErrFundNotFound)
}

// Replaying the transaction log reproduces the balance, with
// adjustment records acting as override points on top of the initial
// balance.
func TestBalanceMatchesTransactionReplay(t *testing.T) {
	f := newFixture(t)
	fund := f.createFund(t, "Wallet", "USD", 200)

	_, err := f.ledger.PostExpense(f.user.ID, fund.ID, decimal.NewFromInt(50), "")
	require.NoError(t, err)
	_, err = f.ledger.Adjust(fund.ID, decimal.NewFromInt(120), "correction")
	require.NoError(t, err)
	_, err = f.ledger.PostExpense(f.user.ID, fund.ID, decimal.NewFromInt(20), "")
	require.NoError(t, err)

	replayed := fund.InitialBalance
	for _, tx := range f.transactions(t, fund.ID) {
		replayed = replayed.Add(tx.Amount)
	}
	assert.True(t, replayed.Equal(f.balance(t, fund.ID)),
		"replayed %s, stored %s", replayed, f.balance(t, fund.ID))
}
