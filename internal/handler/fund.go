package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/currency"
	"github.com/shataev/wanna-track-api/internal/ledger"
	"github.com/shataev/wanna-track-api/internal/models"
	"github.com/shataev/wanna-track-api/internal/rates"
	"github.com/shataev/wanna-track-api/internal/util"
)

// FundHandler serves fund CRUD, transfers and totals.
type FundHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Ledger
}

func NewFundHandler(db *gorm.DB, l *ledger.Ledger) *FundHandler {
	return &FundHandler{DB: db, Ledger: l}
}

// ledgerError maps ledger and conversion failures onto the response
// envelope.
func ledgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrFundNotFound), errors.Is(err, ledger.ErrUserNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		util.Error(c, http.StatusBadRequest, util.CodeInsufficient, "insufficient amount of money in source fund")
	case errors.Is(err, ledger.ErrSameFund), errors.Is(err, ledger.ErrInvalidAmount):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, rates.ErrNoRates):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "exchange rates not found, please update rates first")
	case errors.Is(err, currency.ErrCurrencyNotFound):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "operation failed, please retry")
	}
}

func fundID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid fund id")
		return 0, false
	}
	return uint(id), true
}

type fundResp struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Icon           string          `json:"icon,omitempty"`
	Description    string          `json:"description,omitempty"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	IsDefault      bool            `json:"is_default"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toFundResp(f *models.Fund) fundResp {
	return fundResp{
		ID:             f.ID,
		Name:           f.Name,
		Icon:           f.Icon,
		Description:    f.Description,
		Currency:       f.Currency,
		InitialBalance: f.InitialBalance,
		CurrentBalance: f.CurrentBalance,
		IsDefault:      f.IsDefault,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// ListFunds returns the user's funds plus the aggregate total in the
// user's currency. When rates are missing the list is still served and
// total is null, matching the degraded-aggregate policy.
func (h *FundHandler) ListFunds(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var funds []models.Fund
	if err := h.DB.Where("user_id = ?", user.ID).Order("created_at").Find(&funds).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load funds")
		return
	}

	items := make([]fundResp, 0, len(funds))
	for i := range funds {
		items = append(items, toFundResp(&funds[i]))
	}

	var total interface{}
	if res, err := h.Ledger.FundTotal(user.ID, user.DefaultCurrency); err == nil {
		total = res
	}

	util.Success(c, util.Response{
		"funds": items,
		"total": total,
	})
}

// GetTotal returns the aggregate balance across all funds.
func (h *FundHandler) GetTotal(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.Ledger.FundTotal(user.ID, user.DefaultCurrency)
	if err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{
		"total":       res.Total,
		"currency":    res.Currency,
		"funds_count": res.FundsCount,
	})
}

// GetFund returns one fund.
func (h *FundHandler) GetFund(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := fundID(c)
	if !ok {
		return
	}

	var fund models.Fund
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&fund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "fund not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund")
		}
		return
	}

	util.Success(c, util.Response{"fund": toFundResp(&fund)})
}

type createFundReq struct {
	Name           string          `json:"name" binding:"required,max=64"`
	Icon           string          `json:"icon" binding:"max=64"`
	Description    string          `json:"description" binding:"max=255"`
	Currency       string          `json:"currency" binding:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	IsDefault      bool            `json:"is_default"`
}

// CreateFund opens a fund; the current balance starts at the initial
// balance.
func (h *FundHandler) CreateFund(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createFundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateCurrency(req.Currency); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if req.InitialBalance.IsNegative() {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "initial balance must not be negative")
		return
	}

	fund := models.Fund{
		UserID:         user.ID,
		Name:           req.Name,
		Icon:           req.Icon,
		Description:    req.Description,
		Currency:       req.Currency,
		InitialBalance: req.InitialBalance,
		CurrentBalance: req.InitialBalance,
		IsDefault:      req.IsDefault,
	}
	if err := h.DB.Create(&fund).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create fund")
		return
	}

	util.Success(c, util.Response{"fund": toFundResp(&fund)})
}

type updateFundReq struct {
	Name           *string          `json:"name"`
	Icon           *string          `json:"icon"`
	Description    *string          `json:"description"`
	Currency       *string          `json:"currency"`
	IsDefault      *bool            `json:"is_default"`
	CurrentBalance *decimal.Decimal `json:"current_balance"`
}

// UpdateFund edits fund attributes. A manual balance edit goes through
// the ledger so the change is justified by an adjustment transaction.
func (h *FundHandler) UpdateFund(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := fundID(c)
	if !ok {
		return
	}

	var req updateFundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	var fund models.Fund
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&fund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "fund not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund")
		}
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Currency != nil {
		if err := util.ValidateCurrency(*req.Currency); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		updates["currency"] = *req.Currency
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}
	if len(updates) > 0 {
		if err := h.DB.Model(&fund).Updates(updates).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update fund")
			return
		}
	}

	if req.CurrentBalance != nil && !req.CurrentBalance.Equal(fund.CurrentBalance) {
		if _, err := h.Ledger.Adjust(fund.ID, *req.CurrentBalance, "Manual adjustment"); err != nil {
			ledgerError(c, err)
			return
		}
	}

	if err := h.DB.First(&fund, fund.ID).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund")
		return
	}
	util.Success(c, util.Response{"fund": toFundResp(&fund)})
}

// DeleteFund removes a fund and its transaction history.
func (h *FundHandler) DeleteFund(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := fundID(c)
	if !ok {
		return
	}

	// ownership check before the irreversible delete
	var fund models.Fund
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&fund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "fund not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund")
		}
		return
	}

	if err := h.Ledger.DeleteFund(fund.ID); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "fund deleted successfully"})
}

type expenseReq struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// PostExpense withdraws an amount from the fund and records an expense
// transaction.
func (h *FundHandler) PostExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := fundID(c)
	if !ok {
		return
	}

	var req expenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	record, err := h.Ledger.PostExpense(user.ID, id, req.Amount, req.Description)
	if err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"transaction": record})
}

type transferReq struct {
	FromFundID  uint            `json:"from_fund_id" binding:"required"`
	ToFundID    uint            `json:"to_fund_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// Transfer moves an amount between two of the user's funds.
func (h *FundHandler) Transfer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req transferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	if err := h.Ledger.Transfer(user.ID, req.FromFundID, req.ToFundID, req.Amount, req.Description); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "transferred successfully"})
}

// ListTransactions returns the fund's transaction history, newest
// first.
func (h *FundHandler) ListTransactions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := fundID(c)
	if !ok {
		return
	}

	var fund models.Fund
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&fund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "fund not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund")
		}
		return
	}

	var txs []models.FundTransaction
	if err := h.DB.Where("fund_id = ?", fund.ID).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}
	util.Success(c, util.Response{"transactions": txs})
}
