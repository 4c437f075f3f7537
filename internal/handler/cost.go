package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/ledger"
	"github.com/shataev/wanna-track-api/internal/util"
)

// CostHandler serves cost creation and the by-category report.
type CostHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Ledger
}

func NewCostHandler(db *gorm.DB, l *ledger.Ledger) *CostHandler {
	return &CostHandler{DB: db, Ledger: l}
}

type createCostReq struct {
	Amount     decimal.Decimal  `json:"amount" binding:"required"`
	CategoryID uint             `json:"category_id" binding:"required"`
	FundID     *uint            `json:"fund_id"`
	Date       string           `json:"date" binding:"required"`
	Comment    string           `json:"comment" binding:"max=255"`
	Currency   *string          `json:"currency"`
	Rate       *decimal.Decimal `json:"rate"`
}

// CreateCost records a cost, optionally paid out of a fund. A fund
// cost debits the fund and captures the conversion rate at creation
// time; a caller-supplied currency/rate pair is only honored on
// fund-less costs.
func (h *CostHandler) CreateCost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createCostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	date, err := util.ParseDate(req.Date)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if req.Currency != nil {
		if err := util.ValidateCurrency(*req.Currency); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
	}

	cost, err := h.Ledger.CreateCost(ledger.CreateCostParams{
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		FundID:     req.FundID,
		Amount:     req.Amount,
		Date:       date,
		Comment:    req.Comment,
		Currency:   req.Currency,
		Rate:       req.Rate,
	})
	if err != nil {
		ledgerError(c, err)
		return
	}

	util.Success(c, util.Response{"cost": cost})
}

// ListCostsByCategory reports the user's costs over [from, to),
// grouped per category and converted into the user's currency.
// Defaults to the last 30 days.
func (h *CostHandler) ListCostsByCategory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	if s := c.Query("date_from"); s != "" {
		t, err := util.ParseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date_from, want YYYY-MM-DD")
			return
		}
		from = t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := util.ParseDate(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date_to, want YYYY-MM-DD")
			return
		}
		to = t
	}

	reports, err := h.Ledger.CostsByCategory(user.ID, user.DefaultCurrency, from, to)
	if err != nil {
		ledgerError(c, err)
		return
	}

	util.Success(c, util.Response{"categories": reports})
}
