package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/models"
	"github.com/shataev/wanna-track-api/internal/util"
)

// ExportHandler serves cost exports.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeaders = []string{"Date", "Category", "Amount", "Currency", "Rate", "Comment"}

func (h *ExportHandler) loadCosts(c *gin.Context, userID uint) ([]models.Cost, bool) {
	var costs []models.Cost
	if err := h.DB.Preload("Category").
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&costs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load costs")
		return nil, false
	}
	return costs, true
}

func exportRow(userCurrency string, cost *models.Cost) []string {
	costCurrency := userCurrency
	if cost.Currency != nil && *cost.Currency != "" {
		costCurrency = *cost.Currency
	}
	rate := decimal.NewFromInt(1)
	if cost.Rate != nil {
		rate = *cost.Rate
	}
	return []string{
		cost.Date.Format("2006-01-02"),
		cost.Category.Name,
		cost.Amount.String(),
		costCurrency,
		rate.String(),
		cost.Comment,
	}
}

// ExportCSV streams the user's costs as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	costs, ok := h.loadCosts(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"costs_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write(exportHeaders)
	for i := range costs {
		_ = writer.Write(exportRow(user.DefaultCurrency, &costs[i]))
	}
}

// ExportXLSX streams the user's costs as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	costs, ok := h.loadCosts(c, user.ID)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Costs"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for idx := range costs {
		row := idx + 2
		for col, value := range exportRow(user.DefaultCurrency, &costs[idx]) {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 30)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"costs_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
