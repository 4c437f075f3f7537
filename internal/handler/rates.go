package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shataev/wanna-track-api/internal/rates"
	"github.com/shataev/wanna-track-api/internal/util"
)

// RatesHandler exposes the current snapshot and a manual refresh.
type RatesHandler struct {
	Store *rates.Store
}

func NewRatesHandler(store *rates.Store) *RatesHandler {
	return &RatesHandler{Store: store}
}

// GetCurrent returns the current rate table. The pivot currency is
// included in the rates with an explicit rate of 1.
func (h *RatesHandler) GetCurrent(c *gin.Context) {
	table, err := h.Store.Get()
	if err != nil {
		if errors.Is(err, rates.ErrNoRates) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "exchange rates not found, please update rates first")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load exchange rates")
		}
		return
	}

	out := make(map[string]interface{}, len(table.Rates)+1)
	for code, rate := range table.Rates {
		out[code] = rate
	}
	out[table.Pivot] = 1

	util.Success(c, util.Response{
		"base":       table.Pivot,
		"rates":      out,
		"updated_at": table.AsOf,
	})
}

// Update triggers a refresh from the upstream API. An upstream failure
// leaves the previous snapshot authoritative and is reported to the
// caller.
func (h *RatesHandler) Update(c *gin.Context) {
	table, err := h.Store.Refresh(c.Request.Context())
	if err != nil {
		if errors.Is(err, rates.ErrUpstream) {
			util.Error(c, http.StatusBadGateway, util.CodeUpstreamErr, "failed to update exchange rates from upstream")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save exchange rates")
		}
		return
	}

	out := make(map[string]interface{}, len(table.Rates)+1)
	for code, rate := range table.Rates {
		out[code] = rate
	}
	out[table.Pivot] = 1

	util.Success(c, util.Response{
		"message":    "exchange rates updated successfully",
		"base":       table.Pivot,
		"rates":      out,
		"updated_at": table.AsOf,
	})
}
