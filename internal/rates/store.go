// Package rates owns the single current exchange-rate snapshot: a
// persisted singleton document plus an in-memory copy swapped
// wholesale on refresh.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shataev/wanna-track-api/internal/currency"
	"github.com/shataev/wanna-track-api/internal/models"
)

// ErrNoRates reports that no rate snapshot has ever been stored.
// Conversions and aggregations are unavailable until a refresh
// succeeds; callers must not default unknown currencies to rate 1.
var ErrNoRates = errors.New("exchange rates not found")

// Fetcher is the upstream quote source consumed by Refresh.
type Fetcher interface {
	FetchLive(ctx context.Context) (*currency.Table, error)
}

// Store holds the current rate table. Reads are served from memory;
// Replace persists and swaps atomically. A failed refresh leaves the
// previous snapshot untouched.
type Store struct {
	db      *gorm.DB
	fetcher Fetcher
	logger  zerolog.Logger

	mu    sync.RWMutex
	table *currency.Table
}

// NewStore builds the store and loads the persisted snapshot if one
// exists. A missing snapshot is not an error at construction time;
// Get reports ErrNoRates until the first successful Replace.
func NewStore(db *gorm.DB, fetcher Fetcher, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		db:      db,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "rate_store").Logger(),
	}

	table, err := s.load()
	switch {
	case err == nil:
		s.table = table
		s.logger.Info().Str("base", table.Pivot).Int("rates", len(table.Rates)).
			Msg("loaded exchange rate snapshot")
	case errors.Is(err, ErrNoRates):
		s.logger.Warn().Msg("no exchange rate snapshot stored yet")
	default:
		return nil, err
	}
	return s, nil
}

// Get returns the current table or ErrNoRates.
func (s *Store) Get() (*currency.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, ErrNoRates
	}
	return s.table, nil
}

// Replace persists table as the new singleton snapshot and swaps the
// in-memory copy. Wholesale replacement, never a partial merge.
func (s *Store) Replace(table *currency.Table) error {
	raw, err := encodeRates(table.Rates)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}

	row := models.ExchangeRate{
		ID:        1,
		Base:      table.Pivot,
		RatesJSON: raw,
		FetchedAt: table.AsOf,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"base", "rates_json", "fetched_at", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("save rate snapshot: %w", err)
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	return nil
}

// Refresh fetches a fresh quote set from upstream and replaces the
// snapshot. On any upstream failure the prior snapshot is retained and
// the error is returned to the caller, not swallowed.
func (s *Store) Refresh(ctx context.Context) (*currency.Table, error) {
	table, err := s.fetcher.FetchLive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("rate refresh failed, keeping previous snapshot")
		return nil, err
	}
	if err := s.Replace(table); err != nil {
		return nil, err
	}
	s.logger.Info().Str("base", table.Pivot).Int("rates", len(table.Rates)).
		Msg("exchange rates refreshed")
	return table, nil
}

func (s *Store) load() (*currency.Table, error) {
	var row models.ExchangeRate
	if err := s.db.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRates
		}
		return nil, fmt.Errorf("load rate snapshot: %w", err)
	}
	rates, err := decodeRates(row.RatesJSON)
	if err != nil {
		return nil, fmt.Errorf("decode rate snapshot: %w", err)
	}
	return currency.NewTable(row.Base, rates, row.FetchedAt)
}

func encodeRates(rates map[string]decimal.Decimal) (string, error) {
	b, err := json.Marshal(rates)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRates(raw string) (map[string]decimal.Decimal, error) {
	var rates map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return nil, err
	}
	return rates, nil
}
