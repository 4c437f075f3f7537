package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
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
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ExchangeRate{}))
	return db
}

func mustTable(t *testing.T, pivot string, rates map[string]decimal.Decimal) *currency.Table {
	t.Helper()
	table, err := currency.NewTable(pivot, rates, time.Now())
	require.NoError(t, err)
	return table
}

func TestStoreGetEmpty(t *testing.T) {
	s, err := NewStore(testDB(t), nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoRates)
}

func TestStoreReplaceAndGet(t *testing.T) {
	db := testDB(t)
	s, err := NewStore(db, nil, zerolog.Nop())
	require.NoError(t, err)

	table := mustTable(t, "USD", map[string]decimal.Decimal{
		"THB": decimal.NewFromInt(35),
	})
	require.NoError(t, s.Replace(table))

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Pivot)
	assert.True(t, got.Rates["THB"].Equal(decimal.NewFromInt(35)))

	// second Replace overwrites wholesale, no merging
	require.NoError(t, s.Replace(mustTable(t, "USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.9),
	})))

	got, err = s.Get()
	require.NoError(t, err)
	assert.False(t, got.Has("THB"), "old entries must not survive a replace")
	assert.True(t, got.Has("EUR"))

	// exactly one persisted row
	var count int64
	require.NoError(t, db.Model(&models.ExchangeRate{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStoreLoadsPersistedSnapshot(t *testing.T) {
	db := testDB(t)
	s, err := NewStore(db, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Replace(mustTable(t, "USD", map[string]decimal.Decimal{
		"THB": decimal.NewFromInt(35),
	})))

	// a fresh store over the same database sees the snapshot
	s2, err := NewStore(db, nil, zerolog.Nop())
	require.NoError(t, err)
	got, err := s2.Get()
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Pivot)
}

func TestRefreshSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"source": "USD",
			"quotes": {"USDTHB": 35.0, "USDEUR": 0.9, "USDUSD": 1.0}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", time.Second, zerolog.Nop())
	s, err := NewStore(testDB(t), client, zerolog.Nop())
	require.NoError(t, err)

	table, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", table.Pivot)
	assert.True(t, table.Rates["THB"].Equal(decimal.NewFromInt(35)), "prefix must be stripped from quote keys")
	assert.False(t, func() bool { _, ok := table.Rates["USD"]; return ok }(), "pivot quote must be normalized away")

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, table.Pivot, got.Pivot)
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail {
			_, _ = w.Write([]byte(`{"success": false, "error": {"code": 104, "info": "quota exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "source": "USD", "quotes": {"USDTHB": 35.0}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", time.Second, zerolog.Nop())
	s, err := NewStore(testDB(t), client, zerolog.Nop())
	require.NoError(t, err)

	fail = false
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = s.Refresh(context.Background())
	require.ErrorIs(t, err, ErrUpstream)

	// last good snapshot still served
	got, err := s.Get()
	require.NoError(t, err)
	assert.True(t, got.Rates["THB"].Equal(decimal.NewFromInt(35)))
}

func TestRefreshMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", time.Second, zerolog.Nop())
	s, err := NewStore(testDB(t), client, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoRates)
}

func TestRefreshUpstreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", time.Second, zerolog.Nop())
	s, err := NewStore(testDB(t), client, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}
