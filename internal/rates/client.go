package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shataev/wanna-track-api/internal/currency"
)

// ErrUpstream reports a failed or malformed response from the rate
// provider.
var ErrUpstream = errors.New("exchange rate upstream unavailable")

// Client fetches live quotes from an apilayer-style endpoint. The
// payload carries a source (pivot) currency and quotes keyed as
// "<SRC><TGT>", e.g. "USDTHB": 35.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds an upstream client with a bounded request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "rate_client").Logger(),
	}
}

type liveResponse struct {
	Success bool               `json:"success"`
	Source  string             `json:"source"`
	Quotes  map[string]float64 `json:"quotes"`
	Error   struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// FetchLive requests the current quote set and normalizes it into a
// currency.Table. Quote keys are stripped of the source prefix to
// recover the target currency code.
func (c *Client) FetchLive(ctx context.Context) (*currency.Table, error) {
	url := fmt.Sprintf("%s/live?access_key=%s", strings.TrimRight(c.baseURL, "/"), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	var live liveResponse
	if err := json.Unmarshal(body, &live); err != nil {
		return nil, fmt.Errorf("%w: parse body: %v", ErrUpstream, err)
	}
	if !live.Success {
		info := live.Error.Info
		if info == "" {
			info = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, info)
	}
	if live.Source == "" || len(live.Quotes) == 0 {
		return nil, fmt.Errorf("%w: response missing source or quotes", ErrUpstream)
	}

	rates := make(map[string]decimal.Decimal, len(live.Quotes))
	for pair, quote := range live.Quotes {
		code := strings.TrimPrefix(pair, live.Source)
		if len(code) != 3 {
			c.logger.Warn().Str("pair", pair).Msg("skipping unparseable quote key")
			continue
		}
		rates[code] = decimal.NewFromFloat(quote)
	}

	table, err := currency.NewTable(live.Source, rates, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	c.logger.Info().
		Str("source", table.Pivot).
		Int("quotes", len(table.Rates)).
		Msg("fetched live exchange rates")
	return table, nil
}
