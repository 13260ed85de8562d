// Package quotes provides a market-data client for the Yahoo Finance chart API
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client fetches quotes from the Yahoo Finance chart endpoint. European
// securities are often listed under exchange-suffixed symbols, so FetchQuote
// retries a fixed set of symbol variants before giving up.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new quote client. No API key is required; the chart
// endpoint is public.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// chartResponse is the subset of the chart API payload the client reads.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// symbolVariants returns the lookup candidates for a symbol, in order:
// as given, then German listings (.DE Xetra, .F Frankfurt), then with any
// dots swapped for dashes (share classes like BRK.B trade as BRK-B).
func symbolVariants(symbol string) []string {
	variants := []string{symbol}
	if !strings.Contains(symbol, ".") {
		variants = append(variants, symbol+".DE", symbol+".F")
	}
	if strings.Contains(symbol, ".") {
		variants = append(variants, strings.ReplaceAll(symbol, ".", "-"))
	}
	return variants
}

// FetchQuote retrieves the latest market price for a symbol, trying each
// symbol variant in turn. Returns QuoteUnavailableError when no variant
// yields a price.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, &models.QuoteUnavailableError{Symbol: symbol, Err: fmt.Errorf("empty symbol")}
	}

	var lastErr error
	for _, variant := range symbolVariants(symbol) {
		quote, err := c.fetchOne(ctx, variant)
		if err == nil {
			c.logger.Debug().Str("symbol", symbol).Str("variant", variant).Str("price", quote.Price.String()).Msg("Quote resolved")
			return quote, nil
		}
		if ctx.Err() != nil {
			return nil, &models.QuoteUnavailableError{Symbol: symbol, Err: ctx.Err()}
		}
		lastErr = err
	}

	c.logger.Warn().Str("symbol", symbol).Err(lastErr).Msg("No quote from any symbol variant")
	return nil, &models.QuoteUnavailableError{Symbol: symbol, Err: lastErr}
}

func (c *Client) fetchOne(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("Chart API request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API error: status %d for symbol %s", resp.StatusCode, symbol)
	}

	var apiResp chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, apiResp.Chart.Error.Description)
	}
	if len(apiResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", symbol)
	}

	meta := apiResp.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("chart API returned no price for %s", symbol)
	}

	asOf := time.Now()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0)
	}

	c.logger.Info().Str("symbol", symbol).Float64("price", meta.RegularMarketPrice).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Chart API call")

	return &models.Quote{
		Symbol:   symbol,
		Price:    decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency: meta.Currency,
		AsOf:     asOf,
	}, nil
}
