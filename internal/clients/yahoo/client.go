// Package yahoo provides the price quote client for the Yahoo Finance API
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/cache"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/interfaces"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

const (
	DefaultBaseURL      = "https://query1.finance.yahoo.com"
	DefaultTimeout      = 10 * time.Second
	DefaultRateLimit    = 5 // requests per second
	DefaultCacheTTL     = time.Minute
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 500 * time.Millisecond

	cachePrefix = "price:"
	userAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client implements the PriceClient interface against Yahoo Finance.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	cache        *cache.Store
	cacheTTL     time.Duration
	maxRetries   int
	initialDelay time.Duration
	limiter      *rate.Limiter
	logger       *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCacheTTL sets how long fetched prices stay cached
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithRetry sets the retry count and exponential backoff base delay
func WithRetry(maxRetries int, initialDelay time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if initialDelay > 0 {
			c.initialDelay = initialDelay
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the request pacing limit
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// NewClient creates a new Yahoo Finance price client backed by the given
// cache store.
func NewClient(store *cache.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		cache:        store,
		cacheTTL:     DefaultCacheTTL,
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		limiter:      rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		logger:       common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// quoteResponse mirrors the v7 quote endpoint payload.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"quoteResponse"`
}

// validSymbol rejects empty or malformed quote symbols before any network
// access. Accepted: letters, digits and the . & ^ - = separators Yahoo uses.
func validSymbol(symbol string) bool {
	if symbol == "" || len(symbol) > 32 {
		return false
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '.' || r == '&' || r == '^' || r == '-' || r == '=':
		default:
			return false
		}
	}
	return true
}

// GetPrice retrieves the current market price for one symbol, cache-first.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if !validSymbol(symbol) {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidSymbol, symbol)
	}

	if v, ok := c.cache.Get(cachePrefix + symbol); ok {
		return v.(float64), nil
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.initialDelay * (1 << uint(attempt-1))
			c.logger.Warn().
				Str("symbol", symbol).
				Int("attempt", attempt).
				Dur("wait", delay).
				Err(lastErr).
				Msg("Price fetch failed, retrying")
			if err := sleep(ctx, delay); err != nil {
				return 0, err
			}
		}

		prices, err := c.fetchQuotes(ctx, []string{symbol})
		if err != nil {
			lastErr = err
			var provErr *models.ProviderError
			if errors.As(err, &provErr) && !provErr.Retryable() {
				if provErr.NotFound() {
					return 0, fmt.Errorf("%w: %s", models.ErrInvalidSymbol, symbol)
				}
				return 0, err
			}
			continue
		}

		price, ok := prices[symbol]
		if !ok {
			// The provider answered but does not know the symbol.
			return 0, fmt.Errorf("%w: %s", models.ErrInvalidSymbol, symbol)
		}

		if err := c.cache.Set(cachePrefix+symbol, price, c.cacheTTL); err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache price")
		}
		return price, nil
	}

	return 0, fmt.Errorf("price fetch failed after %d attempts: %w", c.maxRetries, lastErr)
}

// GetBatchPrices retrieves prices for many symbols. Already-cached symbols
// skip the network; the rest go out in one batched call, falling back to
// independent per-symbol fetches when the batch fails. Unobtainable symbols
// are omitted from the result.
func (c *Client) GetBatchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(symbols))

	var uncached []string
	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		if seen[symbol] || !validSymbol(symbol) {
			continue
		}
		seen[symbol] = true
		if v, ok := c.cache.Get(cachePrefix + symbol); ok {
			prices[symbol] = v.(float64)
		} else {
			uncached = append(uncached, symbol)
		}
	}

	if len(uncached) == 0 {
		return prices, nil
	}

	fetched, batchErr := c.fetchQuotes(ctx, uncached)
	if batchErr == nil {
		for symbol, price := range fetched {
			prices[symbol] = price
			if err := c.cache.Set(cachePrefix+symbol, price, c.cacheTTL); err != nil {
				c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache price")
			}
		}
		return prices, nil
	}

	c.logger.Warn().Err(batchErr).Int("symbols", len(uncached)).
		Msg("Batch quote failed, falling back to per-symbol fetches")

	// Per-symbol fallback: each failure stays isolated so one bad symbol
	// does not drop the rest.
	failures := 0
	var lastErr error
	for _, symbol := range uncached {
		price, err := c.GetPrice(ctx, symbol)
		if err != nil {
			failures++
			lastErr = err
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Per-symbol price fetch failed")
			continue
		}
		prices[symbol] = price
	}

	if failures == len(uncached) && len(prices) == 0 {
		return prices, fmt.Errorf("all price fetches failed: %w", lastErr)
	}
	return prices, nil
}

// InvalidateCache drops all cached prices.
func (c *Client) InvalidateCache() {
	removed := c.cache.DeletePrefix(cachePrefix)
	c.logger.Info().Int("entries", removed).Msg("Price cache invalidated")
}

// fetchQuotes performs one rate-limited call to the v7 quote endpoint.
func (c *Client) fetchQuotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("fields", "symbol,regularMarketPrice")

	reqURL := fmt.Sprintf("%s/v7/finance/quote?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Int("symbols", len(symbols)).Msg("Yahoo quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.ProviderError{
			Source:  models.SourceYahoo,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &models.ProviderError{
			Source:      models.SourceYahoo,
			StatusCode:  resp.StatusCode,
			Message:     strings.TrimSpace(string(body)),
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	prices := make(map[string]float64, len(payload.QuoteResponse.Result))
	for _, r := range payload.QuoteResponse.Result {
		if r.Symbol != "" && r.RegularMarketPrice > 0 {
			prices[r.Symbol] = r.RegularMarketPrice
		}
	}
	return prices, nil
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Client implements PriceClient
var _ interfaces.PriceClient = (*Client)(nil)
