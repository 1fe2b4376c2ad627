// Package google provides the fundamentals client, scraping P/E ratio and
// latest-earnings figures from Google Finance quote pages.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/cache"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/interfaces"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/queue"
)

const (
	DefaultBaseURL      = "https://www.google.com/finance"
	DefaultTimeout      = 10 * time.Second
	DefaultCacheTTL     = 6 * time.Hour // fundamentals change slowly
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 500 * time.Millisecond

	peCachePrefix       = "pe:"
	earningsCachePrefix = "earnings:"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Stat labels located on the quote page. Matching is case-insensitive
// substring, the markup classes shift more often than the labels do.
const (
	peLabel       = "p/e ratio"
	earningsLabel = "earnings per share"
)

// noDataSentinels are page values meaning "not published".
var noDataSentinels = map[string]bool{
	"": true, "-": true, "—": true, "–": true, "--": true, "n/a": true, "na": true,
}

// Client implements the FundamentalsClient interface by scraping Google
// Finance. All page fetches are admitted through the bounded request queue
// so concurrent batch enrichment stays under the provider's tolerance.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	cache        *cache.Store
	cacheTTL     time.Duration
	maxRetries   int
	initialDelay time.Duration
	requests     *queue.Queue
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

// WithCacheTTL sets how long scraped fundamentals stay cached
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

// NewClient creates a new Google Finance fundamentals client. The request
// queue bounds concurrency and paces request starts; the caller owns its
// lifecycle.
func NewClient(store *cache.Store, requests *queue.Queue, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		cache:        store,
		cacheTTL:     DefaultCacheTTL,
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		requests:     requests,
		logger:       common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// pageStats carries whatever the quote page published.
type pageStats struct {
	peRatio  *float64
	earnings *string
}

// GetPERatio retrieves the P/E ratio for a symbol, nil when the page does
// not publish one. Nil results are cached like any other.
func (c *Client) GetPERatio(ctx context.Context, symbol string) (*float64, error) {
	if v, ok := c.cache.Get(peCachePrefix + symbol); ok {
		return v.(*float64), nil
	}

	stats, err := c.fetchStatsWithRetry(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(peCachePrefix+symbol, stats.peRatio, c.cacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache P/E ratio")
	}
	return stats.peRatio, nil
}

// GetLatestEarnings retrieves the latest-earnings text for a symbol, nil
// when the page does not publish one.
func (c *Client) GetLatestEarnings(ctx context.Context, symbol string) (*string, error) {
	if v, ok := c.cache.Get(earningsCachePrefix + symbol); ok {
		return v.(*string), nil
	}

	stats, err := c.fetchStatsWithRetry(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(earningsCachePrefix+symbol, stats.earnings, c.cacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache earnings")
	}
	return stats.earnings, nil
}

// GetBatchFinancials fetches both fundamentals for every symbol, fanning the
// per-symbol fetches out concurrently. Admission control happens in the
// request queue, so the fan-out here is unbounded. Per-symbol failures are
// collected without aborting the rest.
func (c *Client) GetBatchFinancials(ctx context.Context, symbols []string) (map[string]models.Financials, []models.OperationalError) {
	type result struct {
		symbol     string
		financials models.Financials
		err        error
	}

	results := make(chan result, len(symbols))
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			var (
				pe       *float64
				earnings *string
				peErr    error
				earnErr  error
				inner    sync.WaitGroup
			)

			inner.Add(2)
			go func() {
				defer inner.Done()
				pe, peErr = c.GetPERatio(ctx, symbol)
			}()
			go func() {
				defer inner.Done()
				earnings, earnErr = c.GetLatestEarnings(ctx, symbol)
			}()
			inner.Wait()

			if err := errors.Join(peErr, earnErr); err != nil {
				results <- result{symbol: symbol, err: err}
				return
			}
			results <- result{
				symbol:     symbol,
				financials: models.Financials{PERatio: pe, LatestEarnings: earnings},
			}
		}(symbol)
	}

	wg.Wait()
	close(results)

	financials := make(map[string]models.Financials, len(symbols))
	var opErrs []models.OperationalError
	for r := range results {
		if r.err != nil {
			opErrs = append(opErrs, models.NewOperationalError(
				models.SourceGoogle,
				fmt.Sprintf("fundamentals fetch failed: %v", r.err),
			).WithSymbol(r.symbol))
			continue
		}
		financials[r.symbol] = r.financials
	}
	return financials, opErrs
}

// InvalidateCache drops all cached fundamentals.
func (c *Client) InvalidateCache() {
	removed := c.cache.DeletePrefix(peCachePrefix)
	removed += c.cache.DeletePrefix(earningsCachePrefix)
	c.logger.Info().Int("entries", removed).Msg("Fundamentals cache invalidated")
}

// fetchStatsWithRetry routes the page fetch through the request queue with
// the exponential-backoff retry policy. A "symbol not found" page is a nil
// result, never a retry.
func (c *Client) fetchStatsWithRetry(ctx context.Context, symbol string) (pageStats, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.initialDelay * (1 << uint(attempt-1))
			c.logger.Warn().
				Str("symbol", symbol).
				Int("attempt", attempt).
				Dur("wait", delay).
				Err(lastErr).
				Msg("Fundamentals fetch failed, retrying")
			if err := sleep(ctx, delay); err != nil {
				return pageStats{}, err
			}
		}

		value, err := c.requests.Submit(ctx, func(ctx context.Context) (any, error) {
			return c.fetchStats(ctx, symbol)
		})
		if err == nil {
			return value.(pageStats), nil
		}

		lastErr = err
		var provErr *models.ProviderError
		if errors.As(err, &provErr) {
			if provErr.NotFound() {
				// Unknown to the provider: expected for unlisted scrips,
				// surfaced as an empty (nil-valued) result.
				return pageStats{}, nil
			}
			if !provErr.Retryable() {
				return pageStats{}, err
			}
			continue
		}
		if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return pageStats{}, err
		}
	}

	return pageStats{}, fmt.Errorf("fundamentals fetch failed after %d attempts: %w", c.maxRetries, lastErr)
}

// quotePath maps a derived quote symbol to the Google Finance identifier:
// NSE symbols ("TICKER.NS") become "TICKER:NSE", BSE fallbacks
// ("CODE.BO") become "CODE:BOM".
func quotePath(symbol string) string {
	switch {
	case strings.HasSuffix(symbol, ".NS"):
		return strings.TrimSuffix(symbol, ".NS") + ":NSE"
	case strings.HasSuffix(symbol, ".BO"):
		return strings.TrimSuffix(symbol, ".BO") + ":BOM"
	default:
		return symbol
	}
}

// fetchStats downloads one quote page and extracts the labeled stats.
func (c *Client) fetchStats(ctx context.Context, symbol string) (pageStats, error) {
	reqURL := fmt.Sprintf("%s/quote/%s", c.baseURL, quotePath(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return pageStats{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("symbol", symbol).Msg("Google Finance page request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageStats{}, &models.ProviderError{
			Source:  models.SourceGoogle,
			Symbol:  symbol,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pageStats{}, &models.ProviderError{
			Source:      models.SourceGoogle,
			Symbol:      symbol,
			StatusCode:  resp.StatusCode,
			Message:     http.StatusText(resp.StatusCode),
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return pageStats{}, fmt.Errorf("failed to parse quote page: %w", err)
	}

	return extractStats(doc), nil
}

// extractStats walks the page's stat rows. Each row holds a label node and a
// value node; rows are matched by label text so class churn in the value
// markup does not matter.
func extractStats(doc *goquery.Document) pageStats {
	var stats pageStats

	doc.Find("div.gyFHrc").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(row.Find("div.mfs7Fc").Text()))
		value := strings.TrimSpace(row.Find("div.P6K39c").Text())

		switch {
		case strings.Contains(label, peLabel):
			stats.peRatio = parseStatNumber(value)
		case strings.Contains(label, earningsLabel):
			stats.earnings = parseStatText(value)
		}
	})

	return stats
}

// parseStatNumber parses a positive numeric stat, nil for sentinels and junk.
func parseStatNumber(value string) *float64 {
	if noDataSentinels[strings.ToLower(strings.TrimSpace(value))] {
		return nil
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// parseStatText trims a text stat, nil for "no data" sentinels.
func parseStatText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if noDataSentinels[strings.ToLower(trimmed)] {
		return nil
	}
	return &trimmed
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

// Ensure Client implements FundamentalsClient
var _ interfaces.FundamentalsClient = (*Client)(nil)
