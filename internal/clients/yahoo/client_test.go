package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/cache"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// quoteHandler serves a canned v7 quote payload for the requested symbols,
// using the given symbol→price table. Unknown symbols are omitted, matching
// provider behavior.
func quoteHandler(t *testing.T, table map[string]float64, calls *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
		var results []string
		for _, s := range symbols {
			if price, ok := table[s]; ok {
				results = append(results, fmt.Sprintf(`{"symbol":%q,"regularMarketPrice":%g}`, s, price))
			}
		}
		fmt.Fprintf(w, `{"quoteResponse":{"result":[%s],"error":null}}`, strings.Join(results, ","))
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *cache.Store) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := cache.New()
	base := []ClientOption{
		WithBaseURL(srv.URL),
		WithRetry(3, time.Millisecond),
		WithRateLimit(1000),
	}
	return NewClient(store, append(base, opts...)...), store
}

func TestGetPrice(t *testing.T) {
	var calls int64
	c, _ := newTestClient(t, quoteHandler(t, map[string]float64{"ACME.NS": 120.5}, &calls))

	price, err := c.GetPrice(context.Background(), "ACME.NS")
	require.NoError(t, err)
	assert.Equal(t, 120.5, price)
}

func TestGetPrice_InvalidSymbolNoNetwork(t *testing.T) {
	var calls int64
	c, _ := newTestClient(t, quoteHandler(t, nil, &calls))

	for _, symbol := range []string{"", "AC ME", "bad/symbol", strings.Repeat("X", 40)} {
		_, err := c.GetPrice(context.Background(), symbol)
		assert.ErrorIs(t, err, models.ErrInvalidSymbol, "symbol %q", symbol)
	}
	assert.Zero(t, atomic.LoadInt64(&calls), "validation must happen before any network access")
}

func TestGetPrice_CacheAvoidsRedundantFetch(t *testing.T) {
	var calls int64
	c, _ := newTestClient(t, quoteHandler(t, map[string]float64{"ACME.NS": 100}, &calls))

	_, err := c.GetPrice(context.Background(), "ACME.NS")
	require.NoError(t, err)
	_, err = c.GetPrice(context.Background(), "ACME.NS")
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls),
		"two calls within the TTL must issue exactly one provider call")
}

func TestGetPrice_UnknownSymbolNotRetried(t *testing.T) {
	var calls int64
	c, _ := newTestClient(t, quoteHandler(t, map[string]float64{}, &calls))

	_, err := c.GetPrice(context.Background(), "NOPE.NS")
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "symbol-not-found must not be retried")
}

func TestGetPrice_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int64
	handler := func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"ACME.NS","regularMarketPrice":55}],"error":null}}`)
	}
	c, _ := newTestClient(t, handler)

	price, err := c.GetPrice(context.Background(), "ACME.NS")
	require.NoError(t, err)
	assert.Equal(t, 55.0, price)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestGetPrice_RetryBound(t *testing.T) {
	var calls int64
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}
	c, _ := newTestClient(t, handler)

	_, err := c.GetPrice(context.Background(), "ACME.NS")
	require.Error(t, err)

	var provErr *models.ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.Equal(t, models.SourceYahoo, provErr.Source)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls), "no attempts beyond maxRetries")
}

func TestGetBatchPrices(t *testing.T) {
	var calls int64
	table := map[string]float64{"A.NS": 10, "B.NS": 20, "C.BO": 30}
	c, _ := newTestClient(t, quoteHandler(t, table, &calls))

	prices, err := c.GetBatchPrices(context.Background(), []string{"A.NS", "B.NS", "C.BO", "MISSING.NS"})
	require.NoError(t, err)
	assert.Equal(t, table, prices)
	assert.NotContains(t, prices, "MISSING.NS", "unobtainable symbols are omitted silently")
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "one batched call for all uncached symbols")
}

func TestGetBatchPrices_PartitionsCached(t *testing.T) {
	var calls int64
	c, store := newTestClient(t, quoteHandler(t, map[string]float64{"B.NS": 20}, &calls))
	require.NoError(t, store.Set("price:A.NS", 11.0, time.Minute))

	prices, err := c.GetBatchPrices(context.Background(), []string{"A.NS", "B.NS"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A.NS": 11, "B.NS": 20}, prices)

	// Only B.NS should have gone to the provider.
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestGetBatchPrices_FallbackIsolatesFailures(t *testing.T) {
	// Batch calls (more than one symbol) fail; per-symbol calls succeed for
	// GOOD.NS only.
	var calls int64
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
		if len(symbols) > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if symbols[0] == "GOOD.NS" {
			fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"GOOD.NS","regularMarketPrice":42}],"error":null}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}
	c, _ := newTestClient(t, handler)

	prices, err := c.GetBatchPrices(context.Background(), []string{"GOOD.NS", "BAD.NS"})
	require.NoError(t, err, "partial fallback success is not an error")
	assert.Equal(t, map[string]float64{"GOOD.NS": 42}, prices)
}

func TestGetBatchPrices_AllFailed(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	c, _ := newTestClient(t, handler)

	prices, err := c.GetBatchPrices(context.Background(), []string{"A.NS", "B.NS"})
	assert.Error(t, err)
	assert.Empty(t, prices)
}

func TestInvalidateCache(t *testing.T) {
	var calls int64
	c, store := newTestClient(t, quoteHandler(t, map[string]float64{"A.NS": 10}, &calls))

	_, err := c.GetPrice(context.Background(), "A.NS")
	require.NoError(t, err)
	require.True(t, store.Has("price:A.NS"))

	c.InvalidateCache()
	assert.False(t, store.Has("price:A.NS"))

	_, err = c.GetPrice(context.Background(), "A.NS")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "invalidation forces a refetch")
}

func TestGetPrice_RateLimitedIsRetryable(t *testing.T) {
	var calls int64
	handler := func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"A.NS","regularMarketPrice":9}],"error":null}}`)
	}
	c, _ := newTestClient(t, handler)

	price, err := c.GetPrice(context.Background(), "A.NS")
	require.NoError(t, err)
	assert.Equal(t, 9.0, price)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}
