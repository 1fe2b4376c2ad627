package common

import "time"

// Default TTLs for cached provider data. Quotes move with the market;
// fundamentals change on reporting cadence.
const (
	FreshnessQuote        = 1 * time.Minute
	FreshnessFundamentals = 6 * time.Hour
	FreshnessPortfolio    = 15 * time.Minute
)
