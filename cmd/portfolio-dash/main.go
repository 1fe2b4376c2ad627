package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/app"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/cache"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/clients/google"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/clients/yahoo"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/ingest"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/queue"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/services/enrich"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	filePath := flag.String("file", "", "portfolio spreadsheet path (overrides config)")
	refresh := flag.Bool("refresh", false, "drop provider caches before loading")
	flag.Parse()

	config, err := common.LoadConfig("config.toml", os.Getenv("PORTFOLIO_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *filePath != "" {
		config.Portfolio.FilePath = *filePath
	}

	logger := common.NewLogger(config.Logging.Level)

	priceCache := cache.New()
	fundamentalsCache := cache.New()

	requests := queue.New(config.Clients.Google.MaxConcurrent, config.Clients.Google.GetMinInterval())
	defer requests.Close()

	yahooCfg := config.Clients.Yahoo
	prices := yahoo.NewClient(priceCache,
		yahoo.WithBaseURL(yahooCfg.BaseURL),
		yahoo.WithCacheTTL(yahooCfg.GetCacheTTL()),
		yahoo.WithRetry(yahooCfg.MaxRetries, yahooCfg.GetInitialDelay()),
		yahoo.WithTimeout(yahooCfg.GetTimeout()),
		yahoo.WithRateLimit(yahooCfg.RateLimit),
		yahoo.WithLogger(logger),
	)

	googleCfg := config.Clients.Google
	fundamentals := google.NewClient(fundamentalsCache, requests,
		google.WithBaseURL(googleCfg.BaseURL),
		google.WithCacheTTL(googleCfg.GetCacheTTL()),
		google.WithRetry(googleCfg.MaxRetries, googleCfg.GetInitialDelay()),
		google.WithTimeout(googleCfg.GetTimeout()),
		google.WithLogger(logger),
	)

	portfolio := app.NewPortfolio(config, logger,
		ingest.NewService(logger),
		enrich.NewService(prices, fundamentals, logger),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var result *models.EnrichResult
	if *refresh {
		result, err = portfolio.Refresh(ctx)
	} else {
		result, err = portfolio.Current(ctx)
	}
	if err != nil {
		logger.Error().Err(err).Str("file", config.Portfolio.FilePath).Msg("Failed to load portfolio")
		os.Exit(1)
	}

	for _, opErr := range result.Errors {
		logger.Warn().Str("source", string(opErr.Source)).Msg(opErr.Error())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error().Err(err).Msg("Failed to write output")
		os.Exit(1)
	}
}
