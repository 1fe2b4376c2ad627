package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for input-class failures. These are never retried.
var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrInvalidTTL    = errors.New("ttl must be greater than zero")
	ErrFileNotFound  = errors.New("portfolio file not found")
	ErrEmptyWorkbook = errors.New("workbook contains no data")
)

// ErrorSource identifies which subsystem produced an operational error.
type ErrorSource string

const (
	SourceYahoo      ErrorSource = "yahoo"
	SourceGoogle     ErrorSource = "google"
	SourceExcel      ErrorSource = "excel"
	SourceEnrichment ErrorSource = "enrichment"
)

// OperationalError is a structured, non-fatal error. Orchestration collects
// these instead of failing the whole operation on partial failure.
type OperationalError struct {
	Source    ErrorSource `json:"source"`
	Message   string      `json:"message"`
	Symbol    string      `json:"symbol,omitempty"`
	Row       int         `json:"row,omitempty"` // 1-based spreadsheet row
	Timestamp time.Time   `json:"timestamp"`
}

// NewOperationalError creates a timestamped operational error.
func NewOperationalError(source ErrorSource, message string) OperationalError {
	return OperationalError{
		Source:    source,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithSymbol tags the error with the symbol it relates to.
func (e OperationalError) WithSymbol(symbol string) OperationalError {
	e.Symbol = symbol
	return e
}

// WithRow tags the error with the spreadsheet row it relates to.
func (e OperationalError) WithRow(row int) OperationalError {
	e.Row = row
	return e
}

func (e OperationalError) Error() string {
	switch {
	case e.Symbol != "":
		return fmt.Sprintf("%s: %s (symbol: %s)", e.Source, e.Message, e.Symbol)
	case e.Row > 0:
		return fmt.Sprintf("%s: %s (row: %d)", e.Source, e.Message, e.Row)
	default:
		return fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
}

// ProviderError represents a failed call to an external data provider.
type ProviderError struct {
	Source      ErrorSource
	Symbol      string
	StatusCode  int // 0 when the request never completed
	Message     string
	RateLimited bool
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error: %s (status: %d, symbol: %s)", e.Source, e.Message, e.StatusCode, e.Symbol)
	}
	return fmt.Sprintf("%s provider error: %s (symbol: %s)", e.Source, e.Message, e.Symbol)
}

// Retryable reports whether the failure is transient. Connection failures,
// timeouts, rate limiting, and 5xx responses are retryable; a 404 or other
// 4xx means the symbol does not exist and retrying cannot help.
func (e *ProviderError) Retryable() bool {
	if e.RateLimited {
		return true
	}
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError
}

// NotFound reports whether the provider answered "no such symbol".
func (e *ProviderError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
