// Package marketdata fetches historical daily prices for listed equities
// and resolves the symbol universe to scan.
package marketdata

import (
	"context"
	"fmt"

	"sensex-pulse/internal/models"
)

// Provider fetches the daily price series for one symbol.
type Provider interface {
	// Fetch returns up to lookbackDays calendar days of daily candles
	// for symbol, oldest first.
	Fetch(ctx context.Context, symbol string, lookbackDays int) (models.PriceSeries, error)

	// Name identifies the provider in logs and reports.
	Name() string
}

// UnavailableError marks a symbol whose data could not be retrieved.
// The evaluation run skips such symbols instead of failing outright.
type UnavailableError struct {
	Symbol string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

var (
	_ Provider = (*YahooProvider)(nil)
	_ Provider = (*KiteProvider)(nil)
)
