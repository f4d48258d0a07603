package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"sensex-pulse/internal/models"
	"sensex-pulse/pkg/utils"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// The chart endpoint rejects clients without a browser user agent.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// YahooConfig holds tuning for the Yahoo Finance chart client.
type YahooConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Retry             utils.RetryConfig
}

// DefaultYahooConfig returns settings suitable for a full-universe run.
func DefaultYahooConfig() YahooConfig {
	return YahooConfig{
		BaseURL:           defaultYahooBaseURL,
		Timeout:           15 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		Retry:             utils.DefaultRetryConfig(),
	}
}

// YahooProvider fetches daily OHLCV history from the Yahoo Finance v8
// chart API. Requests are rate limited and retried with backoff.
type YahooProvider struct {
	cfg     YahooConfig
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewYahooProvider creates a provider, filling zero config fields with
// defaults.
func NewYahooProvider(cfg YahooConfig, log zerolog.Logger) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultYahooBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = utils.DefaultRetryConfig()
	}

	return &YahooProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:     log.With().Str("provider", "yahoo").Logger(),
	}
}

// Name identifies this provider in logs and run records.
func (p *YahooProvider) Name() string { return "yahoo" }

// Fetch downloads up to lookbackDays of daily candles ending today.
func (p *YahooProvider) Fetch(ctx context.Context, symbol string, lookbackDays int) (models.PriceSeries, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return models.PriceSeries{}, err
	}

	now := time.Now()
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", p.cfg.BaseURL, url.PathEscape(symbol))
	query := url.Values{
		"period1":  []string{fmt.Sprintf("%d", now.AddDate(0, 0, -lookbackDays).Unix())},
		"period2":  []string{fmt.Sprintf("%d", now.Unix())},
		"interval": []string{"1d"},
		"events":   []string{"history"},
	}

	series, err := utils.RetryWithResult(ctx, p.cfg.Retry, func() (models.PriceSeries, error) {
		return p.fetchOnce(ctx, symbol, endpoint+"?"+query.Encode())
	})
	if err != nil {
		return models.PriceSeries{}, &UnavailableError{Symbol: symbol, Err: err}
	}

	p.log.Debug().Str("symbol", symbol).Int("candles", len(series.Candles)).Msg("history fetched")
	return series, nil
}

func (p *YahooProvider) fetchOnce(ctx context.Context, symbol, rawURL string) (models.PriceSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.PriceSeries{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("read chart response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.PriceSeries{}, fmt.Errorf("chart API returned %s", resp.Status)
	}

	var decoded chartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return models.PriceSeries{}, fmt.Errorf("decode chart response: %w", err)
	}

	return decoded.toSeries(symbol)
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *chartError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

type chartResult struct {
	Timestamps []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// Quote arrays use pointers because halted sessions and holidays come
// back as JSON nulls.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// toSeries converts the decoded payload into a chronological series.
// Rows with a null close or volume are dropped; a null open, high or
// low falls back to the close.
func (r chartResponse) toSeries(symbol string) (models.PriceSeries, error) {
	if r.Chart.Error != nil {
		return models.PriceSeries{}, r.Chart.Error
	}
	if len(r.Chart.Result) == 0 {
		return models.PriceSeries{}, fmt.Errorf("empty chart result")
	}
	result := r.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return models.PriceSeries{}, fmt.Errorf("chart result carries no quote block")
	}
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamps))
	for i, ts := range result.Timestamps {
		closePtr := priceAt(quote.Close, i)
		volumePtr := volumeAt(quote.Volume, i)
		if closePtr == nil || volumePtr == nil {
			continue
		}
		closePrice := *closePtr
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      priceOr(quote.Open, i, closePrice),
			High:      priceOr(quote.High, i, closePrice),
			Low:       priceOr(quote.Low, i, closePrice),
			Close:     closePrice,
			Volume:    *volumePtr,
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	return models.PriceSeries{Symbol: symbol, Candles: candles}, nil
}

func priceAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func volumeAt(values []*int64, i int) *int64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func priceOr(values []*float64, i int, fallback float64) float64 {
	if v := priceAt(values, i); v != nil {
		return *v
	}
	return fallback
}
