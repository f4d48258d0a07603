package marketdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sensex-pulse/internal/models"
	"sensex-pulse/pkg/utils"
)

// KiteConfig carries Kite Connect credentials. The access token must be
// pre-generated; tokens expire at 6 AM IST the next day.
type KiteConfig struct {
	APIKey      string
	AccessToken string
}

// KiteProvider fetches daily history through the Kite Connect API.
// Instrument tokens are resolved from the instruments dump and cached
// for the life of the provider.
type KiteProvider struct {
	client *kiteconnect.Client
	log    zerolog.Logger

	mu     sync.RWMutex
	tokens map[string]int
}

// NewKiteProvider creates a provider bound to the given credentials.
func NewKiteProvider(cfg KiteConfig, log zerolog.Logger) *KiteProvider {
	client := kiteconnect.New(cfg.APIKey)
	client.SetAccessToken(cfg.AccessToken)

	return &KiteProvider{
		client: client,
		log:    log.With().Str("provider", "kite").Logger(),
		tokens: make(map[string]int),
	}
}

// Name identifies this provider in logs and run records.
func (p *KiteProvider) Name() string { return "kite" }

// Fetch downloads up to lookbackDays of daily candles ending today.
func (p *KiteProvider) Fetch(ctx context.Context, symbol string, lookbackDays int) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}

	exchange, tradingSymbol := splitTicker(symbol)
	token, err := p.instrumentToken(exchange, tradingSymbol)
	if err != nil {
		return models.PriceSeries{}, &UnavailableError{Symbol: symbol, Err: err}
	}

	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)

	var data []kiteconnect.HistoricalData
	err = utils.Retry(ctx, utils.DefaultRetryConfig(), func() error {
		var retryErr error
		data, retryErr = p.client.GetHistoricalData(token, "day", from, to, false, false)
		return retryErr
	})
	if err != nil {
		return models.PriceSeries{}, &UnavailableError{Symbol: symbol, Err: err}
	}

	candles := make([]models.Candle, len(data))
	for i, d := range data {
		candles[i] = models.Candle{
			Timestamp: d.Date.Time,
			Open:      d.Open,
			High:      d.High,
			Low:       d.Low,
			Close:     d.Close,
			Volume:    int64(d.Volume),
		}
	}

	p.log.Debug().Str("symbol", symbol).Int("candles", len(candles)).Msg("history fetched")
	return models.PriceSeries{Symbol: symbol, Candles: candles}, nil
}

// splitTicker maps a Yahoo-style ticker onto a Kite exchange and
// trading symbol.
func splitTicker(symbol string) (exchange, tradingSymbol string) {
	switch {
	case symbol == "^BSESN":
		return "BSE", "SENSEX"
	case strings.HasSuffix(symbol, ".NS"):
		return "NSE", strings.TrimSuffix(symbol, ".NS")
	case strings.HasSuffix(symbol, ".BO"):
		return "BSE", strings.TrimSuffix(symbol, ".BO")
	default:
		return "NSE", symbol
	}
}

func (p *KiteProvider) instrumentToken(exchange, tradingSymbol string) (int, error) {
	key := exchange + ":" + tradingSymbol

	p.mu.RLock()
	token, ok := p.tokens[key]
	p.mu.RUnlock()
	if ok {
		return token, nil
	}

	if err := p.loadInstruments(); err != nil {
		return 0, err
	}

	p.mu.RLock()
	token, ok = p.tokens[key]
	p.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("instrument not found: %s", key)
	}
	return token, nil
}

func (p *KiteProvider) loadInstruments() error {
	instruments, err := p.client.GetInstruments()
	if err != nil {
		return fmt.Errorf("load instruments: %w", err)
	}

	p.mu.Lock()
	for _, inst := range instruments {
		p.tokens[inst.Exchange+":"+inst.Tradingsymbol] = int(inst.InstrumentToken)
	}
	p.mu.Unlock()

	p.log.Debug().Int("instruments", len(instruments)).Msg("instrument dump cached")
	return nil
}
