package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensex-pulse/internal/analysis/indicators"
	"sensex-pulse/internal/analysis/probability"
	"sensex-pulse/internal/analysis/risk"
	"sensex-pulse/internal/analysis/signal"
	"sensex-pulse/internal/models"
)

var seriesBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type stubProvider struct {
	mu     sync.Mutex
	series map[string]models.PriceSeries
	errs   map[string]error
	calls  map[string]int
}

func (s *stubProvider) Fetch(_ context.Context, symbol string, _ int) (models.PriceSeries, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[symbol]++
	s.mu.Unlock()

	if err, ok := s.errs[symbol]; ok {
		return models.PriceSeries{}, err
	}
	series, ok := s.series[symbol]
	if !ok {
		return models.PriceSeries{}, fmt.Errorf("no fixture for %s", symbol)
	}
	return series, nil
}

func seriesFromCloses(symbol string, closes []float64) models.PriceSeries {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: seriesBase.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return models.PriceSeries{Symbol: symbol, Candles: candles}
}

func linearCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

// momentumTail replaces the last five closes with a 2% pop per session.
func momentumTail(closes []float64) []float64 {
	out := make([]float64, len(closes))
	copy(out, closes)
	for i := len(out) - 5; i < len(out); i++ {
		out[i] = out[i-1] * 1.02
	}
	return out
}

// trendOnlyStages keeps just the two structural rules live so pipeline
// outcomes stay exact regardless of oscillator noise.
func trendOnlyStages() Stages {
	sigCfg := signal.DefaultConfig()
	sigCfg.Weights = signal.Weights{TrendAlignment: 2.0, Momentum5D: 1.0}
	sigCfg.BuyThreshold = 2.0
	sigCfg.SellThreshold = -2.0
	return Stages{
		Indicators:  indicators.NewEngine(indicators.Options{}),
		Signals:     signal.NewGenerator(sigCfg),
		Risk:        risk.NewEngine(risk.DefaultConfig()),
		Probability: probability.NewEstimator(probability.DefaultConfig()),
	}
}

func defaultStages() Stages {
	return Stages{
		Indicators:  indicators.NewEngine(indicators.Options{}),
		Signals:     signal.NewGenerator(signal.DefaultConfig()),
		Risk:        risk.NewEngine(risk.DefaultConfig()),
		Probability: probability.NewEstimator(probability.DefaultConfig()),
	}
}

func newTestEngine(p PriceProvider, stages Stages, topPerSide int, overviewOnly ...string) *Engine {
	cfg := Config{
		LookbackDays: 400,
		Concurrency:  4,
		TopPerSide:   topPerSide,
		OverviewOnly: overviewOnly,
	}
	return NewEngine(p, stages, cfg, zerolog.Nop())
}

func TestEvaluateRanksBothSides(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"UP.NS":   seriesFromCloses("UP.NS", linearCloses(250, 100, 0.5)),
		"MOMO.NS": seriesFromCloses("MOMO.NS", momentumTail(linearCloses(250, 100, 0.5))),
		"DOWN.NS": seriesFromCloses("DOWN.NS", linearCloses(250, 300, -0.5)),
	}}
	engine := newTestEngine(provider, trendOnlyStages(), 10)

	result, err := engine.Evaluate(context.Background(), []string{"UP.NS", "MOMO.NS", "DOWN.NS"}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Evaluated)
	assert.Empty(t, result.Skipped)

	require.Len(t, result.Candidates, 3)
	// BUY block by probability, then the SELL block.
	assert.Equal(t, "MOMO.NS", result.Candidates[0].Symbol)
	assert.Equal(t, "UP.NS", result.Candidates[1].Symbol)
	assert.Equal(t, "DOWN.NS", result.Candidates[2].Symbol)
	assert.Equal(t, models.DirectionBuy, result.Candidates[0].Signal.Direction)
	assert.Equal(t, models.DirectionBuy, result.Candidates[1].Signal.Direction)
	assert.Equal(t, models.DirectionSell, result.Candidates[2].Signal.Direction)

	// Trend (2.0) + momentum (1.0): 50 + 12 + confluence 6 on two
	// confirmations, low risk, no contradictions.
	assert.InDelta(t, 68.0, result.Candidates[0].Probability.ProbabilityPct, 1e-9)
	// Trend alone: 50 + (2/5)*20.
	assert.InDelta(t, 58.0, result.Candidates[1].Probability.ProbabilityPct, 1e-9)
	assert.InDelta(t, 58.0, result.Candidates[2].Probability.ProbabilityPct, 1e-9)

	down := result.Candidates[2]
	assert.InDelta(t, 175.5, down.LastClose, 1e-9)
	// Quiet series: the stop distance is the 0.5% volatility floor
	// times alpha 2.
	assert.InDelta(t, 177.255, down.Risk.StopLoss, 1e-9)
	assert.InDelta(t, 172.8675, down.Risk.TargetPrice, 1e-9)
	assert.Equal(t, models.RiskLow, down.Risk.RiskLevel)

	require.Len(t, result.Overview, 3)
	assert.Equal(t, "DOWN.NS", result.Overview[0].Symbol)
	assert.Equal(t, "MOMO.NS", result.Overview[1].Symbol)
	assert.Equal(t, "UP.NS", result.Overview[2].Symbol)
	require.True(t, result.Overview[0].HasChange)
	assert.InDelta(t, -0.5/176*100, result.Overview[0].ChangePct, 1e-9)
}

func TestEvaluateSkipIsolation(t *testing.T) {
	provider := &stubProvider{
		series: map[string]models.PriceSeries{
			"UP.NS":    seriesFromCloses("UP.NS", linearCloses(250, 100, 0.5)),
			"EMPTY.NS": {Symbol: "EMPTY.NS"},
		},
		errs: map[string]error{
			"BAD.NS": errors.New("connection refused"),
		},
	}
	engine := newTestEngine(provider, trendOnlyStages(), 10)

	result, err := engine.Evaluate(context.Background(), []string{"UP.NS", "BAD.NS", "EMPTY.NS"}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Evaluated)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "UP.NS", result.Candidates[0].Symbol)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "BAD.NS", result.Skipped[0].Symbol)
	assert.Equal(t, "connection refused", result.Skipped[0].Reason)
	assert.Equal(t, "EMPTY.NS", result.Skipped[1].Symbol)
	assert.Equal(t, "no price data in range", result.Skipped[1].Reason)
}

func TestEvaluateDeterministicAcrossOrderings(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"UP.NS":   seriesFromCloses("UP.NS", linearCloses(250, 100, 0.5)),
		"MOMO.NS": seriesFromCloses("MOMO.NS", momentumTail(linearCloses(250, 100, 0.5))),
		"DOWN.NS": seriesFromCloses("DOWN.NS", linearCloses(250, 300, -0.5)),
	}}
	engine := newTestEngine(provider, trendOnlyStages(), 10)

	first, err := engine.Evaluate(context.Background(), []string{"UP.NS", "MOMO.NS", "DOWN.NS"}, time.Time{})
	require.NoError(t, err)
	second, err := engine.Evaluate(context.Background(), []string{"DOWN.NS", "UP.NS", "MOMO.NS"}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateNormalizesSymbols(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"UP.NS": seriesFromCloses("UP.NS", linearCloses(250, 100, 0.5)),
	}}
	engine := newTestEngine(provider, trendOnlyStages(), 10)

	result, err := engine.Evaluate(context.Background(), []string{" up.ns", "UP.NS", "up.ns "}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Evaluated)
	assert.Equal(t, 1, provider.calls["UP.NS"])
}

func TestEvaluateOverviewOnlyNeverRanked(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"^BSESN": seriesFromCloses("^BSESN", linearCloses(250, 100, 0.5)),
	}}
	engine := newTestEngine(provider, trendOnlyStages(), 10, "^BSESN")

	result, err := engine.Evaluate(context.Background(), []string{"^BSESN"}, time.Time{})
	require.NoError(t, err)

	assert.Empty(t, result.Candidates)
	require.Len(t, result.Overview, 1)
	assert.Equal(t, "^BSESN", result.Overview[0].Symbol)
}

func TestEvaluateAsOfTruncation(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"UP.NS": seriesFromCloses("UP.NS", linearCloses(250, 100, 0.5)),
	}}
	engine := newTestEngine(provider, trendOnlyStages(), 10)

	asOf := seriesBase.AddDate(0, 0, 200)
	result, err := engine.Evaluate(context.Background(), []string{"UP.NS"}, asOf)
	require.NoError(t, err)

	assert.True(t, result.AsOf.Equal(asOf))
	require.Len(t, result.Candidates, 1)
	assert.InDelta(t, 200.0, result.Candidates[0].LastClose, 1e-9)

	// An as-of before the first session leaves nothing to evaluate.
	early, err := engine.Evaluate(context.Background(), []string{"UP.NS"}, seriesBase.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, early.Skipped, 1)
	assert.Equal(t, "no price data in range", early.Skipped[0].Reason)
}

func TestEvaluateCancelledContext(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"UP.NS": seriesFromCloses("UP.NS", linearCloses(250, 100, 0.5)),
	}}
	engine := newTestEngine(provider, trendOnlyStages(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Evaluate(ctx, []string{"UP.NS"}, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateNoSymbols(t *testing.T) {
	engine := newTestEngine(&stubProvider{}, trendOnlyStages(), 10)

	_, err := engine.Evaluate(context.Background(), nil, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbols")
}

// A steady two-month rally: by the last session RSI reads overbought and
// the close is stretched far above VWAP, so the full rule table flags the
// reversal risk rather than chasing the move.
func TestEvaluateOverextendedRallyFlagsReversal(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"RALLY.NS": seriesFromCloses("RALLY.NS", linearCloses(60, 100, 0.5)),
	}}
	engine := newTestEngine(provider, defaultStages(), 10)

	result, err := engine.Evaluate(context.Background(), []string{"RALLY.NS"}, time.Time{})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 1)
	c := result.Candidates[0]
	assert.Equal(t, models.DirectionSell, c.Signal.Direction)
	assert.InDelta(t, -2.5, c.Signal.Score, 1e-9)
	assert.Contains(t, strings.Join(c.Signal.Reasons, "; "), "overbought")
	// 50 + 10 for the score term + 6 for two agreeing indicators.
	assert.InDelta(t, 66.0, c.Probability.ProbabilityPct, 1e-9)
	assert.Greater(t, c.Risk.StopLoss, c.LastClose)
}

// A dead-flat series must evaluate cleanly: no candidate, a zero change
// overview row, and no skip entry.
func TestEvaluateFlatSeries(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"FLAT.NS": seriesFromCloses("FLAT.NS", flatCloses(250, 100)),
	}}
	engine := newTestEngine(provider, defaultStages(), 10)

	result, err := engine.Evaluate(context.Background(), []string{"FLAT.NS"}, time.Time{})
	require.NoError(t, err)

	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Overview, 1)
	assert.True(t, result.Overview[0].HasChange)
	assert.InDelta(t, 0.0, result.Overview[0].ChangePct, 1e-12)
}

// Five sessions of history: long-window indicators are undefined, the
// verdict is NONE, and the symbol still shows up in the overview.
func TestEvaluateShortSeries(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"NEW.NS": seriesFromCloses("NEW.NS", flatCloses(5, 104)),
	}}
	engine := newTestEngine(provider, defaultStages(), 10)

	result, err := engine.Evaluate(context.Background(), []string{"NEW.NS"}, time.Time{})
	require.NoError(t, err)

	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Overview, 1)
	assert.Equal(t, 104.0, result.Overview[0].LastClose)
}

func TestEvaluateMinBars(t *testing.T) {
	provider := &stubProvider{series: map[string]models.PriceSeries{
		"NEW.NS": seriesFromCloses("NEW.NS", flatCloses(5, 104)),
	}}
	cfg := Config{LookbackDays: 400, MinBars: 30, Concurrency: 2, TopPerSide: 10}
	engine := NewEngine(provider, defaultStages(), cfg, zerolog.Nop())

	result, err := engine.Evaluate(context.Background(), []string{"NEW.NS"}, time.Time{})
	require.NoError(t, err)

	assert.Empty(t, result.Overview)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "only 5 bars of history, need 30", result.Skipped[0].Reason)
}

func BenchmarkEvaluate(b *testing.B) {
	series := make(map[string]models.PriceSeries, 30)
	symbols := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		symbol := fmt.Sprintf("SYM%02d.NS", i)
		symbols = append(symbols, symbol)
		series[symbol] = seriesFromCloses(symbol, linearCloses(250, 100+float64(i), 0.5))
	}
	engine := newTestEngine(&stubProvider{series: series}, trendOnlyStages(), 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Evaluate(context.Background(), symbols, time.Time{}); err != nil {
			b.Fatal(err)
		}
	}
}
