// Package risk sizes the downside of an actionable signal: realized
// volatility, drawdown depth, trend steadiness, and a stop/target
// envelope around the last close.
package risk

import (
	"errors"
	"math"

	"sensex-pulse/internal/models"
)

var (
	// ErrInsufficientData indicates the series is too short for the
	// configured windows.
	ErrInsufficientData = errors.New("insufficient data for risk assessment")

	// ErrNotActionable indicates a NONE-direction signal was passed in.
	// Risk is only assessed for trade ideas.
	ErrNotActionable = errors.New("risk assessment requires an actionable direction")
)

// Config holds the windows, envelope multipliers and bucket cutoffs.
type Config struct {
	VolatilityWindow  int     // sessions of returns behind the volatility estimate
	DrawdownWindow    int     // sessions scanned for the deepest peak-to-trough fall
	AnnualizationDays int     // trading days per year used to scale daily volatility
	StopAlpha         float64 // stop distance in units of volatility-adjusted range
	RewardBeta        float64 // target distance as a multiple of stop distance, > 1
	MinStopVolatility float64 // floor on daily volatility when sizing the stop
	EntryBandPct      float64 // half-width of the acceptable fill band, as a fraction
	VolatilityCap     float64 // annualized volatility treated as maximal risk
	DrawdownCap       float64 // drawdown fraction treated as maximal risk
	VolatilityWeight  float64
	DrawdownWeight    float64
	StabilityWeight   float64
	MediumCutoff      float64 // blended score at or above which risk is MEDIUM
	HighCutoff        float64 // blended score at or above which risk is HIGH
}

// DefaultConfig returns the standard daily-report parameters.
func DefaultConfig() Config {
	return Config{
		VolatilityWindow:  20,
		DrawdownWindow:    60,
		AnnualizationDays: 252,
		StopAlpha:         2.0,
		RewardBeta:        1.5,
		MinStopVolatility: 0.005,
		EntryBandPct:      0.01,
		VolatilityCap:     0.60,
		DrawdownCap:       0.35,
		VolatilityWeight:  0.45,
		DrawdownWeight:    0.45,
		StabilityWeight:   0.10,
		MediumCutoff:      0.33,
		HighCutoff:        0.66,
	}
}

// Engine computes RiskMetrics from a price series.
type Engine struct {
	cfg Config
}

// NewEngine creates a risk engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Assess computes the full risk picture for a symbol with an actionable
// signal. Daily volatility is the population standard deviation of simple
// returns over the volatility window; the annualized figure scales it by
// the square root of the configured trading days.
func (e *Engine) Assess(series models.PriceSeries, direction models.Direction) (models.RiskMetrics, error) {
	if !direction.Actionable() {
		return models.RiskMetrics{}, ErrNotActionable
	}

	closes := make([]float64, len(series.Candles))
	for i, c := range series.Candles {
		closes[i] = c.Close
	}
	if len(closes) < e.cfg.VolatilityWindow+1 {
		return models.RiskMetrics{}, ErrInsufficientData
	}

	lastClose := closes[len(closes)-1]
	if lastClose <= 0 {
		return models.RiskMetrics{}, ErrInsufficientData
	}

	returns := dailyReturns(closes[len(closes)-e.cfg.VolatilityWindow-1:])
	dailyVol := stdDev(returns)
	annualVol := dailyVol * math.Sqrt(float64(e.cfg.AnnualizationDays))

	drawdown := maxDrawdown(tail(closes, e.cfg.DrawdownWindow))
	stability := e.trendStability(closes)

	m := models.RiskMetrics{
		DailyVolatility:  dailyVol,
		AnnualVolatility: annualVol,
		MaxDrawdownPct:   drawdown * 100,
		TrendStability:   stability,
	}

	stopDist := e.cfg.StopAlpha * lastClose * math.Max(dailyVol, e.cfg.MinStopVolatility)
	if direction == models.DirectionBuy {
		m.StopLoss = lastClose - stopDist
		m.TargetPrice = lastClose + e.cfg.RewardBeta*stopDist
	} else {
		m.StopLoss = lastClose + stopDist
		m.TargetPrice = lastClose - e.cfg.RewardBeta*stopDist
	}
	m.EntryZoneLow = lastClose * (1 - e.cfg.EntryBandPct)
	m.EntryZoneHigh = lastClose * (1 + e.cfg.EntryBandPct)

	m.RiskLevel = e.classify(annualVol, drawdown, stability)

	return m, nil
}

// classify blends the three normalized components into one score and
// buckets it. Volatility and drawdown are clipped at their caps so a
// single runaway component cannot dominate past "maximal".
func (e *Engine) classify(annualVol, drawdown, stability float64) models.RiskLevel {
	volScore := math.Min(annualVol/e.cfg.VolatilityCap, 1)
	ddScore := math.Min(drawdown/e.cfg.DrawdownCap, 1)
	blended := e.cfg.VolatilityWeight*volScore +
		e.cfg.DrawdownWeight*ddScore +
		e.cfg.StabilityWeight*(1-stability)

	switch {
	case blended < e.cfg.MediumCutoff:
		return models.RiskLow
	case blended < e.cfg.HighCutoff:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// trendStability measures how evenly the short moving average has been
// moving: 1/(1+CV) of the average's session-to-session slope. A perfectly
// linear drift scores 1, an erratic or flat average scores near 0.
func (e *Engine) trendStability(closes []float64) float64 {
	window := e.cfg.VolatilityWindow
	span := tail(closes, e.cfg.DrawdownWindow+window)

	if len(span) < window+1 {
		return 0
	}

	smaPoints := make([]float64, 0, len(span)-window+1)
	for i := window; i <= len(span); i++ {
		smaPoints = append(smaPoints, mean(span[i-window:i]))
	}

	slopes := make([]float64, len(smaPoints)-1)
	for i := 1; i < len(smaPoints); i++ {
		slopes[i-1] = smaPoints[i] - smaPoints[i-1]
	}

	m := mean(slopes)
	if m == 0 {
		return 0
	}
	cv := stdDev(slopes) / math.Abs(m)
	stability := 1 / (1 + cv)

	return math.Max(0, math.Min(1, stability))
}

// dailyReturns converts closes into simple session-over-session returns.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// maxDrawdown returns the deepest peak-to-trough decline as a fraction of
// the peak, always >= 0.
func maxDrawdown(closes []float64) float64 {
	var peak, worst float64
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			dd := (peak - c) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
