// Package models provides domain models for the report pipeline.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
)

// Direction represents the directional bias of a trade signal.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionNone Direction = "NONE"
)

// Actionable reports whether the direction represents a trade idea.
func (d Direction) Actionable() bool {
	return d == DirectionBuy || d == DirectionSell
}

// RiskLevel is a three-bucket risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank orders risk levels for comparison: LOW < MEDIUM < HIGH.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return -1
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// PriceSeries is the chronological daily history for one symbol.
// The pipeline treats it as read-only input.
type PriceSeries struct {
	Symbol  string
	Candles []Candle
}

// Until returns the series restricted to candles at or before asOf.
// The underlying candles are shared, not copied; callers must not mutate.
func (s PriceSeries) Until(asOf time.Time) PriceSeries {
	n := len(s.Candles)
	for n > 0 && s.Candles[n-1].Timestamp.After(asOf) {
		n--
	}
	return PriceSeries{Symbol: s.Symbol, Candles: s.Candles[:n]}
}

// Signal is the directional verdict for one symbol.
// Immutable once produced; reasons are ordered most significant first.
type Signal struct {
	Symbol        string
	Direction     Direction
	Score         float64
	Reasons       []string
	Confirming    int
	Contradicting int
}

// RiskMetrics quantifies risk for an actionable signal. Volatility is
// carried both per session and annualized so consumers never have to
// guess which one a number is.
type RiskMetrics struct {
	DailyVolatility  float64
	AnnualVolatility float64
	MaxDrawdownPct   float64
	TrendStability   float64
	StopLoss         float64
	TargetPrice      float64
	EntryZoneLow     float64
	EntryZoneHigh    float64
	RiskLevel        RiskLevel
}

// ProbabilityEstimate is the bounded probability-of-success for a signal.
type ProbabilityEstimate struct {
	Symbol         string
	ProbabilityPct float64
}

// RankedCandidate joins signal, risk and probability for one symbol.
// It is the unit consumed by reporting.
type RankedCandidate struct {
	Symbol      string
	LastClose   float64
	Signal      Signal
	Risk        RiskMetrics
	Probability ProbabilityEstimate
}

// SkippedSymbol records a symbol excluded from a run and why.
type SkippedSymbol struct {
	Symbol string
	Reason string
}

// SymbolOverview is the per-symbol summary row used for the market
// snapshot. HasChange is false when the series is too short to compute
// a one-session change.
type SymbolOverview struct {
	Symbol    string
	LastClose float64
	ChangePct float64
	HasChange bool
	Volume    int64
}

// EvaluationResult is the output of one evaluation run. Candidates are
// ranked and filtered; Overview covers every successfully evaluated
// symbol including non-actionable ones.
type EvaluationResult struct {
	AsOf       time.Time
	Candidates []RankedCandidate
	Overview   []SymbolOverview
	Skipped    []SkippedSymbol
	Evaluated  int
}
