// Package signal converts an indicator snapshot into a directional trade
// signal by scoring an additive table of weighted rules.
package signal

import (
	"fmt"

	"sensex-pulse/internal/analysis/indicators"
	"sensex-pulse/internal/models"
)

// Config carries the rule weights, rule parameters and decision
// thresholds for the generator.
type Config struct {
	Weights       Weights
	Params        Params
	BuyThreshold  float64
	SellThreshold float64
	// InsufficientDataFraction is the share of core indicators that may
	// be undefined before the verdict is forced to NONE.
	InsufficientDataFraction float64
}

// DefaultConfig returns the standard rule weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			TrendAlignment: 2.0,
			RSIExtreme:     1.5,
			MACDFlip:       1.5,
			Momentum5D:     1.0,
			VWAPStretch:    1.0,
			VolumeSurge:    1.0,
			VWAPConfirm:    0.5,
		},
		Params: Params{
			RSIOversold:      30,
			RSIOverbought:    70,
			RSINeutralLow:    45,
			RSINeutralHigh:   55,
			VolumeSurgeRatio: 1.3,
			VWAPBandPct:      0.01,
			Momentum5DPct:    3.0,
		},
		BuyThreshold:             2.5,
		SellThreshold:            -2.5,
		InsufficientDataFraction: 0.5,
	}
}

// Generator scores indicator sets against the rule table. It holds no
// per-symbol state and is safe for concurrent use.
type Generator struct {
	rules []Rule
	cfg   Config
}

// NewGenerator builds a generator with the rule table derived from the
// configured weights.
func NewGenerator(cfg Config) *Generator {
	return &Generator{rules: Rules(cfg.Weights), cfg: cfg}
}

// Generate maps one indicator set to one signal. The score is the signed
// sum of triggered rule weights; direction comes from the configured
// thresholds. A sparse set (too many undefined indicators) always yields
// NONE, whatever the score says: a confident idea must not come out of
// thin evidence.
func (g *Generator) Generate(ind indicators.Set) models.Signal {
	sig := models.Signal{Symbol: ind.Symbol, Direction: models.DirectionNone}

	type cast struct {
		vote   Vote
		weight float64
	}

	var (
		score   float64
		reasons []string
		casts   []cast
	)

	for _, r := range g.rules {
		if r.Amplifier {
			continue
		}
		v, reason := r.Evaluate(ind, g.cfg.Params)
		if v == Abstain {
			continue
		}
		score += float64(v) * r.Weight
		reasons = append(reasons, reason)
		casts = append(casts, cast{vote: v, weight: r.Weight})
	}

	for _, r := range g.rules {
		if !r.Amplifier || score == 0 {
			continue
		}
		v, reason := r.Evaluate(ind, g.cfg.Params)
		if v == Abstain {
			continue
		}
		if score > 0 {
			score += r.Weight
		} else {
			score -= r.Weight
		}
		reasons = append(reasons, reason)
	}

	for _, c := range casts {
		agrees := (score > 0 && c.vote == Bullish) || (score < 0 && c.vote == Bearish)
		disagrees := (score > 0 && c.vote == Bearish) || (score < 0 && c.vote == Bullish)
		switch {
		case agrees:
			sig.Confirming++
		case disagrees:
			sig.Contradicting++
		}
	}

	sig.Score = score
	sig.Reasons = reasons

	total := len(ind.Core())
	undefined := ind.UndefinedCount()
	if float64(undefined) >= g.cfg.InsufficientDataFraction*float64(total) {
		sig.Direction = models.DirectionNone
		sig.Reasons = append([]string{
			fmt.Sprintf("insufficient data: only %d of %d indicators available", total-undefined, total),
		}, reasons...)
		return sig
	}

	switch {
	case score >= g.cfg.BuyThreshold:
		sig.Direction = models.DirectionBuy
	case score <= g.cfg.SellThreshold:
		sig.Direction = models.DirectionSell
	}

	return sig
}
