// Package probability turns a signal and its risk picture into a single
// success-probability percentage.
package probability

import (
	"math"

	"sensex-pulse/internal/models"
)

// Config holds the additive model parameters. All contributions are in
// percentage points.
type Config struct {
	Base                 float64 // starting probability for any idea
	ScoreCap             float64 // most the score term may add
	ScoreNorm            float64 // |score| at which the score term saturates
	ConfluenceBase       float64 // bonus for the second confirming indicator
	ConfluenceDecay      float64 // geometric decay per further confirmation
	ConfluenceCap        float64 // most the confluence term may add
	ContradictionPenalty float64 // subtracted per contradicting indicator
	MediumRiskPenalty    float64
	HighRiskPenalty      float64
	Floor                float64 // never assert impossibility
	Ceiling              float64 // never assert certainty
}

// DefaultConfig returns the standard estimator parameters.
func DefaultConfig() Config {
	return Config{
		Base:                 50,
		ScoreCap:             20,
		ScoreNorm:            5.0,
		ConfluenceBase:       6.0,
		ConfluenceDecay:      0.75,
		ConfluenceCap:        15,
		ContradictionPenalty: 3.0,
		MediumRiskPenalty:    8,
		HighRiskPenalty:      16,
		Floor:                5,
		Ceiling:              95,
	}
}

// Estimator computes probability estimates from signals and risk metrics.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an estimator with the given configuration.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate combines score strength, indicator confluence and risk level
// into a clamped probability. A NONE signal always comes out at exactly
// the base: no evidence moves the needle on no idea.
func (e *Estimator) Estimate(sig models.Signal, risk models.RiskMetrics) models.ProbabilityEstimate {
	est := models.ProbabilityEstimate{Symbol: sig.Symbol}

	if !sig.Direction.Actionable() {
		est.ProbabilityPct = e.clamp(e.cfg.Base)
		return est
	}

	p := e.cfg.Base
	p += math.Min(math.Abs(sig.Score)/e.cfg.ScoreNorm, 1) * e.cfg.ScoreCap
	p += e.confluenceBonus(sig.Confirming)
	p -= float64(sig.Contradicting) * e.cfg.ContradictionPenalty
	p -= e.riskPenalty(risk.RiskLevel)

	est.ProbabilityPct = e.clamp(p)
	return est
}

// confluenceBonus rewards confirmations beyond the first with a geometric
// series: the second confirming indicator is worth the full base, each
// further one a decayed share, up to the cap. The first confirmation is
// already paid for by the score term.
func (e *Estimator) confluenceBonus(confirming int) float64 {
	if confirming <= 1 {
		return 0
	}
	var bonus, step float64
	step = e.cfg.ConfluenceBase
	for i := 1; i < confirming; i++ {
		bonus += step
		step *= e.cfg.ConfluenceDecay
	}
	return math.Min(bonus, e.cfg.ConfluenceCap)
}

func (e *Estimator) riskPenalty(level models.RiskLevel) float64 {
	switch level {
	case models.RiskMedium:
		return e.cfg.MediumRiskPenalty
	case models.RiskHigh:
		return e.cfg.HighRiskPenalty
	default:
		return 0
	}
}

func (e *Estimator) clamp(p float64) float64 {
	return math.Max(e.cfg.Floor, math.Min(e.cfg.Ceiling, p))
}
