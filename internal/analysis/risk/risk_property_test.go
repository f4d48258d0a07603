package risk

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"sensex-pulse/internal/models"
)

func closesGen(minLen, maxLen int) gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(minLen, maxLen),
		gen.SliceOfN(maxLen, gen.Float64Range(10, 5000)),
	).Map(func(vals []interface{}) []float64 {
		n := vals[0].(int)
		return vals[1].([]float64)[:n]
	})
}

func seriesOf(closes []float64) models.PriceSeries {
	candles := make([]models.Candle, len(closes))
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return models.PriceSeries{Symbol: "PROP.NS", Candles: candles}
}

func TestProperty_EnvelopeInequalities(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	engine := NewEngine(DefaultConfig())

	properties.Property("BUY stop below close below target, reward beats risk", prop.ForAll(
		func(closes []float64) bool {
			m, err := engine.Assess(seriesOf(closes), models.DirectionBuy)
			if err != nil {
				return false
			}
			last := closes[len(closes)-1]
			risk := last - m.StopLoss
			reward := m.TargetPrice - last
			return m.StopLoss < last &&
				m.TargetPrice > last &&
				reward > risk &&
				m.EntryZoneLow < last && last < m.EntryZoneHigh
		},
		closesGen(25, 120),
	))

	properties.Property("SELL mirrors the BUY envelope", prop.ForAll(
		func(closes []float64) bool {
			m, err := engine.Assess(seriesOf(closes), models.DirectionSell)
			if err != nil {
				return false
			}
			last := closes[len(closes)-1]
			risk := m.StopLoss - last
			reward := last - m.TargetPrice
			return m.StopLoss > last &&
				m.TargetPrice < last &&
				reward > risk
		},
		closesGen(25, 120),
	))

	properties.Property("volatility, drawdown and stability are non-negative and bounded", prop.ForAll(
		func(closes []float64) bool {
			m, err := engine.Assess(seriesOf(closes), models.DirectionBuy)
			if err != nil {
				return false
			}
			return m.DailyVolatility >= 0 &&
				m.AnnualVolatility >= m.DailyVolatility &&
				m.MaxDrawdownPct >= 0 && m.MaxDrawdownPct < 100 &&
				m.TrendStability >= 0 && m.TrendStability <= 1
		},
		closesGen(25, 120),
	))

	properties.TestingRun(t)
}

func TestProperty_RiskLevelMonotonicInVolatility(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	engine := NewEngine(DefaultConfig())

	properties.Property("higher volatility never lowers the bucket, drawdown held fixed", prop.ForAll(
		func(volA, volB, drawdown, stability float64) bool {
			lo, hi := volA, volB
			if lo > hi {
				lo, hi = hi, lo
			}
			rankLo := engine.classify(lo, drawdown, stability).Rank()
			rankHi := engine.classify(hi, drawdown, stability).Rank()
			return rankLo <= rankHi
		},
		gen.Float64Range(0, 2),
		gen.Float64Range(0, 2),
		gen.Float64Range(0, 0.9),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
