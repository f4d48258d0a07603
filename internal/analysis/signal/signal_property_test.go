package signal

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"sensex-pulse/internal/analysis/indicators"
	"sensex-pulse/internal/models"
)

// sparseSetGen produces indicator sets where at most half of the core
// readings are defined, with arbitrary values behind them.
func sparseSetGen() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 5),
		gen.SliceOfN(10, gen.Float64Range(0.01, 500)),
		gen.Float64Range(1, 5000),
		gen.Int64Range(0, 10_000_000),
	).Map(func(vals []interface{}) indicators.Set {
		defined := vals[0].(int)
		readings := vals[1].([]float64)

		slots := make([]indicators.Value, 10)
		for i := range slots {
			if i < defined {
				slots[i] = indicators.DefinedValue(readings[i])
			} else {
				slots[i] = indicators.UndefinedValue()
			}
		}

		return indicators.Set{
			Symbol:        "PROP.NS",
			RSI14:         slots[0],
			SMA20:         slots[1],
			SMA50:         slots[2],
			SMA200:        slots[3],
			EMA20:         slots[4],
			VWAP:          slots[5],
			MACD:          slots[6],
			MACDSignal:    slots[7],
			MACDHist:      slots[8],
			AvgVolume20:   slots[9],
			MACDHistPrev:  indicators.DefinedValue(readings[8] - 1),
			Return5D:      indicators.DefinedValue(readings[0] - 100),
			LastClose:     vals[2].(float64),
			CurrentVolume: vals[3].(int64),
		}
	})
}

func denseSetGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 100),
		gen.SliceOfN(9, gen.Float64Range(0.01, 500)),
		gen.Float64Range(-10, 10),
		gen.Int64Range(0, 10_000_000),
	).Map(func(vals []interface{}) indicators.Set {
		rsi := vals[0].(float64)
		readings := vals[1].([]float64)

		return indicators.Set{
			Symbol:        "PROP.NS",
			RSI14:         indicators.DefinedValue(rsi),
			SMA20:         indicators.DefinedValue(readings[0]),
			SMA50:         indicators.DefinedValue(readings[1]),
			SMA200:        indicators.DefinedValue(readings[2]),
			EMA20:         indicators.DefinedValue(readings[3]),
			VWAP:          indicators.DefinedValue(readings[4]),
			MACD:          indicators.DefinedValue(readings[5]),
			MACDSignal:    indicators.DefinedValue(readings[6]),
			MACDHist:      indicators.DefinedValue(readings[7]),
			AvgVolume20:   indicators.DefinedValue(readings[8]),
			MACDHistPrev:  indicators.DefinedValue(readings[7] - 0.5),
			PrevClose:     indicators.DefinedValue(readings[0]),
			Return5D:      indicators.DefinedValue(vals[2].(float64)),
			LastClose:     readings[0] + 1,
			CurrentVolume: vals[3].(int64),
		}
	})
}

func TestProperty_SparseEvidenceForcesNone(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	g := NewGenerator(DefaultConfig())

	properties.Property("direction is NONE whenever half the indicators are missing", prop.ForAll(
		func(ind indicators.Set) bool {
			return g.Generate(ind).Direction == models.DirectionNone
		},
		sparseSetGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_GenerateDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	g := NewGenerator(DefaultConfig())

	properties.Property("same readings always yield the same signal", prop.ForAll(
		func(ind indicators.Set) bool {
			first := g.Generate(ind)
			second := g.Generate(ind)
			return reflect.DeepEqual(first, second)
		},
		denseSetGen(),
	))

	properties.Property("direction always agrees with thresholds", prop.ForAll(
		func(ind indicators.Set) bool {
			sig := g.Generate(ind)
			cfg := DefaultConfig()
			switch sig.Direction {
			case models.DirectionBuy:
				return sig.Score >= cfg.BuyThreshold
			case models.DirectionSell:
				return sig.Score <= cfg.SellThreshold
			default:
				return sig.Score < cfg.BuyThreshold && sig.Score > cfg.SellThreshold
			}
		},
		denseSetGen(),
	))

	properties.TestingRun(t)
}
