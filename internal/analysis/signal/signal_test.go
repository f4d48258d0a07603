package signal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensex-pulse/internal/analysis/indicators"
	"sensex-pulse/internal/models"
)

// calmSet returns a set where every rule abstains. VWAP is marked not
// applicable because any defined VWAP either stretches or confirms.
func calmSet() indicators.Set {
	return indicators.Set{
		Symbol:        "TEST.NS",
		RSI14:         indicators.DefinedValue(50),
		SMA20:         indicators.DefinedValue(100),
		SMA50:         indicators.DefinedValue(100),
		SMA200:        indicators.DefinedValue(100),
		EMA20:         indicators.DefinedValue(100),
		VWAP:          indicators.NotApplicableValue(),
		MACD:          indicators.DefinedValue(0),
		MACDSignal:    indicators.DefinedValue(0),
		MACDHist:      indicators.DefinedValue(0),
		AvgVolume20:   indicators.DefinedValue(1000),
		MACDHistPrev:  indicators.DefinedValue(0),
		PrevClose:     indicators.DefinedValue(100),
		Return5D:      indicators.DefinedValue(0),
		LastClose:     100,
		CurrentVolume: 1000,
	}
}

func TestRuleTrendAlignment(t *testing.T) {
	p := DefaultConfig().Params

	tests := []struct {
		name   string
		close  float64
		sma50  indicators.Value
		sma200 indicators.Value
		want   Vote
	}{
		{"aligned up", 110, indicators.DefinedValue(105), indicators.DefinedValue(100), Bullish},
		{"aligned down", 90, indicators.DefinedValue(95), indicators.DefinedValue(100), Bearish},
		{"crossed averages", 110, indicators.DefinedValue(100), indicators.DefinedValue(105), Abstain},
		{"equal stack", 100, indicators.DefinedValue(100), indicators.DefinedValue(100), Abstain},
		{"sma50 undefined", 110, indicators.UndefinedValue(), indicators.DefinedValue(100), Abstain},
		{"sma200 undefined", 110, indicators.DefinedValue(105), indicators.UndefinedValue(), Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := calmSet()
			ind.LastClose = tt.close
			ind.SMA50 = tt.sma50
			ind.SMA200 = tt.sma200
			vote, reason := trendAlignment(ind, p)
			assert.Equal(t, tt.want, vote)
			assert.Equal(t, vote != Abstain, reason != "")
		})
	}
}

func TestRuleRSIExtreme(t *testing.T) {
	p := DefaultConfig().Params

	tests := []struct {
		name string
		rsi  indicators.Value
		want Vote
	}{
		{"oversold", indicators.DefinedValue(25), Bullish},
		{"overbought", indicators.DefinedValue(75), Bearish},
		{"neutral band", indicators.DefinedValue(50), Abstain},
		{"between oversold and neutral", indicators.DefinedValue(38), Abstain},
		{"between neutral and overbought", indicators.DefinedValue(62), Abstain},
		{"exactly at oversold", indicators.DefinedValue(30), Abstain},
		{"exactly at overbought", indicators.DefinedValue(70), Abstain},
		{"undefined", indicators.UndefinedValue(), Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := calmSet()
			ind.RSI14 = tt.rsi
			vote, _ := rsiExtreme(ind, p)
			assert.Equal(t, tt.want, vote)
		})
	}
}

func TestRuleMACDFlip(t *testing.T) {
	p := DefaultConfig().Params

	tests := []struct {
		name string
		hist indicators.Value
		prev indicators.Value
		want Vote
	}{
		{"flip positive", indicators.DefinedValue(0.4), indicators.DefinedValue(-0.2), Bullish},
		{"flip negative", indicators.DefinedValue(-0.4), indicators.DefinedValue(0.2), Bearish},
		{"still positive", indicators.DefinedValue(0.4), indicators.DefinedValue(0.2), Abstain},
		{"still negative", indicators.DefinedValue(-0.4), indicators.DefinedValue(-0.2), Abstain},
		{"landed exactly on zero", indicators.DefinedValue(0), indicators.DefinedValue(-0.2), Abstain},
		{"previous undefined", indicators.DefinedValue(0.4), indicators.UndefinedValue(), Abstain},
		{"current undefined", indicators.UndefinedValue(), indicators.DefinedValue(-0.2), Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := calmSet()
			ind.MACDHist = tt.hist
			ind.MACDHistPrev = tt.prev
			vote, _ := macdFlip(ind, p)
			assert.Equal(t, tt.want, vote)
		})
	}
}

func TestRuleMomentum5D(t *testing.T) {
	p := DefaultConfig().Params

	tests := []struct {
		name string
		ret  indicators.Value
		want Vote
	}{
		{"strong positive", indicators.DefinedValue(4.2), Bullish},
		{"exactly at threshold", indicators.DefinedValue(3.0), Bullish},
		{"strong negative", indicators.DefinedValue(-3.5), Bearish},
		{"small move", indicators.DefinedValue(1.0), Abstain},
		{"undefined", indicators.UndefinedValue(), Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := calmSet()
			ind.Return5D = tt.ret
			vote, _ := momentum5D(ind, p)
			assert.Equal(t, tt.want, vote)
		})
	}
}

func TestRuleVWAPStretch(t *testing.T) {
	p := DefaultConfig().Params

	tests := []struct {
		name  string
		close float64
		vwap  indicators.Value
		want  Vote
	}{
		{"far above", 110, indicators.DefinedValue(100), Bearish},
		{"far below", 90, indicators.DefinedValue(100), Bullish},
		{"within band", 100.5, indicators.DefinedValue(100), Abstain},
		{"not applicable", 110, indicators.NotApplicableValue(), Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := calmSet()
			ind.LastClose = tt.close
			ind.VWAP = tt.vwap
			vote, _ := vwapStretch(ind, p)
			assert.Equal(t, tt.want, vote)
		})
	}
}

func TestRuleVolumeSurge(t *testing.T) {
	p := DefaultConfig().Params

	ind := calmSet()
	ind.CurrentVolume = 2000
	vote, reason := volumeSurge(ind, p)
	assert.Equal(t, Bullish, vote)
	assert.Contains(t, reason, "2.0x")

	ind.CurrentVolume = 1200
	vote, _ = volumeSurge(ind, p)
	assert.Equal(t, Abstain, vote)

	ind.AvgVolume20 = indicators.UndefinedValue()
	ind.CurrentVolume = 2000
	vote, _ = volumeSurge(ind, p)
	assert.Equal(t, Abstain, vote)
}

func TestRuleVWAPConfirm(t *testing.T) {
	p := DefaultConfig().Params

	ind := calmSet()
	ind.VWAP = indicators.DefinedValue(100.2)
	vote, _ := vwapConfirm(ind, p)
	assert.Equal(t, Bullish, vote)

	ind.VWAP = indicators.DefinedValue(120)
	vote, _ = vwapConfirm(ind, p)
	assert.Equal(t, Abstain, vote)
}

func TestRulesOrderedBySignificance(t *testing.T) {
	rules := Rules(DefaultConfig().Weights)
	require.Len(t, rules, 7)
	assert.Equal(t, "trend_alignment", rules[0].Name)

	split := len(rules)
	for i, r := range rules {
		if r.Amplifier {
			split = i
			break
		}
	}
	votes, amps := rules[:split], rules[split:]

	require.NotEmpty(t, amps)
	for _, r := range amps {
		assert.Truef(t, r.Amplifier, "vote rule %q sorted after an amplifier", r.Name)
	}
	for i := 1; i < len(votes); i++ {
		assert.GreaterOrEqual(t, votes[i-1].Weight, votes[i].Weight)
	}
	for i := 1; i < len(amps); i++ {
		assert.GreaterOrEqual(t, amps[i-1].Weight, amps[i].Weight)
	}
}

func TestRulesZeroWeightDisables(t *testing.T) {
	rules := Rules(Weights{TrendAlignment: 2.0, Momentum5D: 1.0})

	require.Len(t, rules, 2)
	assert.Equal(t, "trend_alignment", rules[0].Name)
	assert.Equal(t, "momentum_5d", rules[1].Name)
}

func TestGenerateNeutral(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	sig := gen.Generate(calmSet())

	assert.Equal(t, models.DirectionNone, sig.Direction)
	assert.Equal(t, 0.0, sig.Score)
	assert.Empty(t, sig.Reasons)
	assert.Equal(t, 0, sig.Confirming)
	assert.Equal(t, 0, sig.Contradicting)
}

func TestGenerateBullishConfluence(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	ind := calmSet()
	ind.LastClose = 110
	ind.SMA50 = indicators.DefinedValue(105)
	ind.SMA200 = indicators.DefinedValue(100)
	ind.RSI14 = indicators.DefinedValue(25)
	ind.MACDHist = indicators.DefinedValue(0.5)
	ind.MACDHistPrev = indicators.DefinedValue(-0.5)
	ind.Return5D = indicators.DefinedValue(4.0)
	ind.VWAP = indicators.DefinedValue(100) // 10% above: bearish stretch
	ind.CurrentVolume = 2000                // 2x average: amplifier

	sig := gen.Generate(ind)

	// 2 + 1.5 + 1.5 + 1 - 1 = 5, then volume surge pushes to 6.
	assert.Equal(t, models.DirectionBuy, sig.Direction)
	assert.InDelta(t, 6.0, sig.Score, 1e-9)
	assert.Equal(t, 4, sig.Confirming)
	assert.Equal(t, 1, sig.Contradicting)

	require.Len(t, sig.Reasons, 6)
	assert.Contains(t, sig.Reasons[0], "trend aligned up")
	assert.Contains(t, sig.Reasons[len(sig.Reasons)-1], "volume")
}

func TestGenerateBearish(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	ind := calmSet()
	ind.LastClose = 90
	ind.SMA50 = indicators.DefinedValue(95)
	ind.SMA200 = indicators.DefinedValue(100)
	ind.RSI14 = indicators.DefinedValue(78)
	ind.CurrentVolume = 2000

	sig := gen.Generate(ind)

	// -2 - 1.5 = -3.5, volume surge amplifies to -4.5.
	assert.Equal(t, models.DirectionSell, sig.Direction)
	assert.InDelta(t, -4.5, sig.Score, 1e-9)
	assert.Equal(t, 2, sig.Confirming)
	assert.Equal(t, 0, sig.Contradicting)
}

func TestGenerateThresholdBoundaries(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	// trend alignment (+2.0) plus vwap confirm (+0.5) lands exactly on
	// the buy threshold.
	ind := calmSet()
	ind.LastClose = 102
	ind.SMA50 = indicators.DefinedValue(101)
	ind.SMA200 = indicators.DefinedValue(100)
	ind.VWAP = indicators.DefinedValue(102)

	sig := gen.Generate(ind)
	assert.InDelta(t, 2.5, sig.Score, 1e-9)
	assert.Equal(t, models.DirectionBuy, sig.Direction)

	// Just under the threshold stays NONE.
	ind.VWAP = indicators.UndefinedValue()
	sig = gen.Generate(ind)
	assert.InDelta(t, 2.0, sig.Score, 1e-9)
	assert.Equal(t, models.DirectionNone, sig.Direction)
}

func TestGenerateAmplifierNeedsPrevailingScore(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	ind := calmSet()
	ind.CurrentVolume = 5000 // surge condition met, but nothing to amplify

	sig := gen.Generate(ind)
	assert.Equal(t, 0.0, sig.Score)
	assert.Empty(t, sig.Reasons)
	assert.Equal(t, models.DirectionNone, sig.Direction)
}

func TestGenerateInsufficientEvidence(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	// Exactly half the core indicators defined, and the defined half is
	// loudly bullish. The verdict must still be NONE.
	ind := indicators.Set{
		Symbol:        "SPARSE.NS",
		RSI14:         indicators.DefinedValue(25),
		SMA50:         indicators.DefinedValue(105),
		SMA200:        indicators.DefinedValue(100),
		MACD:          indicators.DefinedValue(1.2),
		MACDHist:      indicators.DefinedValue(0.5),
		MACDHistPrev:  indicators.DefinedValue(-0.5),
		LastClose:     110,
		CurrentVolume: 1000,
	}

	sig := gen.Generate(ind)

	assert.Equal(t, models.DirectionNone, sig.Direction)
	assert.Greater(t, sig.Score, DefaultConfig().BuyThreshold)
	require.NotEmpty(t, sig.Reasons)
	assert.Equal(t, "insufficient data: only 5 of 10 indicators available", sig.Reasons[0])
}

func TestGenerateSparseSeriesReason(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	// A five-bar series leaves only VWAP defined.
	ind := indicators.Set{
		Symbol:        "NEW.NS",
		VWAP:          indicators.DefinedValue(104),
		PrevClose:     indicators.DefinedValue(103),
		LastClose:     104,
		CurrentVolume: 1000,
	}

	sig := gen.Generate(ind)

	assert.Equal(t, models.DirectionNone, sig.Direction)
	require.NotEmpty(t, sig.Reasons)
	assert.True(t, strings.HasPrefix(sig.Reasons[0], "insufficient data"))
}
