package signal

import (
	"fmt"
	"math"
	"sort"

	"sensex-pulse/internal/analysis/indicators"
)

// Vote is a rule's directional verdict. Abstain means the rule saw
// nothing, including the case where its inputs are undefined.
type Vote int

const (
	Bearish Vote = -1
	Abstain Vote = 0
	Bullish Vote = 1
)

// Params holds the tunable thresholds rules read. All of them are
// heuristics carried over as defaults, not empirically validated truths.
type Params struct {
	RSIOversold      float64
	RSIOverbought    float64
	RSINeutralLow    float64
	RSINeutralHigh   float64
	VolumeSurgeRatio float64
	VWAPBandPct      float64
	Momentum5DPct    float64
}

// Weights assigns a magnitude to every rule in the table. Magnitudes are
// non-negative; the direction comes from the rule's vote.
type Weights struct {
	TrendAlignment float64
	RSIExtreme     float64
	MACDFlip       float64
	Momentum5D     float64
	VWAPStretch    float64
	VolumeSurge    float64
	VWAPConfirm    float64
}

// Rule is one row of the scoring table. Vote rules contribute
// vote × weight to the score independently of each other. Amplifier
// rules run after every vote rule and push the running score further in
// its prevailing direction; on a zero score they do nothing.
type Rule struct {
	Name      string
	Weight    float64
	Amplifier bool
	Evaluate  func(ind indicators.Set, p Params) (Vote, string)
}

// Rules builds the scoring table, ordered most significant first: vote
// rules by descending weight, then amplifiers by descending weight.
// Reasons collected in table order therefore come out ordered by
// significance. A zero weight disables its rule entirely.
func Rules(w Weights) []Rule {
	all := []Rule{
		{Name: "trend_alignment", Weight: w.TrendAlignment, Evaluate: trendAlignment},
		{Name: "rsi_extreme", Weight: w.RSIExtreme, Evaluate: rsiExtreme},
		{Name: "macd_flip", Weight: w.MACDFlip, Evaluate: macdFlip},
		{Name: "momentum_5d", Weight: w.Momentum5D, Evaluate: momentum5D},
		{Name: "vwap_stretch", Weight: w.VWAPStretch, Evaluate: vwapStretch},
		{Name: "volume_surge", Weight: w.VolumeSurge, Amplifier: true, Evaluate: volumeSurge},
		{Name: "vwap_confirm", Weight: w.VWAPConfirm, Amplifier: true, Evaluate: vwapConfirm},
	}

	rules := make([]Rule, 0, len(all))
	for _, r := range all {
		if r.Weight > 0 {
			rules = append(rules, r)
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Amplifier != rules[j].Amplifier {
			return !rules[i].Amplifier
		}
		return rules[i].Weight > rules[j].Weight
	})

	return rules
}

func trendAlignment(ind indicators.Set, _ Params) (Vote, string) {
	sma50, ok := ind.SMA50.Get()
	if !ok {
		return Abstain, ""
	}
	sma200, ok := ind.SMA200.Get()
	if !ok {
		return Abstain, ""
	}

	switch {
	case ind.LastClose > sma50 && sma50 > sma200:
		return Bullish, "trend aligned up: close above SMA50 above SMA200"
	case ind.LastClose < sma50 && sma50 < sma200:
		return Bearish, "trend aligned down: close below SMA50 below SMA200"
	}
	return Abstain, ""
}

func rsiExtreme(ind indicators.Set, p Params) (Vote, string) {
	rsi, ok := ind.RSI14.Get()
	if !ok {
		return Abstain, ""
	}

	switch {
	case rsi < p.RSIOversold:
		return Bullish, fmt.Sprintf("RSI %.1f oversold (below %.0f)", rsi, p.RSIOversold)
	case rsi > p.RSIOverbought:
		return Bearish, fmt.Sprintf("RSI %.1f overbought (above %.0f)", rsi, p.RSIOverbought)
	}
	// Values inside [neutral low, neutral high] are explicitly neutral;
	// everything else between the extremes carries no vote either.
	return Abstain, ""
}

func macdFlip(ind indicators.Set, _ Params) (Vote, string) {
	hist, ok := ind.MACDHist.Get()
	if !ok {
		return Abstain, ""
	}
	prev, ok := ind.MACDHistPrev.Get()
	if !ok {
		return Abstain, ""
	}

	switch {
	case prev < 0 && hist > 0:
		return Bullish, "MACD histogram flipped positive"
	case prev > 0 && hist < 0:
		return Bearish, "MACD histogram flipped negative"
	}
	return Abstain, ""
}

func momentum5D(ind indicators.Set, p Params) (Vote, string) {
	ret, ok := ind.Return5D.Get()
	if !ok {
		return Abstain, ""
	}

	switch {
	case ret >= p.Momentum5DPct:
		return Bullish, fmt.Sprintf("5-session return %+.1f%%", ret)
	case ret <= -p.Momentum5DPct:
		return Bearish, fmt.Sprintf("5-session return %+.1f%%", ret)
	}
	return Abstain, ""
}

func vwapStretch(ind indicators.Set, p Params) (Vote, string) {
	vwap, ok := ind.VWAP.Get()
	if !ok || vwap == 0 {
		return Abstain, ""
	}

	stretch := (ind.LastClose - vwap) / vwap
	switch {
	case stretch > p.VWAPBandPct:
		return Bearish, fmt.Sprintf("close %.1f%% above VWAP, reversion bias", 100*stretch)
	case stretch < -p.VWAPBandPct:
		return Bullish, fmt.Sprintf("close %.1f%% below VWAP, reversion bias", 100*-stretch)
	}
	return Abstain, ""
}

// volumeSurge is an amplifier: a Bullish return means the condition is
// met, the generator applies it in the direction of the prevailing score.
func volumeSurge(ind indicators.Set, p Params) (Vote, string) {
	avg, ok := ind.AvgVolume20.Get()
	if !ok || avg <= 0 {
		return Abstain, ""
	}

	ratio := float64(ind.CurrentVolume) / avg
	if ratio > p.VolumeSurgeRatio {
		return Bullish, fmt.Sprintf("volume %.1fx its 20-session average confirms the move", ratio)
	}
	return Abstain, ""
}

// vwapConfirm is an amplifier: close hugging VWAP means mean-reversion
// risk is low for whichever way the score already points.
func vwapConfirm(ind indicators.Set, p Params) (Vote, string) {
	vwap, ok := ind.VWAP.Get()
	if !ok || vwap == 0 {
		return Abstain, ""
	}

	if math.Abs(ind.LastClose-vwap)/vwap <= p.VWAPBandPct {
		return Bullish, fmt.Sprintf("close within %.1f%% of VWAP, low mean-reversion risk", 100*p.VWAPBandPct)
	}
	return Abstain, ""
}
