// Package indicators provides technical indicator calculations and the
// per-symbol indicator snapshot used by signal scoring.
package indicators

import (
	"errors"

	"sensex-pulse/internal/models"
)

// Canonical periods fixed by the Set contract.
const (
	rsiPeriod       = 14
	smaShortPeriod  = 20
	smaMidPeriod    = 50
	smaLongPeriod   = 200
	emaPeriod       = 20
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	macdSignalSpan  = 9
	avgVolumePeriod = 20
	returnSpan      = 5
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

// MultiValueIndicator defines the interface for indicators that return
// multiple named series.
type MultiValueIndicator interface {
	Name() string
	Calculate(candles []models.Candle) (map[string][]float64, error)
	Period() int
}

// Options tunes calculation details that do not change the Set contract.
type Options struct {
	// VWAPWindow restricts VWAP to the trailing n sessions; 0 uses the
	// full series.
	VWAPWindow int
}

// Engine computes the indicator Set for one symbol. It is stateless
// across calls and safe for concurrent use.
type Engine struct {
	rsi    *RSI
	sma20  *SMA
	sma50  *SMA
	sma200 *SMA
	ema20  *EMA
	macd   *MACD
	vwap   *VWAP
	avgVol *AvgVolume
	roc5   *ROC
}

// NewEngine creates an indicator engine with the canonical periods.
func NewEngine(opts Options) *Engine {
	return &Engine{
		rsi:    NewRSI(rsiPeriod),
		sma20:  NewSMA(smaShortPeriod),
		sma50:  NewSMA(smaMidPeriod),
		sma200: NewSMA(smaLongPeriod),
		ema20:  NewEMA(emaPeriod),
		macd:   NewMACD(macdFastPeriod, macdSlowPeriod, macdSignalSpan),
		vwap:   NewVWAP(opts.VWAPWindow),
		avgVol: NewAvgVolume(avgVolumePeriod),
		roc5:   NewROC(returnSpan),
	}
}

// Compute derives the indicator Set from a price series. It never fails:
// an indicator whose minimum history is unavailable comes back undefined,
// and a volume-weighted indicator on a volume-less series comes back not
// applicable. The input series is not mutated.
func (e *Engine) Compute(series models.PriceSeries) Set {
	candles := series.Candles
	set := Set{Symbol: series.Symbol}
	if len(candles) == 0 {
		return set
	}

	last := len(candles) - 1
	set.LastClose = candles[last].Close
	set.CurrentVolume = candles[last].Volume

	set.RSI14 = lastOf(e.rsi, candles)
	set.SMA20 = lastOf(e.sma20, candles)
	set.SMA50 = lastOf(e.sma50, candles)
	set.SMA200 = lastOf(e.sma200, candles)
	set.EMA20 = lastOf(e.ema20, candles)
	set.AvgVolume20 = lastOf(e.avgVol, candles)
	set.Return5D = lastOf(e.roc5, candles)
	set.VWAP = vwapOf(e.vwap, candles)

	set.MACD, set.MACDSignal, set.MACDHist = e.macdValues(candles)
	_, _, set.MACDHistPrev = e.macdValues(candles[:last])

	if last >= 1 {
		set.PrevClose = DefinedValue(candles[last-1].Close)
	}

	return set
}

// macdValues returns the latest MACD line, signal and histogram. The line
// alone needs less history than the trio, so it can be defined while the
// signal and histogram are still undefined.
func (e *Engine) macdValues(candles []models.Candle) (line, signal, hist Value) {
	line, signal, hist = UndefinedValue(), UndefinedValue(), UndefinedValue()
	if len(candles) == 0 {
		return line, signal, hist
	}

	last := len(candles) - 1
	if m, err := e.macd.Calculate(candles); err == nil {
		return DefinedValue(m["macd"][last]),
			DefinedValue(m["signal"][last]),
			DefinedValue(m["histogram"][last])
	}

	if values, err := e.macd.CalculateLine(candles); err == nil {
		line = DefinedValue(values[last])
	}
	return line, signal, hist
}

// lastOf runs an indicator and wraps its latest value, mapping any
// calculation failure to the undefined sentinel.
func lastOf(ind Indicator, candles []models.Candle) Value {
	values, err := ind.Calculate(candles)
	if err != nil || len(values) == 0 {
		return UndefinedValue()
	}
	return DefinedValue(values[len(values)-1])
}

func vwapOf(v *VWAP, candles []models.Candle) Value {
	values, err := v.Calculate(candles)
	switch {
	case errors.Is(err, ErrNoVolume):
		return NotApplicableValue()
	case err != nil, len(values) == 0:
		return UndefinedValue()
	}
	return DefinedValue(values[len(values)-1])
}
