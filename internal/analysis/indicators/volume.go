package indicators

import (
	"fmt"

	"sensex-pulse/internal/models"
)

// VWAP calculates Volume Weighted Average Price over a trailing window,
// or cumulatively over the whole series when the window is 0.
type VWAP struct {
	window int
}

// NewVWAP creates a new VWAP indicator. window 0 means full series.
func NewVWAP(window int) *VWAP {
	return &VWAP{window: window}
}

func (v *VWAP) Name() string {
	if v.window > 0 {
		return fmt.Sprintf("VWAP_%d", v.window)
	}
	return "VWAP"
}

func (v *VWAP) Period() int {
	if v.window > 0 {
		return v.window
	}
	return 1
}

func (v *VWAP) Calculate(candles []models.Candle) ([]float64, error) {
	if v.window < 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) == 0 || (v.window > 0 && len(candles) < v.window) {
		return nil, ErrInsufficientData
	}

	if v.window > 0 {
		candles = candles[len(candles)-v.window:]
	}

	n := len(candles)
	result := make([]float64, n)

	var cumulativeTPV float64 // Cumulative Typical Price * Volume
	var cumulativeVol float64 // Cumulative Volume

	for i := 0; i < n; i++ {
		tp := typicalPrice(candles[i])
		cumulativeTPV += tp * float64(candles[i].Volume)
		cumulativeVol += float64(candles[i].Volume)

		if cumulativeVol != 0 {
			result[i] = cumulativeTPV / cumulativeVol
		}
	}

	// Index series report no traded volume; a zero denominator here is a
	// data property, not a computation failure.
	if cumulativeVol == 0 {
		return nil, ErrNoVolume
	}

	return result, nil
}

// AvgVolume calculates the simple moving average of traded volume.
type AvgVolume struct {
	period int
}

// NewAvgVolume creates a new average-volume indicator.
func NewAvgVolume(period int) *AvgVolume {
	return &AvgVolume{period: period}
}

func (a *AvgVolume) Name() string {
	return fmt.Sprintf("AvgVolume_%d", a.period)
}

func (a *AvgVolume) Period() int {
	return a.period
}

func (a *AvgVolume) Calculate(candles []models.Candle) ([]float64, error) {
	if a.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < a.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(candles))
	vols := volumes(candles)

	for i := a.period - 1; i < len(candles); i++ {
		result[i] = mean(vols[i-a.period+1 : i+1])
	}

	return result, nil
}
