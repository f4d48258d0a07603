package indicators

import "strconv"

// ValueState tags an indicator value as defined, undefined (not enough
// history) or not applicable (the quantity has no meaning for the series,
// e.g. VWAP on an index with no traded volume).
type ValueState uint8

const (
	StateUndefined ValueState = iota
	StateDefined
	StateNotApplicable
)

// Value is a tagged optional indicator value. Zero is a legitimate
// indicator reading (a MACD histogram crosses through it), so absence is
// carried in the tag, never in the number. The zero Value is undefined.
type Value struct {
	val   float64
	state ValueState
}

// DefinedValue wraps a computed indicator reading.
func DefinedValue(v float64) Value {
	return Value{val: v, state: StateDefined}
}

// UndefinedValue marks an indicator whose minimum history is unavailable.
func UndefinedValue() Value {
	return Value{}
}

// NotApplicableValue marks an indicator that has no meaning for the series.
func NotApplicableValue() Value {
	return Value{state: StateNotApplicable}
}

// State returns the tag.
func (v Value) State() ValueState {
	return v.state
}

// Defined reports whether the value carries a usable reading.
func (v Value) Defined() bool {
	return v.state == StateDefined
}

// Get returns the reading and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.val, v.state == StateDefined
}

// Or returns the reading, or fallback when it is not defined.
func (v Value) Or(fallback float64) float64 {
	if v.state == StateDefined {
		return v.val
	}
	return fallback
}

func (v Value) String() string {
	switch v.state {
	case StateDefined:
		return strconv.FormatFloat(v.val, 'f', -1, 64)
	case StateNotApplicable:
		return "n/a"
	default:
		return "undefined"
	}
}

// Set is the per-symbol indicator snapshot consumed by signal scoring.
// Every field is derived strictly from candles at or before the
// evaluation date and recomputed fresh on every run.
type Set struct {
	Symbol string

	RSI14       Value
	SMA20       Value
	SMA50       Value
	SMA200      Value
	EMA20       Value
	VWAP        Value
	MACD        Value
	MACDSignal  Value
	MACDHist    Value
	AvgVolume20 Value

	// Derived helpers, excluded from the evidence count.
	MACDHistPrev Value
	PrevClose    Value
	Return5D     Value

	LastClose     float64
	CurrentVolume int64
}

// Core returns the ten indicator values that count as evidence for the
// insufficient-data policy.
func (s Set) Core() []Value {
	return []Value{
		s.RSI14,
		s.SMA20, s.SMA50, s.SMA200,
		s.EMA20,
		s.VWAP,
		s.MACD, s.MACDSignal, s.MACDHist,
		s.AvgVolume20,
	}
}

// UndefinedCount returns how many core indicators carry no usable reading.
func (s Set) UndefinedCount() int {
	n := 0
	for _, v := range s.Core() {
		if !v.Defined() {
			n++
		}
	}
	return n
}
