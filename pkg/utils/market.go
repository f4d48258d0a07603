package utils

import "time"

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// IsTradingDay reports whether t falls on an NSE/BSE trading weekday.
// Exchange holidays are not tracked; a holiday run simply sees no new bar.
func IsTradingDay(t time.Time) bool {
	wd := t.In(IndiaLocation).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// MarketClose returns the regular session close (15:30 IST) on the day of t.
func MarketClose(t time.Time) time.Time {
	ist := t.In(IndiaLocation)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 15, 30, 0, 0, IndiaLocation)
}

// IsAfterClose reports whether t is past the regular session close of its day.
func IsAfterClose(t time.Time) bool {
	return t.After(MarketClose(t))
}

// PreviousTradingDay returns the most recent trading day strictly before
// the day of t, at midnight IST.
func PreviousTradingDay(t time.Time) time.Time {
	ist := t.In(IndiaLocation)
	d := time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IndiaLocation)
	d = d.AddDate(0, 0, -1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// LastCompletedSession returns the trading day an end-of-day report
// generated at t should cover: t's own day once the session has closed,
// otherwise the previous trading day.
func LastCompletedSession(t time.Time) time.Time {
	ist := t.In(IndiaLocation)
	if IsTradingDay(ist) && IsAfterClose(ist) {
		return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IndiaLocation)
	}
	return PreviousTradingDay(ist)
}
