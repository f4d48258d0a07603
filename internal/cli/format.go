package cli

import (
	"time"

	"sensex-pulse/pkg/utils"
)

// FormatIndianCurrency renders an amount in rupees with Indian digit
// grouping, e.g. ₹12,34,567.89.
func FormatIndianCurrency(amount float64) string {
	if amount < 0 {
		return "-₹" + utils.FormatPrice(-amount)
	}
	return "₹" + utils.FormatPrice(amount)
}

// FormatDate renders a date in IST.
func FormatDate(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("02-Jan-2006")
}

// FormatDateTime renders a timestamp in IST.
func FormatDateTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("02-Jan-2006 15:04:05")
}

// TruncateString clips s to maxLen runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
