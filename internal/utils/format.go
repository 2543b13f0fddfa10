package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatHMS renders a second count like "1h 20m 5s", skipping zero hour
// and minute parts. Seconds are always shown so the countdown never
// looks frozen.
func FormatHMS(seconds int) string {
	h := seconds / 3600
	remainder := seconds % 3600
	m := remainder / 60
	s := remainder % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", s))
	return strings.Join(parts, " ")
}

// FormatAmount renders a DUSK amount truncated to at most places decimal
// digits, without rounding up.
func FormatAmount(v decimal.Decimal, places int32) string {
	return v.Truncate(places).String()
}

// FormatUSD renders a dollar value with thousand separators and two
// decimal digits.
func FormatUSD(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

// FormatCompactUSD renders large dollar values like market cap and volume
// with an SI suffix.
func FormatCompactUSD(v float64) string {
	return "$" + humanize.SIWithDigits(v, 2, "")
}
