package market

import (
	"fmt"
	"math"
)

// FormatUSD renders a dollar amount, keeping extra precision for
// sub-cent token prices.
func FormatUSD(amount float64) string {
	if amount != 0 && math.Abs(amount) < 0.01 {
		return fmt.Sprintf("$%.8f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatPercent renders a signed percentage change.
func FormatPercent(value float64) string {
	if math.IsNaN(value) {
		return "0.00%"
	}
	if value >= 0 {
		return fmt.Sprintf("+%.2f%%", value)
	}
	return fmt.Sprintf("%.2f%%", value)
}

// FormatCompact abbreviates large numbers: 1.5K, 2.30M, 1.20B.
func FormatCompact(n float64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	default:
		return fmt.Sprintf("%.2f", n)
	}
}

// FormatTVL renders total value locked as compact dollars.
func FormatTVL(tvl float64) string {
	return "$" + FormatCompact(tvl)
}

// FormatHealthFactor renders a position health factor; no debt shows as inf.
func FormatHealthFactor(hf float64) string {
	if math.IsInf(hf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", hf)
}
