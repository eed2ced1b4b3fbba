package market

import (
	"math"
	"strconv"
	"strings"
)

// FormatUSD renders a decimal price string with magnitude-bracketed
// precision and never in scientific notation. Many tokens trade at prices
// far below a cent, so fixed two-decimal formatting would show $0.00.
func FormatUSD(price string) string {
	v, err := strconv.ParseFloat(price, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	return "$" + formatDecimal(v, usdDecimals(math.Abs(v)))
}

func usdDecimals(abs float64) int {
	switch {
	case abs >= 1:
		return 2
	case abs >= 0.01:
		return 4
	case abs >= 0.00001:
		return 6
	case abs >= 0.00000001:
		return 8
	default:
		return 10
	}
}

// FormatSOL renders a SOL amount with up to four decimals, trailing zeros
// trimmed past the second decimal.
func FormatSOL(v float64) string {
	s := formatDecimal(v, 4)
	return trimTrailing(s, 2) + " SOL"
}

// FormatTokenAmount renders a token quantity: whole numbers for large
// amounts, two decimals otherwise, with thousands separators.
func FormatTokenAmount(v float64) string {
	abs := math.Abs(v)
	var s string
	if abs >= 1000 {
		s = formatDecimal(v, 0)
	} else {
		s = formatDecimal(v, 2)
	}
	return groupThousands(s)
}

// FormatUSDValue renders a USD market figure (liquidity, FDV) compactly.
func FormatUSDValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return "$" + trimTrailing(formatDecimal(v/1_000_000_000, 2), 1) + "B"
	case abs >= 1_000_000:
		return "$" + trimTrailing(formatDecimal(v/1_000_000, 2), 1) + "M"
	case abs >= 1_000:
		return "$" + trimTrailing(formatDecimal(v/1_000, 2), 1) + "K"
	default:
		return "$" + formatDecimal(v, 2)
	}
}

// formatDecimal is strconv.FormatFloat in plain decimal notation, the only
// rendering allowed for prices.
func formatDecimal(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// trimTrailing removes trailing zeros but keeps at least min decimals.
func trimTrailing(s string, min int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+1+min && s[end-1] == '0' {
		end--
	}
	return s[:end]
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}

	var b strings.Builder
	n := len(intPart)
	for i, ch := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
