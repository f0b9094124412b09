package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupee = "₹"

// Currency renders an amount as rupees with two decimals and comma
// thousands-grouping. Example: Currency(1234567.5) => "₹1,234,567.50".
func Currency(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	out := rupee + thousandSep(s[:dot]) + s[dot:]
	if neg {
		return "-" + out
	}
	return out
}

func thousandSep(digits string) string {
	var b strings.Builder
	for i, c := range digits {
		if i != 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
