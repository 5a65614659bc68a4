package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// idFractionDigits matches the default maximum fraction digits of id-ID number formatting.
const idFractionDigits = 3

var (
	digitToLetter = map[rune]rune{
		'0': 'I', '1': 'T', '2': 'A', '3': 'N', '4': 'G',
		'5': 'W', '6': 'E', '7': 'K', '8': 'C', '9': 'U',
	}
	letterToDigit = func() map[rune]rune {
		m := make(map[rune]rune, len(digitToLetter))
		for d, l := range digitToLetter {
			m[l] = d
		}
		return m
	}()
)

// FormatIDR renders d the way id-ID locale formatting does: "." groups thousands, ","
// separates decimals, at most three fraction digits (half-up) and no trailing zeros.
func FormatIDR(d decimal.Decimal) string {
	r := d.Round(idFractionDigits)
	neg := r.IsNegative()
	fixed := r.Abs().StringFixed(idFractionDigits)

	intPart, frac, _ := strings.Cut(fixed, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// EncodePriceCode substitutes every digit of the id-ID formatted price with its letter,
// keeping separators. It hides the price from casual viewers and is trivially reversible.
func EncodePriceCode(price decimal.Decimal) string {
	formatted := FormatIDR(price)
	var b strings.Builder
	b.Grow(len(formatted))
	for _, r := range formatted {
		if l, ok := digitToLetter[r]; ok {
			b.WriteRune(l)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DecodePriceCode reverses EncodePriceCode.
func DecodePriceCode(code string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range code {
		switch {
		case r == '.':
			// thousands separator
		case r == ',':
			b.WriteByte('.')
		case r == '-':
			b.WriteRune(r)
		default:
			d, ok := letterToDigit[r]
			if !ok {
				return decimal.Zero, fmt.Errorf("invalid price code character %q", r)
			}
			b.WriteRune(d)
		}
	}
	return decimal.NewFromString(b.String())
}
