// Package money formats integer minor-unit amounts for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

var symbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
	"cad": "CA$",
	"aud": "A$",
}

// Exponent is the number of minor-unit digits for a currency.
func Exponent(currency string) int32 {
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// Decimal converts minor units to a major-unit decimal.
func Decimal(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -Exponent(currency))
}

// FromDecimal converts a major-unit decimal to minor units, rounding half away from zero.
func FromDecimal(d decimal.Decimal, currency string) int64 {
	return d.Shift(Exponent(currency)).Round(0).IntPart()
}

func Format(amount int64, currency string) string {
	exp := Exponent(currency)
	d := Decimal(amount, currency)

	neg := d.IsNegative()
	s := d.Abs().StringFixed(exp)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	num := group(intPart) + frac

	sign := ""
	if neg {
		sign = "-"
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sign + sym + num
	}
	return sign + num + " " + strings.ToUpper(currency)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
