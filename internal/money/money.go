// Package money parses and formats user-entered decimal amounts.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a user-entered amount such as "1,508.00" into a float64.
// Thousands separators are stripped; the value must be a finite, non-negative
// number with at most two decimal places.
func Parse(input string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", input)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", input)
	}

	v, _ := d.Float64()
	return v, nil
}

// ParseSigned is Parse without the non-negative restriction, for principal
// adjustments that may go in either direction.
func ParseSigned(input string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", input)
	}

	v, _ := d.Float64()
	return v, nil
}

// Format renders an amount with two decimal places and thousands separators,
// e.g. 50249.75 -> "50,249.75".
func Format(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// Round2 rounds a monetary value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
