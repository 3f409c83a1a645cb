// Money parsing and formatting.
//
// Canonical amounts are integer cents. Raw input arrives either as a JSON
// number or as a locale string ("1.234,56" in pt-BR form, "1234.56" plain);
// parsing never fails, it degrades to zero so a malformed amount contributes
// nothing to an aggregate instead of aborting it.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Money is a non-negative amount in cents with two decimal places of
// meaningful precision.
type Money struct {
	Cents int64
}

// ParseMoney parses a locale-formatted amount. A decimal comma marks pt-BR
// formatting, where dots are thousands separators; otherwise the string is
// plain decimal-point notation. Unparseable, negative or non-finite input
// yields zero.
func ParseMoney(raw string) Money {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Money{}
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Money{}
	}
	return MoneyFromFloat(f)
}

// MoneyFromFloat converts a raw number to cents with half-up rounding.
// NaN, infinities and negative values all yield zero.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Money{}
	}
	return Money{Cents: int64(math.Round(f * 100))}
}

// Reais returns the amount as a float64 for display purposes only; all
// arithmetic stays in cents.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// FormatBRL renders the amount as a Brazilian currency string, e.g.
// "R$ 1.234,56".
func FormatBRL(m Money) string {
	cents := m.Cents
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	b.WriteString("R$ ")
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}

// MarshalJSON renders the canonical stored value as a plain number: whole
// amounts without decimals, fractional ones with two.
func (m Money) MarshalJSON() ([]byte, error) {
	if m.Cents%100 == 0 {
		return []byte(strconv.FormatInt(m.Cents/100, 10)), nil
	}
	return []byte(strconv.FormatFloat(m.Reais(), 'f', 2, 64)), nil
}

// UnmarshalJSON accepts a number or a locale string and never fails;
// malformed input decodes to zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		*m = ParseMoney(strings.Trim(s, `"`))
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		m.Cents = 0
		return nil
	}
	*m = MoneyFromFloat(f)
	return nil
}
