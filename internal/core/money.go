// Package core holds the domain model and the pure reconciliation and
// aggregation logic over it.
//
// This file contains money parsing and handling. Amounts are stored as
// integer kopecks to keep arithmetic exact; JSON encodes them as a
// decimal ruble number so backup files stay readable and compatible
// with the legacy export format.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an exact ruble amount in kopecks.
type Money struct {
	Kopecks int64
}

var ErrInvalidAmount = errors.New("invalid amount")

func (m Money) Validate() error {
	if m.Kopecks < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Kopecks: m.Kopecks + other.Kopecks}
}

// Rubles returns the ruble value as a float64 for display purposes.
// Use kopecks for calculations.
func (m Money) Rubles() float64 {
	return float64(m.Kopecks) / 100.0
}

// String formats the amount without a currency sign: whole rubles when
// there are no kopecks, two decimals otherwise.
func (m Money) String() string {
	neg := m.Kopecks < 0
	k := m.Kopecks
	if neg {
		k = -k
	}
	s := strconv.FormatInt(k/100, 10)
	if rem := k % 100; rem != 0 {
		s += fmt.Sprintf(".%02d", rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON encodes the amount as a plain decimal number of rubles.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a decimal number of rubles (integer or with a
// fractional part) and null, which leaves the amount at zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	k, err := ParseDecimalToKopecks(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	m.Kopecks = k
	return nil
}

// ParseDecimalToKopecks converts a decimal string to kopecks with
// half-up rounding on the third decimal place.
//
// It accepts both dot (150.50) and comma (150,50) decimal separators.
// Negative values are rejected; zero is a valid price.
//
// Examples:
//
//	ParseDecimalToKopecks("1500") -> 150000, nil
//	ParseDecimalToKopecks("12,34") -> 1234, nil
//	ParseDecimalToKopecks("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToKopecks("12.346") -> 1235, nil (rounds up)
func ParseDecimalToKopecks(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var frac int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		frac = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			frac += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, nil
}
