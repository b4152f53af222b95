package holdem

import (
	"math"
	"strconv"
)

// Money is an amount of chips. Every derived amount is rounded to two decimal places
// as soon as it is computed, so equality checks in the legality rules never see drift
type Money float64

// Round rounds to the nearest cent
func (m Money) Round() Money {
	return Money(math.Round(float64(m)*100) / 100)
}

// Cents returns the amount as a whole number of cents
func (m Money) Cents() int64 {
	return int64(math.Round(float64(m) * 100))
}

// MoneyFromCents converts a whole number of cents into Money
func MoneyFromCents(cents int64) Money {
	return Money(float64(cents) / 100).Round()
}

// Finite returns false for NaN and infinite amounts
func (m Money) Finite() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (m Money) String() string {
	return strconv.FormatFloat(float64(m.Round()), 'f', -1, 64)
}

// Add returns a+b rounded to the cent
func Add(a, b Money) Money {
	return (a + b).Round()
}

// Sub returns a-b rounded to the cent
func Sub(a, b Money) Money {
	return (a - b).Round()
}

// Min returns the smaller amount
func Min(a, b Money) Money {
	if a < b {
		return a
	}

	return b
}
