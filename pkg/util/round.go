package util

import "github.com/shopspring/decimal"

// Round rounds v to the given number of decimal places, ties away from zero.
// Rounding works on the shortest decimal form of v, so 0.15 rounds to 0.2
// even though its binary value sits just below the tie.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
