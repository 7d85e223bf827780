package utils

import (
	"strconv"

	"github.com/ericlagergren/decimal"
)

// Uint64ToString godoc
func Uint64ToString(value uint64) string {
	return strconv.FormatUint(value, 10)
}

// ToFloat64 converts a decimal into a float64 for metric reporting. Lossy,
// never use the result for ledger math.
func ToFloat64(amount *decimal.Big) float64 {
	if amount == nil {
		return 0
	}
	value, _ := amount.Float64()
	return value
}
