package conv

import "github.com/ericlagergren/decimal"

var zeroRounded decimal.Big

func init() {
	zeroRounded = decimal.Big{}
	zeroRounded.Context = decimal.Context128
	zeroRounded.Context.RoundingMode = decimal.ToZero
	zeroRounded.Quantize(8)
}

// NewDecimalWithPrecision returns a zero decimal configured with the
// precision and rounding used across the ledger
func NewDecimalWithPrecision() *decimal.Big {
	z := zeroRounded
	return &z
}

// CloneToPrecision copies the given amount into a new decimal with the
// ledger precision applied
func CloneToPrecision(amount *decimal.Big) *decimal.Big {
	dec := &decimal.Big{}
	dec.Context = decimal.Context128
	dec.Context.RoundingMode = decimal.ToZero
	dec.Copy(amount)
	dec.Quantize(8)
	return dec
}

// RoundToPrecision rounds the given amount in place to the ledger precision
func RoundToPrecision(amount *decimal.Big) *decimal.Big {
	amount.Context = decimal.Context128
	amount.Context.RoundingMode = decimal.ToZero
	amount.Quantize(8)

	return amount
}

// NewFromFloat converts a config supplied float into a ledger decimal
func NewFromFloat(value float64) *decimal.Big {
	return RoundToPrecision(NewDecimalWithPrecision().SetFloat64(value))
}
