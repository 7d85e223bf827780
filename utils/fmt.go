package utils

import (
	"strings"

	"github.com/ericlagergren/decimal"
)

// Fmt formats a decimal amount for API responses: fixed ledger precision
// with trailing zeros trimmed
func Fmt(amount *decimal.Big) string {
	if amount == nil {
		return "0"
	}
	d := &decimal.Big{}
	d.Context = decimal.Context128
	d.Context.RoundingMode = decimal.ToZero
	d.Copy(amount)
	d.Quantize(8)
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
