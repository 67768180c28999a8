package formula

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimals shown for non-integral results
const DefaultPrecision int32 = 2

// FormatNumber renders a value as plain decimal text that the tokenizer
// can read back, never using exponent notation
func FormatNumber(v float64) string {
	if !isFinite(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).String()
}

// FormatValue renders a computed result for display. integral values are
// printed without decimals, others rounded to precision decimals.
func FormatValue(v float64, precision int32) string {
	if !isFinite(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	d := decimal.NewFromFloat(v)
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.StringFixed(precision)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
