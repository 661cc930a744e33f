package core

// convert.go turns partner spreadsheet cells into exact numbers.
//
// These functions handle the messy reality of settlement exports:
//   - Full-width digits and punctuation typed on Korean IMEs (１，２３４)
//   - Unicode minus variants copied from word processors
//   - Currency marks (₩, $, 원) and thousands separators in numbers
//   - Percent signs on rate columns
//   - Accounting format (parentheses for negative)
//
// Parsing never fails loudly: every Normalize* function returns the
// caller-supplied default for empty, missing or unparseable input.

import (
	"math"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,3})?$`)

// maxExponent bounds the decimal exponent of parsed text. Comparing or
// printing a decimal costs time proportional to its exponent.
const maxExponent = 64

var (
	minusReplacer = strings.NewReplacer(
		"\u2212", "-", // minus sign
		"\u2012", "-", // figure dash
		"\u2013", "-", // en dash
		"\u2014", "-", // em dash
		"\ufe63", "-", // small hyphen-minus
		"\uff0d", "-", // fullwidth hyphen-minus
	)
	currencyReplacer = strings.NewReplacer(
		"\u20a9", "",
		"$", "",
		"원", "",
		",", "",
	)
)

var (
	minInt = decimal.NewFromInt(math.MinInt)
	maxInt = decimal.NewFromInt(math.MaxInt)
)

// ParseNumber interprets v as an exact decimal. It accepts strings, every
// Go integer and float kind, and decimal.Decimal. The second result is
// false for nil, NaN, infinities and text that is not a number after cleanup.
func ParseNumber(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case string:
		return parseNumericText(x)
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(x)), true
	case uint16:
		return decimal.NewFromInt(int64(x)), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0), true
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	default:
		return decimal.Zero, false
	}
}

// parseNumericText applies the cleanup grammar in order: width folding,
// trim, minus variants, currency and separators, percent, internal
// whitespace, then accounting parentheses.
func parseNumericText(s string) (decimal.Decimal, bool) {
	s = width.Narrow.String(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	s = minusReplacer.Replace(s)
	s = currencyReplacer.Replace(s)
	s = strings.ReplaceAll(s, "%", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = s[1 : len(s)-1]
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	if isNegative {
		d = d.Neg()
	}
	return d, true
}

// NormalizeInt converts v to an int, truncating any fraction toward zero
// ("1234.0" → 1234, "(1,234)" → -1234). Values that do not parse or do not
// fit in an int yield def.
func NormalizeInt(v any, def int) int {
	d, ok := ParseNumber(v)
	if !ok {
		return def
	}
	d = d.Truncate(0)
	if d.LessThan(minInt) || d.GreaterThan(maxInt) {
		return def
	}
	return int(d.IntPart())
}

// NormalizeFloat converts v to a float64 ("₩1,234.50" → 1234.5).
// Values that do not parse yield def.
func NormalizeFloat(v any, def float64) float64 {
	d, ok := ParseNumber(v)
	if !ok {
		return def
	}
	f, _ := d.Float64()
	return f
}

// NormalizeDecimal converts v to an exact decimal. Values that do not
// parse yield def.
func NormalizeDecimal(v any, def decimal.Decimal) decimal.Decimal {
	d, ok := ParseNumber(v)
	if !ok {
		return def
	}
	return d
}
