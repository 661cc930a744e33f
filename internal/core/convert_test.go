package core

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		wantValue string
	}{
		// Plain numbers
		{name: "integer", input: "123", wantValid: true, wantValue: "123"},
		{name: "zero", input: "0", wantValid: true, wantValue: "0"},
		{name: "negative", input: "-456", wantValid: true, wantValue: "-456"},
		{name: "decimal", input: "123.45", wantValid: true, wantValue: "123.45"},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: "0.99"},
		{name: "trailing decimal point", input: "99.", wantValid: true, wantValue: "99"},
		{name: "exponent", input: "1.5e3", wantValid: true, wantValue: "1500"},

		// Formatting found in partner exports
		{name: "thousands separators", input: "1,234,567", wantValid: true, wantValue: "1234567"},
		{name: "won sign", input: "₩1,234", wantValid: true, wantValue: "1234"},
		{name: "won suffix", input: "12,000원", wantValid: true, wantValue: "12000"},
		{name: "dollar sign", input: "$1,234.56", wantValid: true, wantValue: "1234.56"},
		{name: "percent", input: "65%", wantValid: true, wantValue: "65"},
		{name: "surrounding whitespace", input: "  42  ", wantValid: true, wantValue: "42"},
		{name: "internal nbsp", input: "1\u00a0234", wantValid: true, wantValue: "1234"},
		{name: "ideographic space", input: "\u30001234", wantValid: true, wantValue: "1234"},
		{name: "parentheses negative", input: "(1,500)", wantValid: true, wantValue: "-1500"},
		{name: "unicode minus", input: "−300", wantValid: true, wantValue: "-300"},
		{name: "en dash minus", input: "–300", wantValid: true, wantValue: "-300"},
		{name: "full-width digits", input: "１，２３４", wantValid: true, wantValue: "1234"},
		{name: "full-width parens and won", input: "（￦500）", wantValid: true, wantValue: "-500"},
		{name: "full-width minus", input: "－20", wantValid: true, wantValue: "-20"},

		// Non-string scalars
		{name: "int", input: 7, wantValid: true, wantValue: "7"},
		{name: "int64", input: int64(-9), wantValid: true, wantValue: "-9"},
		{name: "uint8", input: uint8(200), wantValid: true, wantValue: "200"},
		{name: "float64", input: 12.5, wantValid: true, wantValue: "12.5"},
		{name: "decimal value", input: decimal.RequireFromString("3.25"), wantValid: true, wantValue: "3.25"},

		// Invalid
		{name: "nil", input: nil, wantValid: false},
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "text", input: "합계", wantValid: false},
		{name: "mixed", input: "12abc", wantValid: false},
		{name: "two points", input: "1.2.3", wantValid: false},
		{name: "lone minus", input: "-", wantValid: false},
		{name: "empty parens", input: "()", wantValid: false},
		{name: "huge exponent", input: "1e99999999", wantValid: false},
		{name: "huge negative exponent", input: "1e-99999999", wantValid: false},
		{name: "exponent past bound", input: "9e400", wantValid: false},
		{name: "long fraction past bound", input: "0." + strings.Repeat("1", 70), wantValid: false},
		{name: "exponent at bound", input: "1e64", wantValid: true, wantValue: "1e64"},
		{name: "NaN", input: math.NaN(), wantValid: false},
		{name: "Inf", input: math.Inf(1), wantValid: false},
		{name: "unsupported type", input: []int{1}, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumber(%#v) valid = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if !ok {
				return
			}
			want := decimal.RequireFromString(tt.wantValue)
			if !got.Equal(want) {
				t.Errorf("ParseNumber(%#v) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestNormalizeInt(t *testing.T) {
	tests := []struct {
		name  string
		input any
		def   int
		want  int
	}{
		{"plain", "12", 0, 12},
		{"float text truncates", "1234.0", 0, 1234},
		{"fraction truncates toward zero", "9.99", 0, 9},
		{"negative fraction truncates toward zero", "-9.99", 0, -9},
		{"thousands", "1,234", 0, 1234},
		{"float value", 3.7, 0, 3},
		{"empty uses default", "", 5, 5},
		{"nil uses default", nil, -1, -1},
		{"garbage uses default", "N/A", 0, 0},
		{"NaN uses default", math.NaN(), 8, 8},
		{"overflow uses default", "1e40", 0, 0},
		{"huge exponent uses default", "1e99999999", -7, -7},
		{"huge negative exponent uses default", "1e-99999999", -7, -7},
		{"exponent past bound uses default", "9e400", -7, -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeInt(tt.input, tt.def); got != tt.want {
				t.Errorf("NormalizeInt(%#v, %d) = %d, want %d", tt.input, tt.def, got, tt.want)
			}
		})
	}
}

func TestNormalizeFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		def   float64
		want  float64
	}{
		{"plain", "12.5", 0, 12.5},
		{"currency", "₩1,234.50", 0, 1234.5},
		{"int value", 4, 0, 4},
		{"empty uses default", "", 1.5, 1.5},
		{"garbage uses default", "x", -1, -1},
		{"Inf uses default", math.Inf(-1), 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFloat(tt.input, tt.def); got != tt.want {
				t.Errorf("NormalizeFloat(%#v, %v) = %v, want %v", tt.input, tt.def, got, tt.want)
			}
		})
	}
}

func TestNormalizeDecimal(t *testing.T) {
	def := decimal.NewFromInt(-1)

	if got := NormalizeDecimal("15,300.75", def); !got.Equal(decimal.RequireFromString("15300.75")) {
		t.Errorf("NormalizeDecimal(15,300.75) = %s", got)
	}
	if got := NormalizeDecimal("", def); !got.Equal(def) {
		t.Errorf("NormalizeDecimal(\"\") = %s, want default %s", got, def)
	}
	if got := NormalizeDecimal("9e400", def); !got.Equal(def) {
		t.Errorf("NormalizeDecimal(9e400) = %s, want default %s", got, def)
	}
	if got := NormalizeFloat("1e99999999", 2.5); got != 2.5 {
		t.Errorf("NormalizeFloat(1e99999999) = %v, want default", got)
	}
	if got := NormalizeDecimal("0.1", def).Add(NormalizeDecimal("0.2", def)); !got.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("decimal sum = %s, want exact 0.3", got)
	}
}
