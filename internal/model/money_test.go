package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		errMsg   string
		expected int64
		wantErr  bool
	}{
		{name: "two decimals", input: "1234.56", expected: 123456},
		{name: "negative", input: "-500.25", expected: -50025},
		{name: "zero", input: "0", expected: 0},
		{name: "integer", input: "100", expected: 10000},
		{name: "one decimal", input: "150.5", expected: 15050},
		{name: "rounds up past two decimals", input: "100.999", expected: 10100},
		{name: "half rounds away from zero", input: "50.555", expected: 5056},
		{name: "negative half rounds away from zero", input: "-50.555", expected: -5056},
		{name: "below half rounds down", input: "0.004", expected: 0},
		{name: "negative cents", input: "-99.99", expected: -9999},
		{name: "surrounding whitespace", input: " 12.30 ", expected: 1230},
		{name: "not a number", input: "12,30", wantErr: true, errMsg: "invalid decimal amount"},
		{name: "empty", input: "", wantErr: true, errMsg: "invalid decimal amount"},
		{name: "overflow", input: "999999999999999999999", wantErr: true, errMsg: "overflows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMinorUnits(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMinorUnitsFromDecimal(t *testing.T) {
	got, err := MinorUnitsFromDecimal(decimal.NewFromFloat(19.995))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "-79.99 EUR", Money{Amount: -7999, Currency: "EUR"}.String())
	assert.Equal(t, "0.05", Money{Amount: 5}.String())
	assert.True(t, Money{Amount: -1}.IsNegative())
	assert.False(t, Money{Amount: 0}.IsNegative())
}
