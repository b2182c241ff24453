package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})

	t.Run("rejects invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestMoney_Round(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2.345", "2.35"},
		{"2.344", "2.34"},
		{"-2.345", "-2.35"},
		{"0.005", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.in, USD)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Round(2).Amount().StringFixed(2))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		rounding  int32
		precision int32
		want      string
	}{
		{"groups thousands", "1234567.891", 2, 2, "1,234,567.89"},
		{"pads precision", "12", 2, 2, "12.00"},
		{"no decimals", "1234.5", 2, 0, "1,235"},
		{"negative value", "-9876.5", 2, 2, "-9,876.50"},
		{"small value", "0.125", 2, 2, "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(decimal.RequireFromString(tt.value), tt.rounding, tt.precision))
		})
	}
}

func TestMoney_Format(t *testing.T) {
	t.Run("dollar symbol before", func(t *testing.T) {
		m, _ := NewMoneyFromString("1500.5", USD)
		assert.Equal(t, "$1,500.50", m.Format(2, 2, SymbolBefore))
		assert.Equal(t, "$1,500.50", m.String())
	})

	t.Run("riel symbol after without decimals", func(t *testing.T) {
		m, _ := NewMoneyFromString("41000.4", KHR)
		assert.Equal(t, "41,000៛", m.Format(2, 2, SymbolAfter))
	})

	t.Run("unknown currency has no symbol", func(t *testing.T) {
		m, _ := NewMoneyFromString("10", "EUR")
		assert.Equal(t, "10.00", m.Format(2, 2, SymbolBefore))
	})
}
