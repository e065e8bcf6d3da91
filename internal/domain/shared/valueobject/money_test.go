package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_IsValid(t *testing.T) {
	tests := []struct {
		currency Currency
		valid    bool
	}{
		{TRY, true},
		{USD, true},
		{EUR, true},
		{GBP, true},
		{Currency("XXX"), false},
		{Currency(""), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.currency.IsValid(), "currency %q", tt.currency)
	}
}

func TestNewMoney(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})
}

func TestMoney_Add(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		a, _ := NewMoney(decimal.NewFromInt(100), TRY)
		b, _ := NewMoney(decimal.NewFromInt(50), TRY)

		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))
		assert.Equal(t, TRY, sum.Currency())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		a, _ := NewMoney(decimal.NewFromInt(100), TRY)
		b, _ := NewMoney(decimal.NewFromInt(50), EUR)

		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("accumulates from zero", func(t *testing.T) {
		total := Zero(TRY)
		unit, _ := NewMoney(decimal.NewFromInt(120), TRY)

		total, err := total.Add(unit.Multiply(decimal.NewFromInt(10)))
		require.NoError(t, err)
		assert.True(t, total.Amount().Equal(decimal.NewFromInt(1200)))
	})
}

func TestMoney_Multiply(t *testing.T) {
	unit, _ := NewMoney(decimal.NewFromFloat(12.5), EUR)
	line := unit.Multiply(decimal.NewFromInt(4))

	assert.True(t, line.Amount().Equal(decimal.NewFromInt(50)))
	assert.Equal(t, EUR, line.Currency())
	// the original is untouched
	assert.True(t, unit.Amount().Equal(decimal.NewFromFloat(12.5)))
}

func TestMoney_Equals(t *testing.T) {
	a, _ := NewMoney(decimal.NewFromInt(100), TRY)
	b, _ := NewMoney(decimal.NewFromInt(100), TRY)
	c, _ := NewMoney(decimal.NewFromInt(100), USD)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestMoney_String(t *testing.T) {
	m, _ := NewMoney(decimal.NewFromFloat(1234.5), TRY)
	assert.Equal(t, "1234.50 TRY", m.String())
}
