package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFindPercentage(t *testing.T) {
	t.Run("computes share of price", func(t *testing.T) {
		got, err := FindPercentage(d("200"), d("50"))
		require.NoError(t, err)
		assert.True(t, d("25").Equal(got), got.String())
	})

	t.Run("returns non-positive price unchanged", func(t *testing.T) {
		got, err := FindPercentage(d("0"), d("50"))
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("rejects fixed value above price", func(t *testing.T) {
		_, err := FindPercentage(d("10"), d("50"))
		assert.Error(t, err)
	})
}

func TestFindFixedValue(t *testing.T) {
	t.Run("computes percentage of price", func(t *testing.T) {
		got, err := FindFixedValue(d("200"), d("10"))
		require.NoError(t, err)
		assert.True(t, d("20").Equal(got))
	})

	t.Run("returns zero for non-positive price", func(t *testing.T) {
		got, err := FindFixedValue(d("-5"), d("10"))
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("rejects percentage above one hundred", func(t *testing.T) {
		_, err := FindFixedValue(d("100"), d("101"))
		assert.Error(t, err)
	})
}

func vat(option Option, discount DiscountOption) Rate {
	return Rate{Name: "VAT", Amount: d("10"), AmountType: AmountTypePercentage, TaxOption: option, TaxDiscountOption: discount}
}

func TestCalculator_Calculate(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		discount  string
		rates     []Rate
		wantFinal string
		wantTax   string
	}{
		{"exclusive percentage", "100", "0", []Rate{vat(OptionExclusive, DiscountAfter)}, "110", "10"},
		{"exclusive after discount", "100", "10", []Rate{vat(OptionExclusive, DiscountAfter)}, "99", "9"},
		{"exclusive before discount", "100", "10", []Rate{vat(OptionExclusive, DiscountBefore)}, "100", "10"},
		{"inclusive percentage", "110", "0", []Rate{vat(OptionInclusive, DiscountAfter)}, "110", "10"},
		{
			"exclusive percentage plus fixed",
			"100", "0",
			[]Rate{
				vat(OptionExclusive, DiscountAfter),
				{Name: "PLT", Amount: d("5"), AmountType: AmountTypeFixedValue, TaxOption: OptionExclusive, TaxDiscountOption: DiscountAfter},
			},
			"115", "15",
		},
		{
			"inclusive fixed leaves final price",
			"50", "0",
			[]Rate{{Name: "Stamp", Amount: d("2"), AmountType: AmountTypeFixedValue, TaxOption: OptionInclusive, TaxDiscountOption: DiscountAfter}},
			"50", "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Calculator{BasePrice: d(tt.base), Discount: d(tt.discount), Rates: tt.rates}.Calculate()
			require.NoError(t, err)
			assert.True(t, d(tt.wantFinal).Equal(res.FinalPrice), "final price %s", res.FinalPrice)
			assert.True(t, d(tt.wantTax).Equal(res.TotalTax), "total tax %s", res.TotalTax)
			assert.Len(t, res.Breakdown, len(tt.rates))
		})
	}

	t.Run("rejects unknown tax option", func(t *testing.T) {
		_, err := Calculator{BasePrice: d("10"), Rates: []Rate{vat("gross", DiscountAfter)}}.Calculate()
		assert.Error(t, err)
	})

	t.Run("rejects unknown discount option", func(t *testing.T) {
		_, err := Calculator{BasePrice: d("10"), Rates: []Rate{vat(OptionExclusive, "sometimes")}}.Calculate()
		assert.Error(t, err)
	})
}
