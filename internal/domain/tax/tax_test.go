package tax

import (
	"testing"

	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaxCategory(t *testing.T) {
	t.Run("creates an active category", func(t *testing.T) {
		c, err := NewTaxCategory("  Food ", "Food items")
		require.NoError(t, err)
		assert.Equal(t, "Food", c.Name)
		assert.True(t, c.Active)
		assert.True(t, c.IsNew())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTaxCategory(" ", "")
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_NAME", de.Code)
	})

	t.Run("snapshot lists business columns", func(t *testing.T) {
		c, _ := NewTaxCategory("Food", "Food items")
		c.Code = "TXC000001"
		snap := c.Snapshot()
		assert.Equal(t, "Food", snap["name"])
		assert.Equal(t, "TXC000001", snap["code"])
		assert.NotContains(t, snap, "write_date")
	})
}

func TestNewTax(t *testing.T) {
	valid := Attributes{Name: "VAT", Amount: d("10"), AmountType: AmountTypePercentage, Type: TypeSale}

	t.Run("applies default options", func(t *testing.T) {
		tx, err := NewTax(valid)
		require.NoError(t, err)
		assert.Equal(t, OptionExclusive, tx.TaxOption)
		assert.Equal(t, DiscountAfter, tx.TaxDiscountOption)
		assert.False(t, tx.IsActive)
		assert.True(t, tx.Active)
	})

	t.Run("deduplicates category ids", func(t *testing.T) {
		attrs := valid
		attrs.TaxCategoryIDs = []int64{3, 1, 3}
		tx, err := NewTax(attrs)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, tx.AssociationIDs(CategoriesAssociation))
	})

	tests := []struct {
		name   string
		mutate func(*Attributes)
		code   string
	}{
		{"missing amount type", func(a *Attributes) { a.AmountType = "" }, "INVALID_AMOUNT_TYPE"},
		{"unknown tax type", func(a *Attributes) { a.Type = "luxury" }, "INVALID_TAX_TYPE"},
		{"unknown tax option", func(a *Attributes) { a.TaxOption = "gross" }, "INVALID_TAX_OPTION"},
		{"unknown discount option", func(a *Attributes) { a.TaxDiscountOption = "never" }, "INVALID_TAX_DISCOUNT_OPTION"},
		{"negative amount", func(a *Attributes) { a.Amount = d("-1") }, "INVALID_AMOUNT"},
		{"percentage above hundred", func(a *Attributes) { a.Amount = d("150") }, "INVALID_AMOUNT"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			attrs := valid
			tt.mutate(&attrs)
			_, err := NewTax(attrs)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}

	t.Run("fixed value may exceed hundred", func(t *testing.T) {
		attrs := valid
		attrs.AmountType = AmountTypeFixedValue
		attrs.Amount = d("1500")
		_, err := NewTax(attrs)
		assert.NoError(t, err)
	})
}

func TestRevisionConfigs(t *testing.T) {
	require.NoError(t, CategoryRevisionConfig.Validate())
	require.NoError(t, TaxRevisionConfig.Validate())

	assert.Equal(t, []string{"description", "name"}, CategoryRevisionConfig.Comparable())
	assert.NotContains(t, TaxRevisionConfig.Comparable(), "is_active")
	assert.NotContains(t, TaxRevisionConfig.Comparable(), "code")
}
