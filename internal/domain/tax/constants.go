package tax

// AmountType tells how a tax amount is applied
type AmountType string

const (
	AmountTypePercentage AmountType = "percentage"
	AmountTypeFixedValue AmountType = "fixed_value"
)

// Type classifies a tax by the kind of transaction it applies to
type Type string

const (
	TypeSale        Type = "sale"
	TypePurchase    Type = "purchase"
	TypeWithholding Type = "withholding"
)

// Option tells whether a price already includes the tax
type Option string

const (
	OptionInclusive Option = "tax_inclusive"
	OptionExclusive Option = "tax_exclusive"
)

// DiscountOption tells whether the tax is computed on the discounted price
type DiscountOption string

const (
	DiscountAfter  DiscountOption = "after_discount"
	DiscountBefore DiscountOption = "before_discount"
)

// IsValid reports whether the amount type is known
func (t AmountType) IsValid() bool {
	return t == AmountTypePercentage || t == AmountTypeFixedValue
}

// IsValid reports whether the tax type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeSale, TypePurchase, TypeWithholding:
		return true
	}
	return false
}

// IsValid reports whether the tax option is known
func (o Option) IsValid() bool {
	return o == OptionInclusive || o == OptionExclusive
}

// IsValid reports whether the discount option is known
func (o DiscountOption) IsValid() bool {
	return o == DiscountAfter || o == DiscountBefore
}

// Code generation settings
const (
	CategoryCodePrefix = "TXC"
	TaxCodePrefix      = "TX"
	CodeNumberLength   = 6
)

// Labels for choice fields, as shown by clients
var (
	AmountTypeLabels = map[AmountType]string{
		AmountTypePercentage: "Percentage",
		AmountTypeFixedValue: "Fixed value",
	}
	TypeLabels = map[Type]string{
		TypeSale:        "Sale Tax",
		TypePurchase:    "Purchase Tax",
		TypeWithholding: "Withholding Tax",
	}
	OptionLabels = map[Option]string{
		OptionInclusive: "Tax Inclusive",
		OptionExclusive: "Tax Exclusive",
	}
	DiscountOptionLabels = map[DiscountOption]string{
		DiscountAfter:  "After Discount",
		DiscountBefore: "Before Discount",
	}
)
