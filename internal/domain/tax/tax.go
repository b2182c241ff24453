package tax

import (
	"slices"
	"strings"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CategoriesAssociation names the many-to-many link between taxes and categories
const CategoriesAssociation = "tax_categories"

// Tax is a configurable tax rate
type Tax struct {
	revision.Revision
	revision.Audit
	Code              string          `gorm:"type:varchar(52);index" json:"code"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Amount            decimal.Decimal `gorm:"type:decimal(19,6);not null;default:0" json:"amount"`
	AmountType        AmountType      `gorm:"type:varchar(50);not null" json:"amount_type"`
	Type              Type            `gorm:"type:varchar(50);not null;default:''" json:"type"`
	TaxOption         Option          `gorm:"type:varchar(50);not null;default:'tax_exclusive'" json:"tax_option"`
	TaxDiscountOption DiscountOption  `gorm:"type:varchar(50);not null;default:'after_discount'" json:"tax_discount_option"`
	IsActive          bool            `gorm:"not null;default:false" json:"is_active"`
	Description       string          `gorm:"type:varchar(255);not null;default:''" json:"description"`

	// TaxCategoryIDs is loaded from tax_category_tax_rel; nil means not loaded
	TaxCategoryIDs []int64 `gorm:"-" json:"tax_category_ids"`
}

// TableName returns the table name for GORM
func (Tax) TableName() string {
	return "tax"
}

// TaxRevisionConfig declares how tax revisions are tracked. Switching a tax
// on or off is applied in place.
var TaxRevisionConfig = revision.Config{
	Entity: "Tax",
	Table:  "tax",
	Fields: []string{
		"code", "name", "amount", "amount_type", "type",
		"tax_option", "tax_discount_option", "is_active", "description",
	},
	Exclude:       []string{"is_active"},
	SequenceField: "code",
	Associations: []revision.Association{{
		Name:          CategoriesAssociation,
		JoinTable:     "tax_category_tax_rel",
		OwnerColumn:   "tax_id",
		RelatedColumn: "taxcategory_id",
	}},
}

// Attributes holds the editable fields of a tax
type Attributes struct {
	Name              string
	Amount            decimal.Decimal
	AmountType        AmountType
	Type              Type
	TaxOption         Option
	TaxDiscountOption DiscountOption
	IsActive          bool
	Description       string
	TaxCategoryIDs    []int64
}

// NewTax creates a new tax, applying defaults for the optional choices
func NewTax(attrs Attributes) (*Tax, error) {
	t := &Tax{}
	if err := t.Update(attrs); err != nil {
		return nil, err
	}
	t.Active = true
	return t, nil
}

// Update replaces the tax's editable fields. A nil category list keeps the
// current categories.
func (t *Tax) Update(attrs Attributes) error {
	attrs.Name = strings.TrimSpace(attrs.Name)
	if err := validateName(attrs.Name); err != nil {
		return err
	}
	if attrs.TaxOption == "" {
		attrs.TaxOption = OptionExclusive
	}
	if attrs.TaxDiscountOption == "" {
		attrs.TaxDiscountOption = DiscountAfter
	}
	if !attrs.AmountType.IsValid() {
		return shared.NewDomainError("INVALID_AMOUNT_TYPE", "Amount type must be percentage or fixed_value")
	}
	if attrs.Type != "" && !attrs.Type.IsValid() {
		return shared.NewDomainError("INVALID_TAX_TYPE", "Tax type must be sale, purchase or withholding")
	}
	if !attrs.TaxOption.IsValid() {
		return shared.NewDomainError("INVALID_TAX_OPTION", "Tax option must be tax_inclusive or tax_exclusive")
	}
	if !attrs.TaxDiscountOption.IsValid() {
		return shared.NewDomainError("INVALID_TAX_DISCOUNT_OPTION", "Tax discount option must be after_discount or before_discount")
	}
	if attrs.Amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if attrs.AmountType == AmountTypePercentage && attrs.Amount.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_AMOUNT", "Percentage must be between 0 and 100")
	}
	if len(attrs.Description) > 255 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 255 characters")
	}

	t.Name = attrs.Name
	t.Amount = attrs.Amount
	t.AmountType = attrs.AmountType
	t.Type = attrs.Type
	t.TaxOption = attrs.TaxOption
	t.TaxDiscountOption = attrs.TaxDiscountOption
	t.IsActive = attrs.IsActive
	t.Description = attrs.Description
	if attrs.TaxCategoryIDs != nil {
		t.TaxCategoryIDs = slices.Compact(slices.Sorted(slices.Values(attrs.TaxCategoryIDs)))
	}
	return nil
}

// Rate converts the tax into a calculator rate
func (t *Tax) Rate() Rate {
	return Rate{
		Name:              t.Name,
		Amount:            t.Amount,
		AmountType:        t.AmountType,
		TaxOption:         t.TaxOption,
		TaxDiscountOption: t.TaxDiscountOption,
	}
}

// Snapshot returns the comparable state of the tax
func (t *Tax) Snapshot() revision.Snapshot {
	return revision.Snapshot{
		"code":                t.Code,
		"name":                t.Name,
		"amount":              t.Amount,
		"amount_type":         string(t.AmountType),
		"type":                string(t.Type),
		"tax_option":          string(t.TaxOption),
		"tax_discount_option": string(t.TaxDiscountOption),
		"is_active":           t.IsActive,
		"description":         t.Description,
	}
}

// AssociationIDs implements revision.Associated
func (t *Tax) AssociationIDs(name string) []int64 {
	if name == CategoriesAssociation {
		return t.TaxCategoryIDs
	}
	return nil
}

// SetAssociationIDs implements revision.Associated
func (t *Tax) SetAssociationIDs(name string, ids []int64) {
	if name == CategoriesAssociation {
		t.TaxCategoryIDs = ids
	}
}

// SequenceCode implements revision.Sequenced
func (t *Tax) SequenceCode() string {
	return t.Code
}

// SetSequenceCode implements revision.Sequenced
func (t *Tax) SetSequenceCode(code string) {
	t.Code = code
}
