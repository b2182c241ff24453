package tax

import (
	"strings"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
)

// TaxCategory groups taxes for reporting and product assignment
type TaxCategory struct {
	revision.Revision
	revision.Audit
	Code        string `gorm:"type:varchar(52);index" json:"code"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:varchar(255);not null;default:''" json:"description"`
}

// TableName returns the table name for GORM
func (TaxCategory) TableName() string {
	return "tax_category"
}

// CategoryRevisionConfig declares how tax category revisions are tracked
var CategoryRevisionConfig = revision.Config{
	Entity:        "TaxCategory",
	Table:         "tax_category",
	Fields:        []string{"code", "name", "description"},
	SequenceField: "code",
}

// NewTaxCategory creates a new tax category
func NewTaxCategory(name, description string) (*TaxCategory, error) {
	c := &TaxCategory{}
	if err := c.Update(name, description); err != nil {
		return nil, err
	}
	c.Active = true
	return c, nil
}

// Update replaces the category's editable fields
func (c *TaxCategory) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	if len(description) > 255 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 255 characters")
	}
	c.Name = name
	c.Description = description
	return nil
}

// Snapshot returns the comparable state of the category
func (c *TaxCategory) Snapshot() revision.Snapshot {
	return revision.Snapshot{
		"code":        c.Code,
		"name":        c.Name,
		"description": c.Description,
	}
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 255 characters")
	}
	return nil
}

// SequenceCode implements revision.Sequenced
func (c *TaxCategory) SequenceCode() string {
	return c.Code
}

// SetSequenceCode implements revision.Sequenced
func (c *TaxCategory) SetSequenceCode(code string) {
	c.Code = code
}
