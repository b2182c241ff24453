package tax

import (
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared/valueobject"
	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// CreateTaxCategoryRequest represents a request to create a tax category.
// The code is always generated.
type CreateTaxCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=255"`
}

// UpdateTaxCategoryRequest represents a request to update a tax category.
// Nil fields keep their current value.
type UpdateTaxCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	Version     *int    `json:"version"`
}

// CreateTaxRequest represents a request to create a tax
type CreateTaxRequest struct {
	Name              string          `json:"name" binding:"required,max=255"`
	Amount            decimal.Decimal `json:"amount"`
	AmountType        string          `json:"amount_type" binding:"required,tax_amount_type"`
	Type              string          `json:"type" binding:"omitempty,tax_type"`
	TaxOption         string          `json:"tax_option" binding:"omitempty,tax_option"`
	TaxDiscountOption string          `json:"tax_discount_option" binding:"omitempty,tax_discount_option"`
	IsActive          bool            `json:"is_active"`
	Description       string          `json:"description" binding:"max=255"`
	TaxCategoryIDs    []int64         `json:"tax_categories"`
}

// UpdateTaxRequest represents a request to update a tax. Nil fields keep
// their current value.
type UpdateTaxRequest struct {
	Name              *string          `json:"name" binding:"omitempty,max=255"`
	Amount            *decimal.Decimal `json:"amount"`
	AmountType        *string          `json:"amount_type" binding:"omitempty,tax_amount_type"`
	Type              *string          `json:"type" binding:"omitempty,tax_type"`
	TaxOption         *string          `json:"tax_option" binding:"omitempty,tax_option"`
	TaxDiscountOption *string          `json:"tax_discount_option" binding:"omitempty,tax_discount_option"`
	IsActive          *bool            `json:"is_active"`
	Description       *string          `json:"description" binding:"omitempty,max=255"`
	TaxCategoryIDs    []int64          `json:"tax_categories"`
	Version           *int             `json:"version"`
}

// CalculateRequest prices an amount under a set of taxes
type CalculateRequest struct {
	BasePrice decimal.Decimal `json:"base_price"`
	Discount  decimal.Decimal `json:"discount"`
	TaxIDs    []int64         `json:"tax_ids" binding:"required,min=1"`
	Currency  string          `json:"currency" binding:"omitempty,oneof=USD KHR"`
}

// CalculateResponse is the result of a tax calculation
type CalculateResponse struct {
	BasePrice     decimal.Decimal            `json:"base_price"`
	FinalPrice    decimal.Decimal            `json:"final_price"`
	TotalTax      decimal.Decimal            `json:"total_tax"`
	Breakdown     map[string]decimal.Decimal `json:"tax_breakdown"`
	DisplayFinal  string                     `json:"display_final_price,omitempty"`
	DisplayTax    string                     `json:"display_total_tax,omitempty"`
	AppliedTaxIDs []int64                    `json:"applied_tax_ids"`
}

// RevisionInfo exposes the chain bookkeeping of a record
type RevisionInfo struct {
	ID          int64  `json:"id"`
	Active      bool   `json:"active"`
	PreviousID  *int64 `json:"previous_id"`
	InitialID   *int64 `json:"initial_id"`
	ForceChange bool   `json:"force_change"`
	Version     int    `json:"version"`
}

// AuditInfo exposes the audit fields of a record
type AuditInfo struct {
	CreateUID         *int64     `json:"create_uid"`
	WriteUID          *int64     `json:"write_uid"`
	CreateDate        *time.Time `json:"create_date"`
	WriteDate         *time.Time `json:"write_date"`
	BranchID          *int64     `json:"branch_id"`
	CompanyID         *int64     `json:"company_id"`
	DisplayCreateDate string     `json:"display_create_date"`
	DisplayWriteDate  string     `json:"display_write_date"`
}

// TaxCategoryResponse represents a tax category in API responses
type TaxCategoryResponse struct {
	RevisionInfo
	AuditInfo
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaxCategorySummary is a category nested in a tax
type TaxCategorySummary struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaxResponse represents a tax in API responses
type TaxResponse struct {
	RevisionInfo
	AuditInfo
	Code              string               `json:"code"`
	Name              string               `json:"name"`
	Amount            decimal.Decimal      `json:"amount"`
	AmountType        string               `json:"amount_type"`
	DisplayAmountType string               `json:"display_amount_type"`
	Type              string               `json:"type"`
	DisplayType       string               `json:"display_type"`
	TaxOption         string               `json:"tax_option"`
	TaxDiscountOption string               `json:"tax_discount_option"`
	IsActive          bool                 `json:"is_active"`
	Description       string               `json:"description"`
	TaxCategoryIDs    []int64              `json:"tax_category_ids"`
	TaxCategories     []TaxCategorySummary `json:"tax_categories"`
}

// SaveResult pairs the head after a save with what the save did
type SaveResult[T any] struct {
	Record  T                `json:"record"`
	Outcome revision.Outcome `json:"outcome"`
}

func toRevisionInfo(r *revision.Revision) RevisionInfo {
	return RevisionInfo{
		ID:          r.ID,
		Active:      r.Active,
		PreviousID:  r.PreviousID,
		InitialID:   r.InitialID,
		ForceChange: r.ForceChange,
		Version:     r.Version,
	}
}

func toAuditInfo(a *revision.Audit) AuditInfo {
	return AuditInfo{
		CreateUID:         a.CreateUID,
		WriteUID:          a.WriteUID,
		CreateDate:        a.CreateDate,
		WriteDate:         a.WriteDate,
		BranchID:          a.BranchID,
		CompanyID:         a.CompanyID,
		DisplayCreateDate: valueobject.DisplayDate(a.CreateDate),
		DisplayWriteDate:  valueobject.DisplayDate(a.WriteDate),
	}
}

// ToTaxCategoryResponse converts a domain TaxCategory to a response DTO
func ToTaxCategoryResponse(c *tax.TaxCategory) TaxCategoryResponse {
	return TaxCategoryResponse{
		RevisionInfo: toRevisionInfo(&c.Revision),
		AuditInfo:    toAuditInfo(&c.Audit),
		Code:         c.Code,
		Name:         c.Name,
		Description:  c.Description,
	}
}

// ToTaxCategoryResponses converts a slice of categories
func ToTaxCategoryResponses(categories []tax.TaxCategory) []TaxCategoryResponse {
	out := make([]TaxCategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToTaxCategoryResponse(&categories[i])
	}
	return out
}

// ToTaxResponse converts a domain Tax to a response DTO. categories is
// indexed by id and supplies the nested summaries.
func ToTaxResponse(t *tax.Tax, categories map[int64]tax.TaxCategory) TaxResponse {
	ids := t.TaxCategoryIDs
	if ids == nil {
		ids = []int64{}
	}
	summaries := make([]TaxCategorySummary, 0, len(ids))
	for _, id := range ids {
		if c, ok := categories[id]; ok {
			summaries = append(summaries, TaxCategorySummary{
				ID:          c.ID,
				Code:        c.Code,
				Name:        c.Name,
				Description: c.Description,
			})
		}
	}
	return TaxResponse{
		RevisionInfo:      toRevisionInfo(&t.Revision),
		AuditInfo:         toAuditInfo(&t.Audit),
		Code:              t.Code,
		Name:              t.Name,
		Amount:            t.Amount,
		AmountType:        string(t.AmountType),
		DisplayAmountType: tax.AmountTypeLabels[t.AmountType],
		Type:              string(t.Type),
		DisplayType:       tax.TypeLabels[t.Type],
		TaxOption:         string(t.TaxOption),
		TaxDiscountOption: string(t.TaxDiscountOption),
		IsActive:          t.IsActive,
		Description:       t.Description,
		TaxCategoryIDs:    ids,
		TaxCategories:     summaries,
	}
}

// attributes converts the request to domain attributes
func (r CreateTaxRequest) attributes() tax.Attributes {
	return tax.Attributes{
		Name:              r.Name,
		Amount:            r.Amount,
		AmountType:        tax.AmountType(r.AmountType),
		Type:              tax.Type(r.Type),
		TaxOption:         tax.Option(r.TaxOption),
		TaxDiscountOption: tax.DiscountOption(r.TaxDiscountOption),
		IsActive:          r.IsActive,
		Description:       r.Description,
		TaxCategoryIDs:    r.TaxCategoryIDs,
	}
}

// merge overlays the request onto the current attributes of t
func (r UpdateTaxRequest) merge(t *tax.Tax) tax.Attributes {
	attrs := tax.Attributes{
		Name:              t.Name,
		Amount:            t.Amount,
		AmountType:        t.AmountType,
		Type:              t.Type,
		TaxOption:         t.TaxOption,
		TaxDiscountOption: t.TaxDiscountOption,
		IsActive:          t.IsActive,
		Description:       t.Description,
		TaxCategoryIDs:    r.TaxCategoryIDs,
	}
	if r.Name != nil {
		attrs.Name = *r.Name
	}
	if r.Amount != nil {
		attrs.Amount = *r.Amount
	}
	if r.AmountType != nil {
		attrs.AmountType = tax.AmountType(*r.AmountType)
	}
	if r.Type != nil {
		attrs.Type = tax.Type(*r.Type)
	}
	if r.TaxOption != nil {
		attrs.TaxOption = tax.Option(*r.TaxOption)
	}
	if r.TaxDiscountOption != nil {
		attrs.TaxDiscountOption = tax.DiscountOption(*r.TaxDiscountOption)
	}
	if r.IsActive != nil {
		attrs.IsActive = *r.IsActive
	}
	if r.Description != nil {
		attrs.Description = *r.Description
	}
	return attrs
}
