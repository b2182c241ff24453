package persistence

import (
	"context"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/domain/tax"
	"gorm.io/gorm"
)

// TaxListSpec declares the searchable, sortable and filterable columns of taxes
var TaxListSpec = ListSpec{
	SearchFields: []string{"code", "name", "description"},
	SortFields:   TaxSortFields,
	FilterFields: map[string]bool{
		"code":                true,
		"name":                true,
		"amount":              true,
		"amount_type":         true,
		"type":                true,
		"tax_option":          true,
		"tax_discount_option": true,
		"is_active":           true,
		"description":         true,
		"create_date":         true,
		"write_date":          true,
	},
}

// GormTaxRepository implements tax.Repository on a revision store
type GormTaxRepository struct {
	store *RevisionStore[tax.Tax, *tax.Tax]
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB, opts ...StoreOption) (*GormTaxRepository, error) {
	opts = append([]StoreOption{WithCodeSequence(tax.TaxCodePrefix, tax.CodeNumberLength)}, opts...)
	store, err := NewRevisionStore[tax.Tax](db, tax.TaxRevisionConfig, opts...)
	if err != nil {
		return nil, err
	}
	return &GormTaxRepository{store: store}, nil
}

// FindByID finds a tax revision by its ID, categories included
func (r *GormTaxRepository) FindByID(ctx context.Context, id int64) (*tax.Tax, error) {
	return r.store.FindByID(ctx, id)
}

// FindActiveByIDs finds active tax heads by id within a company. Inactive
// revisions and taxes switched off are skipped.
func (r *GormTaxRepository) FindActiveByIDs(ctx context.Context, companyID *int64, ids []int64) ([]tax.Tax, error) {
	if len(ids) == 0 {
		return []tax.Tax{}, nil
	}
	db := r.store.DB().WithContext(ctx)
	query := db.Where("active = ? AND is_active = ? AND id IN ?", true, true, ids)
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}

	var taxes []tax.Tax
	if err := query.Order("id").Find(&taxes).Error; err != nil {
		return nil, err
	}
	if err := r.store.loadAssociations(db, pointers[tax.Tax, *tax.Tax](taxes)); err != nil {
		return nil, err
	}
	return taxes, nil
}

// FindAll lists active tax heads matching the filter
func (r *GormTaxRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[tax.Tax], error) {
	return r.store.List(ctx, filter, TaxListSpec)
}

// Save creates the tax or records an update
func (r *GormTaxRepository) Save(ctx context.Context, t *tax.Tax) (revision.Outcome, error) {
	return r.store.Save(ctx, t)
}

// Delete removes the whole revision chain containing id
func (r *GormTaxRepository) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, id)
}

// History returns every revision of the chain containing id
func (r *GormTaxRepository) History(ctx context.Context, id int64) ([]tax.Tax, error) {
	return r.store.History(ctx, id)
}

// Latest returns the active head of the chain containing the tax
func (r *GormTaxRepository) Latest(ctx context.Context, t *tax.Tax) (*tax.Tax, error) {
	return r.store.Latest(ctx, t)
}

// ToggleForceChange flips the force change flag of an active head
func (r *GormTaxRepository) ToggleForceChange(ctx context.Context, id int64) (*tax.Tax, error) {
	return r.store.ToggleForceChange(ctx, id)
}

var _ tax.Repository = (*GormTaxRepository)(nil)
