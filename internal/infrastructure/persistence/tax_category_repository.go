package persistence

import (
	"context"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/domain/tax"
	"gorm.io/gorm"
)

// TaxCategoryListSpec declares the searchable, sortable and filterable
// columns of tax categories
var TaxCategoryListSpec = ListSpec{
	SearchFields: []string{"code", "name", "description"},
	SortFields:   TaxCategorySortFields,
	FilterFields: map[string]bool{
		"code":        true,
		"name":        true,
		"description": true,
		"create_date": true,
		"write_date":  true,
	},
}

// GormTaxCategoryRepository implements tax.CategoryRepository on a revision store
type GormTaxCategoryRepository struct {
	store *RevisionStore[tax.TaxCategory, *tax.TaxCategory]
}

// NewGormTaxCategoryRepository creates a new GormTaxCategoryRepository
func NewGormTaxCategoryRepository(db *gorm.DB, opts ...StoreOption) (*GormTaxCategoryRepository, error) {
	opts = append([]StoreOption{WithCodeSequence(tax.CategoryCodePrefix, tax.CodeNumberLength)}, opts...)
	store, err := NewRevisionStore[tax.TaxCategory](db, tax.CategoryRevisionConfig, opts...)
	if err != nil {
		return nil, err
	}
	return &GormTaxCategoryRepository{store: store}, nil
}

// FindByID finds a category revision by its ID
func (r *GormTaxCategoryRepository) FindByID(ctx context.Context, id int64) (*tax.TaxCategory, error) {
	return r.store.FindByID(ctx, id)
}

// FindByIDs finds category revisions by id, in id order
func (r *GormTaxCategoryRepository) FindByIDs(ctx context.Context, ids []int64) ([]tax.TaxCategory, error) {
	if len(ids) == 0 {
		return []tax.TaxCategory{}, nil
	}
	var categories []tax.TaxCategory
	if err := r.store.DB().WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindAll lists active category heads matching the filter
func (r *GormTaxCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[tax.TaxCategory], error) {
	return r.store.List(ctx, filter, TaxCategoryListSpec)
}

// Save creates the category or records an update
func (r *GormTaxCategoryRepository) Save(ctx context.Context, category *tax.TaxCategory) (revision.Outcome, error) {
	return r.store.Save(ctx, category)
}

// Delete removes the whole revision chain containing id
func (r *GormTaxCategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, id)
}

// History returns every revision of the chain containing id
func (r *GormTaxCategoryRepository) History(ctx context.Context, id int64) ([]tax.TaxCategory, error) {
	return r.store.History(ctx, id)
}

// Latest returns the active head of the chain containing the category
func (r *GormTaxCategoryRepository) Latest(ctx context.Context, category *tax.TaxCategory) (*tax.TaxCategory, error) {
	return r.store.Latest(ctx, category)
}

// ToggleForceChange flips the force change flag of an active head
func (r *GormTaxCategoryRepository) ToggleForceChange(ctx context.Context, id int64) (*tax.TaxCategory, error) {
	return r.store.ToggleForceChange(ctx, id)
}

var _ tax.CategoryRepository = (*GormTaxCategoryRepository)(nil)
