package tax

import (
	"context"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
)

// CategoryRepository defines the interface for tax category persistence
type CategoryRepository interface {
	// FindByID finds a category revision by its ID
	FindByID(ctx context.Context, id int64) (*TaxCategory, error)

	// FindByIDs finds category revisions by id, in id order
	FindByIDs(ctx context.Context, ids []int64) ([]TaxCategory, error)

	// FindAll lists active category heads matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[TaxCategory], error)

	// Save creates the category or records an update, forking a revision when needed
	Save(ctx context.Context, category *TaxCategory) (revision.Outcome, error)

	// Delete removes the whole revision chain containing id
	Delete(ctx context.Context, id int64) error

	// History returns every revision of the chain containing id, oldest first
	History(ctx context.Context, id int64) ([]TaxCategory, error)

	// Latest returns the active head of the chain containing the category
	Latest(ctx context.Context, category *TaxCategory) (*TaxCategory, error)

	// ToggleForceChange flips the force change flag of an active head
	ToggleForceChange(ctx context.Context, id int64) (*TaxCategory, error)
}

// Repository defines the interface for tax persistence
type Repository interface {
	// FindByID finds a tax revision by its ID, categories included
	FindByID(ctx context.Context, id int64) (*Tax, error)

	// FindActiveByIDs finds active tax heads by id within a company
	FindActiveByIDs(ctx context.Context, companyID *int64, ids []int64) ([]Tax, error)

	// FindAll lists active tax heads matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[Tax], error)

	// Save creates the tax or records an update, forking a revision when needed
	Save(ctx context.Context, tax *Tax) (revision.Outcome, error)

	// Delete removes the whole revision chain containing id
	Delete(ctx context.Context, id int64) error

	// History returns every revision of the chain containing id, oldest first
	History(ctx context.Context, id int64) ([]Tax, error)

	// Latest returns the active head of the chain containing the tax
	Latest(ctx context.Context, tax *Tax) (*Tax, error)

	// ToggleForceChange flips the force change flag of an active head
	ToggleForceChange(ctx context.Context, id int64) (*Tax, error)
}
