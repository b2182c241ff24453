package tax

import (
	"context"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/stretchr/testify/mock"
)

// MockCategoryRepository is a mock implementation of tax.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id int64) (*tax.TaxCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.TaxCategory), args.Error(1)
}

func (m *MockCategoryRepository) FindByIDs(ctx context.Context, ids []int64) ([]tax.TaxCategory, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.TaxCategory), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[tax.TaxCategory], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[tax.TaxCategory]), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *tax.TaxCategory) (revision.Outcome, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(revision.Outcome), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) History(ctx context.Context, id int64) ([]tax.TaxCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.TaxCategory), args.Error(1)
}

func (m *MockCategoryRepository) Latest(ctx context.Context, category *tax.TaxCategory) (*tax.TaxCategory, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.TaxCategory), args.Error(1)
}

func (m *MockCategoryRepository) ToggleForceChange(ctx context.Context, id int64) (*tax.TaxCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.TaxCategory), args.Error(1)
}

// MockTaxRepository is a mock implementation of tax.Repository
type MockTaxRepository struct {
	mock.Mock
}

func (m *MockTaxRepository) FindByID(ctx context.Context, id int64) (*tax.Tax, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Tax), args.Error(1)
}

func (m *MockTaxRepository) FindActiveByIDs(ctx context.Context, companyID *int64, ids []int64) ([]tax.Tax, error) {
	args := m.Called(ctx, companyID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.Tax), args.Error(1)
}

func (m *MockTaxRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[tax.Tax], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[tax.Tax]), args.Error(1)
}

func (m *MockTaxRepository) Save(ctx context.Context, t *tax.Tax) (revision.Outcome, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(revision.Outcome), args.Error(1)
}

func (m *MockTaxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaxRepository) History(ctx context.Context, id int64) ([]tax.Tax, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.Tax), args.Error(1)
}

func (m *MockTaxRepository) Latest(ctx context.Context, t *tax.Tax) (*tax.Tax, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Tax), args.Error(1)
}

func (m *MockTaxRepository) ToggleForceChange(ctx context.Context, id int64) (*tax.Tax, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Tax), args.Error(1)
}

// MockArchiver is a mock implementation of ChainArchiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, entity string, rootID int64, revisions any) error {
	args := m.Called(ctx, entity, rootID, revisions)
	return args.Error(0)
}
