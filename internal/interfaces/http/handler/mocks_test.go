package handler

import (
	"context"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/infrastructure/authsvc"
	"github.com/stretchr/testify/mock"
)

// MockTaxCategoryService implements TaxCategoryService for testing
type MockTaxCategoryService struct {
	mock.Mock
}

func (m *MockTaxCategoryService) Create(ctx context.Context, actor taxapp.Actor, req taxapp.CreateTaxCategoryRequest) (*taxapp.TaxCategoryResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxCategoryResponse), args.Error(1)
}

func (m *MockTaxCategoryService) Update(ctx context.Context, actor taxapp.Actor, id int64, req taxapp.UpdateTaxCategoryRequest) (*taxapp.SaveResult[taxapp.TaxCategoryResponse], error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.SaveResult[taxapp.TaxCategoryResponse]), args.Error(1)
}

func (m *MockTaxCategoryService) Delete(ctx context.Context, actor taxapp.Actor, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockTaxCategoryService) GetByID(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxCategoryResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxCategoryResponse), args.Error(1)
}

func (m *MockTaxCategoryService) List(ctx context.Context, actor taxapp.Actor, filter shared.Filter) (shared.Paginated[taxapp.TaxCategoryResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[taxapp.TaxCategoryResponse]), args.Error(1)
}

func (m *MockTaxCategoryService) History(ctx context.Context, actor taxapp.Actor, id int64) ([]taxapp.TaxCategoryResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]taxapp.TaxCategoryResponse), args.Error(1)
}

func (m *MockTaxCategoryService) Latest(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxCategoryResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxCategoryResponse), args.Error(1)
}

func (m *MockTaxCategoryService) ToggleForceChange(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxCategoryResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxCategoryResponse), args.Error(1)
}

// MockTaxService implements TaxService for testing
type MockTaxService struct {
	mock.Mock
}

func (m *MockTaxService) Create(ctx context.Context, actor taxapp.Actor, req taxapp.CreateTaxRequest) (*taxapp.TaxResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxResponse), args.Error(1)
}

func (m *MockTaxService) Update(ctx context.Context, actor taxapp.Actor, id int64, req taxapp.UpdateTaxRequest) (*taxapp.SaveResult[taxapp.TaxResponse], error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.SaveResult[taxapp.TaxResponse]), args.Error(1)
}

func (m *MockTaxService) Delete(ctx context.Context, actor taxapp.Actor, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockTaxService) GetByID(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxResponse), args.Error(1)
}

func (m *MockTaxService) List(ctx context.Context, actor taxapp.Actor, filter shared.Filter) (shared.Paginated[taxapp.TaxResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[taxapp.TaxResponse]), args.Error(1)
}

func (m *MockTaxService) History(ctx context.Context, actor taxapp.Actor, id int64) ([]taxapp.TaxResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]taxapp.TaxResponse), args.Error(1)
}

func (m *MockTaxService) Latest(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxResponse), args.Error(1)
}

func (m *MockTaxService) ToggleForceChange(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxResponse), args.Error(1)
}

func (m *MockTaxService) Calculate(ctx context.Context, actor taxapp.Actor, req taxapp.CalculateRequest) (*taxapp.CalculateResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.CalculateResponse), args.Error(1)
}

// MockBranchInfoFetcher implements BranchInfoFetcher for testing
type MockBranchInfoFetcher struct {
	mock.Mock
}

func (m *MockBranchInfoFetcher) BranchInfo(ctx context.Context, authorization string, id int64) (authsvc.Object, error) {
	args := m.Called(ctx, authorization, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authsvc.Object), args.Error(1)
}

// MockSeeder implements Seeder for testing
type MockSeeder struct {
	mock.Mock
}

func (m *MockSeeder) Seed(ctx context.Context, payload taxapp.OnboardingPayload) taxapp.SeedResult {
	args := m.Called(ctx, payload)
	return args.Get(0).(taxapp.SeedResult)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
