package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testActor() Actor {
	return Actor{UserID: int64Ptr(7), CompanyID: int64Ptr(1), BranchID: int64Ptr(2)}
}

func storedCategory(id int64) *tax.TaxCategory {
	c, _ := tax.NewTaxCategory("Food", "Food items")
	c.ID = id
	c.Code = "TXC000001"
	c.Version = 1
	c.CompanyID = int64Ptr(1)
	c.BranchID = int64Ptr(2)
	return c
}

func TestTaxCategoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps the actor and returns the generated code", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		svc := NewTaxCategoryService(repo)

		repo.On("Save", mock.Anything, mock.MatchedBy(func(c *tax.TaxCategory) bool {
			return c.Name == "Food" && *c.CreateUID == 7 && *c.CompanyID == 1 && *c.BranchID == 2
		})).Run(func(args mock.Arguments) {
			c := args.Get(1).(*tax.TaxCategory)
			c.ID = 10
			c.Code = "TXC000001"
		}).Return(revision.OutcomeCreated, nil)

		resp, err := svc.Create(ctx, testActor(), CreateTaxCategoryRequest{Name: " Food ", Description: "Food items"})
		require.NoError(t, err)
		assert.Equal(t, int64(10), resp.ID)
		assert.Equal(t, "TXC000001", resp.Code)
		assert.Equal(t, "Food", resp.Name)
		assert.True(t, resp.Active)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an empty name without saving", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		svc := NewTaxCategoryService(repo)

		_, err := svc.Create(ctx, testActor(), CreateTaxCategoryRequest{Name: "  "})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_NAME", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestTaxCategoryService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("merges fields, carries version and reports a fork", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		svc := NewTaxCategoryService(repo, WithClock(func() time.Time { return fixedNow }))

		repo.On("FindByID", mock.Anything, int64(10)).Return(storedCategory(10), nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(c *tax.TaxCategory) bool {
			return c.Name == "Food & Beverage" && c.Description == "Food items" &&
				c.Version == 3 && *c.WriteUID == 7 && c.WriteDate.Equal(fixedNow)
		})).Run(func(args mock.Arguments) {
			c := args.Get(1).(*tax.TaxCategory)
			c.PreviousID = int64Ptr(10)
			c.InitialID = int64Ptr(10)
			c.ID = 11
			c.Version = 1
		}).Return(revision.OutcomeForked, nil)

		res, err := svc.Update(ctx, testActor(), 10, UpdateTaxCategoryRequest{
			Name:    strPtr("Food & Beverage"),
			Version: func() *int { v := 3; return &v }(),
		})
		require.NoError(t, err)
		assert.Equal(t, revision.OutcomeForked, res.Outcome)
		assert.Equal(t, int64(11), res.Record.ID)
		assert.Equal(t, int64(10), *res.Record.PreviousID)
		assert.Equal(t, "TXC000001", res.Record.Code)
	})

	t.Run("hides records of another company", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		svc := NewTaxCategoryService(repo)

		other := storedCategory(10)
		other.CompanyID = int64Ptr(99)
		repo.On("FindByID", mock.Anything, int64(10)).Return(other, nil)

		_, err := svc.Update(ctx, testActor(), 10, UpdateTaxCategoryRequest{Name: strPtr("x")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("surfaces inactive revision errors", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		svc := NewTaxCategoryService(repo)

		repo.On("FindByID", mock.Anything, int64(10)).Return(storedCategory(10), nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(revision.Outcome(""), revision.ErrInactiveRevision)

		_, err := svc.Update(ctx, testActor(), 10, UpdateTaxCategoryRequest{Name: strPtr("x")})
		assert.ErrorIs(t, err, revision.ErrInactiveRevision)
	})
}

func TestTaxCategoryService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("archives the chain before deleting it", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		archiver := new(MockArchiver)
		svc := NewTaxCategoryService(repo, WithArchiver(archiver))

		head := storedCategory(12)
		head.InitialID = int64Ptr(10)
		repo.On("FindByID", mock.Anything, int64(12)).Return(head, nil)
		repo.On("History", mock.Anything, int64(12)).Return([]tax.TaxCategory{*storedCategory(10), *head}, nil)
		archiver.On("Archive", mock.Anything, "TaxCategory", int64(10), mock.MatchedBy(func(v any) bool {
			revs, ok := v.([]TaxCategoryResponse)
			return ok && len(revs) == 2
		})).Return(nil)
		repo.On("Delete", mock.Anything, int64(12)).Return(nil)

		require.NoError(t, svc.Delete(ctx, testActor(), 12))
		archiver.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("keeps the chain when archiving fails", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		archiver := new(MockArchiver)
		svc := NewTaxCategoryService(repo, WithArchiver(archiver))

		repo.On("FindByID", mock.Anything, int64(10)).Return(storedCategory(10), nil)
		repo.On("History", mock.Anything, int64(10)).Return([]tax.TaxCategory{*storedCategory(10)}, nil)
		archiver.On("Archive", mock.Anything, "TaxCategory", int64(10), mock.Anything).Return(errors.New("s3 down"))

		err := svc.Delete(ctx, testActor(), 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3 down")
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("passes referenced elsewhere through", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		svc := NewTaxCategoryService(repo)

		repo.On("FindByID", mock.Anything, int64(10)).Return(storedCategory(10), nil)
		repo.On("History", mock.Anything, int64(10)).Return([]tax.TaxCategory{*storedCategory(10)}, nil)
		repo.On("Delete", mock.Anything, int64(10)).Return(revision.ErrReferencedElsewhere)

		assert.ErrorIs(t, svc.Delete(ctx, testActor(), 10), revision.ErrReferencedElsewhere)
	})
}

func TestTaxCategoryService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	svc := NewTaxCategoryService(repo)

	filter := shared.DefaultFilter()
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.CompanyID != nil && *f.CompanyID == 1
	})).Return(shared.NewPaginated([]tax.TaxCategory{*storedCategory(10)}, 1, filter), nil)

	page, err := svc.List(ctx, testActor(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Food", page.Items[0].Name)
}

func TestTaxCategoryService_LatestAndToggle(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	svc := NewTaxCategoryService(repo)

	old := storedCategory(10)
	old.Active = false
	head := storedCategory(11)
	head.InitialID = int64Ptr(10)
	repo.On("FindByID", mock.Anything, int64(10)).Return(old, nil)
	repo.On("Latest", mock.Anything, old).Return(head, nil)

	latest, err := svc.Latest(ctx, testActor(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(11), latest.ID)

	toggled := storedCategory(11)
	toggled.ForceChange = true
	repo.On("FindByID", mock.Anything, int64(11)).Return(head, nil)
	repo.On("ToggleForceChange", mock.Anything, int64(11)).Return(toggled, nil)

	resp, err := svc.ToggleForceChange(ctx, testActor(), 11)
	require.NoError(t, err)
	assert.True(t, resp.ForceChange)
}
