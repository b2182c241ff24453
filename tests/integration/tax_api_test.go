package integration

import (
	"fmt"
	"net/http"
	"testing"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/infrastructure/auth"
	"github.com/erp/taxsvc/internal/infrastructure/authsvc"
	"github.com/erp/taxsvc/internal/infrastructure/cache"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/erp/taxsvc/internal/interfaces/http/handler"
	"github.com/erp/taxsvc/internal/interfaces/http/middleware"
	"github.com/erp/taxsvc/internal/interfaces/http/router"
	"github.com/erp/taxsvc/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiServer is the tax API wired the way cmd/server wires it, against the
// test database and a fake auth service
type apiServer struct {
	engine      *gin.Engine
	permissions *testutil.PermissionServer
	staff       map[string]string
}

func newAPIServer(t *testing.T, tdb *TestDB) *apiServer {
	t.Helper()
	middleware.SetupValidator()

	r := newRepos(t, tdb)
	taxSvc := taxapp.NewTaxService(r.taxes, r.categories)
	catSvc := taxapp.NewTaxCategoryService(r.categories)

	base := handler.NewBaseHandler(dto.PageLimits{DefaultPageSize: 10, MaxPageSize: 100})
	handlers := router.TaxHandlers{
		TaxCategory: handler.NewTaxCategoryHandler(base, catSvc),
		Tax:         handler.NewTaxHandler(base, taxSvc),
		EMenu:       handler.NewEMenuHandler(base, catSvc, nil),
		Onboarding:  handler.NewOnboardingHandler(base, taxapp.NewOnboardingService(taxSvc, catSvc)),
	}

	permissions := testutil.NewPermissionServer(t,
		"view_taxcategory", "add_taxcategory", "change_taxcategory",
		"view_tax", "add_tax", "change_tax", "delete_tax",
	)
	authCfg := permissions.AuthServiceConfig()
	authCfg.CacheEnabled = false
	provider := authsvc.NewPermissionClient(authCfg, cache.NewInMemoryStore())

	approvals, err := auth.NewApprovalVerifier("")
	require.NoError(t, err)

	jwtService := testutil.NewJWTService()
	engine := gin.New()
	engine.Use(middleware.RequestID())

	rt := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterTaxAPI(rt, handlers, router.TaxGuards{
		Auth:          middleware.JWTAuthMiddleware(jwtService),
		AnonymousAuth: middleware.AnonymousJWTAuthMiddleware(jwtService),
		Permission: func(codename string) gin.HandlerFunc {
			return middleware.RequirePermissionWithConfig(codename, middleware.PermissionConfig{
				Provider:  provider,
				Approvals: approvals,
				Logger:    zap.NewNop(),
			})
		},
	})
	rt.Setup()

	return &apiServer{
		engine:      engine,
		permissions: permissions,
		staff:       map[string]string{"Authorization": testutil.StaffToken(t)},
	}
}

func (s *apiServer) do(t *testing.T, method, path string, body any) (int, *testutil.Envelope, http.Header) {
	t.Helper()
	rec := testutil.Request(t, s.engine, method, "/api/v1"+path, body, s.staff)
	if rec.Body.Len() == 0 {
		return rec.Code, nil, rec.Header()
	}
	env := testutil.DecodeEnvelope(t, rec)
	return rec.Code, &env, rec.Header()
}

func TestTaxAPI_RevisionLifecycle(t *testing.T) {
	tdb := NewTestDB(t)
	s := newAPIServer(t, tdb)

	rec := testutil.Request(t, s.engine, http.MethodPost, "/api/v1/tax-category",
		map[string]any{"name": "Food"}, s.staff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := testutil.DecodeData[taxapp.TaxCategoryResponse](t, rec)
	assert.Equal(t, "TXC000001", category.Code)
	assert.Equal(t, int64(1), *category.CompanyID)

	rec = testutil.Request(t, s.engine, http.MethodPost, "/api/v1/tax", map[string]any{
		"name":           "VAT",
		"amount":         "10",
		"amount_type":    "percentage",
		"type":           "sale",
		"is_active":      true,
		"tax_categories": []int64{category.ID},
	}, s.staff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := testutil.DecodeData[taxapp.TaxResponse](t, rec)
	assert.Equal(t, "TX000001", created.Code)
	require.Len(t, created.TaxCategories, 1)
	assert.Equal(t, "Food", created.TaxCategories[0].Name)

	var forked taxapp.TaxResponse
	t.Run("changing the amount forks the chain", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodPut, fmt.Sprintf("/api/v1/tax/%d", created.ID),
			map[string]any{"amount": "12"}, s.staff)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "forked", rec.Header().Get(handler.RevisionOutcomeHeader))

		forked = testutil.DecodeData[taxapp.TaxResponse](t, rec)
		assert.NotEqual(t, created.ID, forked.ID)
		assert.Equal(t, created.ID, *forked.PreviousID)
		assert.Equal(t, created.ID, *forked.InitialID)
		assert.Equal(t, "TX000001", forked.Code)
		assert.Equal(t, []int64{category.ID}, forked.TaxCategoryIDs)
	})

	t.Run("inactive revisions reject edits", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodPut, fmt.Sprintf("/api/v1/tax/%d", created.ID),
			map[string]any{"amount": "15"}, s.staff)
		testutil.AssertError(t, rec, http.StatusBadRequest, dto.ErrCodeInactiveRevision)
	})

	t.Run("history and latest follow the chain", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodGet, fmt.Sprintf("/api/v1/tax/%d/history", forked.ID), nil, s.staff)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		history := testutil.DecodeData[[]taxapp.TaxResponse](t, rec)
		require.Len(t, history, 2)
		assert.Equal(t, created.ID, history[0].ID)

		rec = testutil.Request(t, s.engine, http.MethodGet, fmt.Sprintf("/api/v1/tax/%d/latest", created.ID), nil, s.staff)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, forked.ID, testutil.DecodeData[taxapp.TaxResponse](t, rec).ID)
	})

	t.Run("list returns only heads", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodGet, "/api/v1/tax?type=equal,sale", nil, s.staff)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		page := testutil.DecodeData[dto.Page[taxapp.TaxResponse]](t, rec)
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Results, 1)
		assert.Equal(t, forked.ID, page.Results[0].ID)
		assert.Nil(t, page.Next)
	})

	t.Run("calculate prices with the head revision", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodPost, "/api/v1/tax/calculate", map[string]any{
			"base_price": "100",
			"tax_ids":    []int64{forked.ID},
			"currency":   "USD",
		}, s.staff)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := testutil.DecodeData[taxapp.CalculateResponse](t, rec)
		assert.True(t, decimal.NewFromInt(112).Equal(result.FinalPrice), result.FinalPrice.String())
		assert.True(t, decimal.NewFromInt(12).Equal(result.TotalTax), result.TotalTax.String())
		assert.Equal(t, []int64{forked.ID}, result.AppliedTaxIDs)
	})

	t.Run("deleting removes the chain", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodDelete, fmt.Sprintf("/api/v1/tax/%d", created.ID), nil, s.staff)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Zero(t, tdb.Count("tax", ""))
		assert.Zero(t, tdb.Count("tax_category_tax_rel", ""))

		rec = testutil.Request(t, s.engine, http.MethodGet, fmt.Sprintf("/api/v1/tax/%d", forked.ID), nil, s.staff)
		testutil.AssertError(t, rec, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestTaxAPI_Permissions(t *testing.T) {
	tdb := NewTestDB(t)
	s := newAPIServer(t, tdb)
	c := saveCategory(t, newRepos(t, tdb), "Food")
	path := fmt.Sprintf("/api/v1/tax-category/%d", c.ID)

	t.Run("missing token", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodGet, path, nil, nil)
		testutil.AssertError(t, rec, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("anonymous token on a staff route", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodGet, path, nil,
			map[string]string{"Authorization": testutil.AnonymousToken(t)})
		testutil.AssertError(t, rec, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("codename not granted", func(t *testing.T) {
		rec := testutil.Request(t, s.engine, http.MethodDelete, path, nil, s.staff)
		testutil.AssertError(t, rec, http.StatusForbidden, dto.ErrCodeForbidden)
		assert.Equal(t, int64(1), tdb.Count("tax_category", ""))
	})

	t.Run("granted codename is picked up", func(t *testing.T) {
		s.permissions.Grant("delete_taxcategory")
		rec := testutil.Request(t, s.engine, http.MethodDelete, path, nil, s.staff)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Zero(t, tdb.Count("tax_category", ""))
	})
}

func TestTaxAPI_EMenuAcceptsAnonymousTokens(t *testing.T) {
	tdb := NewTestDB(t)
	s := newAPIServer(t, tdb)
	c := saveCategory(t, newRepos(t, tdb), "Drinks")

	rec := testutil.Request(t, s.engine, http.MethodGet, fmt.Sprintf("/api/v1/e-menu/tax-category/%d", c.ID), nil,
		map[string]string{"Authorization": testutil.AnonymousToken(t)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := testutil.DecodeData[handler.EMenuTaxCategoryResponse](t, rec)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Drinks", got.Name)
	assert.Empty(t, got.Branch)
}

func TestTaxAPI_Onboarding(t *testing.T) {
	tdb := NewTestDB(t)
	s := newAPIServer(t, tdb)

	code, env, _ := s.do(t, http.MethodPost, "/internal/onboarding/tax", map[string]any{
		"data": map[string]any{
			"company_id": 9,
			"branch_id":  3,
			"tax": []map[string]any{
				{"name": "VAT", "amount": "10", "amount_type": "percentage", "is_active": true},
				{"name": "Broken", "amount": "150", "amount_type": "percentage"},
			},
			"tax_category": []map[string]any{{"name": "Food"}},
		},
	})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"created":2,"failed":1}`, string(env.Data))

	assert.Equal(t, int64(1), tdb.Count("tax", "company_id = ? AND branch_id = ?", 9, 3))
	assert.Equal(t, int64(1), tdb.Count("tax_category", "company_id = ?", 9))
}
