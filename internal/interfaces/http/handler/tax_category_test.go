package handler

import (
	"net/http"
	"testing"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTaxCategoryHandler() (*gin.Engine, *MockTaxCategoryService) {
	svc := new(MockTaxCategoryService)
	h := NewTaxCategoryHandler(NewBaseHandler(testLimits), svc)

	engine := newTestEngine()
	g := engine.Group("/api/v1/tax-category")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/history", h.History)
	g.GET("/:id/latest", h.Latest)
	g.POST("/:id/force-change", h.ForceChange)
	return engine, svc
}

func sampleCategory(id int64) *taxapp.TaxCategoryResponse {
	return &taxapp.TaxCategoryResponse{
		RevisionInfo: taxapp.RevisionInfo{ID: id, Active: true, Version: 1},
		Code:         "TXC0001",
		Name:         "Food",
	}
}

func TestTaxCategoryHandler_Create(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()
	req := taxapp.CreateTaxCategoryRequest{Name: "Food", Description: "Prepared food"}
	svc.On("Create", mock.Anything, testActor, req).Return(sampleCategory(1), nil)

	w := doRequest(engine, http.MethodPost, "/api/v1/tax-category", req)

	assert.Equal(t, http.StatusCreated, w.Code)
	got := decodeData[taxapp.TaxCategoryResponse](t, w)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "TXC0001", got.Code)
	svc.AssertExpectations(t)
}

func TestTaxCategoryHandler_Create_ValidationError(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()

	w := doRequest(engine, http.MethodPost, "/api/v1/tax-category", `{"code":"X"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaxCategoryHandler_Create_Conflict(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()
	svc.On("Create", mock.Anything, testActor, mock.Anything).Return(nil, shared.ErrAlreadyExists)

	w := doRequest(engine, http.MethodPost, "/api/v1/tax-category", `{"name":"Food"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, decodeResponse(t, w).Error.Code)
}

func TestTaxCategoryHandler_Get(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()
	svc.On("GetByID", mock.Anything, testActor, int64(5)).Return(sampleCategory(5), nil)
	svc.On("GetByID", mock.Anything, testActor, int64(6)).Return(nil, shared.ErrNotFound)

	w := doRequest(engine, http.MethodGet, "/api/v1/tax-category/5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), decodeData[taxapp.TaxCategoryResponse](t, w).ID)

	w = doRequest(engine, http.MethodGet, "/api/v1/tax-category/6", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/v1/tax-category/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
}

func TestTaxCategoryHandler_List(t *testing.T) {
	t.Run("paginated envelope", func(t *testing.T) {
		engine, svc := setupTaxCategoryHandler()
		page := shared.Paginated[taxapp.TaxCategoryResponse]{
			Items:    []taxapp.TaxCategoryResponse{*sampleCategory(12), *sampleCategory(11)},
			Total:    25,
			Page:     2,
			PageSize: 2,
		}
		svc.On("List", mock.Anything, testActor, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 2 && f.PageSize == 2 && !f.Unpaged
		})).Return(page, nil)

		w := doRequest(engine, http.MethodGet, "http://api.example.com/api/v1/tax-category?page=2&page_size=2", nil)

		require.Equal(t, http.StatusOK, w.Code)
		got := decodeData[TaxCategoryPage](t, w)
		assert.Equal(t, int64(25), got.Count)
		assert.Len(t, got.Results, 2)
		require.NotNil(t, got.Next)
		assert.Equal(t, "http://api.example.com/api/v1/tax-category?page=3&page_size=2", *got.Next)
		require.NotNil(t, got.Previous)
		assert.Equal(t, "http://api.example.com/api/v1/tax-category?page_size=2", *got.Previous)
	})

	t.Run("paging off returns bare list", func(t *testing.T) {
		engine, svc := setupTaxCategoryHandler()
		svc.On("List", mock.Anything, testActor, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Unpaged
		})).Return(shared.Paginated[taxapp.TaxCategoryResponse]{Unpaged: true}, nil)

		w := doRequest(engine, http.MethodGet, "/api/v1/tax-category?paging=false", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
	})

	t.Run("rejected scope", func(t *testing.T) {
		engine, svc := setupTaxCategoryHandler()
		svc.On("List", mock.Anything, testActor, mock.Anything).
			Return(shared.Paginated[taxapp.TaxCategoryResponse]{}, shared.NewDomainError("INVALID_INPUT", "invalid search scope: secret"))

		w := doRequest(engine, http.MethodGet, "/api/v1/tax-category?search=a&scopes=secret", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})
}

func TestTaxCategoryHandler_Update(t *testing.T) {
	name := "Beverages"

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			engine, svc := setupTaxCategoryHandler()
			req := taxapp.UpdateTaxCategoryRequest{Name: &name}
			head := sampleCategory(8)
			head.Name = name
			svc.On("Update", mock.Anything, testActor, int64(5), req).
				Return(&taxapp.SaveResult[taxapp.TaxCategoryResponse]{Record: *head, Outcome: revision.OutcomeCreated}, nil)

			w := doRequest(engine, method, "/api/v1/tax-category/5", req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "created", w.Header().Get(RevisionOutcomeHeader))
			got := decodeData[taxapp.TaxCategoryResponse](t, w)
			assert.Equal(t, int64(8), got.ID)
			assert.Equal(t, name, got.Name)
		})
	}
}

func TestTaxCategoryHandler_Update_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"superseded revision", revision.ErrInactiveRevision, http.StatusBadRequest, dto.ErrCodeInactiveRevision},
		{"stale version", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"missing", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, svc := setupTaxCategoryHandler()
			svc.On("Update", mock.Anything, testActor, int64(5), mock.Anything).Return(nil, tt.err)

			w := doRequest(engine, http.MethodPatch, "/api/v1/tax-category/5", `{"name":"x","version":1}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestTaxCategoryHandler_Delete(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()
	svc.On("Delete", mock.Anything, testActor, int64(5)).Return(nil)
	svc.On("Delete", mock.Anything, testActor, int64(6)).Return(revision.ErrReferencedElsewhere)

	w := doRequest(engine, http.MethodDelete, "/api/v1/tax-category/5", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(engine, http.MethodDelete, "/api/v1/tax-category/6", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeReferencedElsewhere, decodeResponse(t, w).Error.Code)
}

func TestTaxCategoryHandler_HistoryAndLatest(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()
	older := sampleCategory(5)
	older.Active = false
	svc.On("History", mock.Anything, testActor, int64(5)).
		Return([]taxapp.TaxCategoryResponse{*sampleCategory(8), *older}, nil)
	svc.On("Latest", mock.Anything, testActor, int64(5)).Return(sampleCategory(8), nil)

	w := doRequest(engine, http.MethodGet, "/api/v1/tax-category/5/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeData[[]taxapp.TaxCategoryResponse](t, w)
	require.Len(t, history, 2)
	assert.True(t, history[0].Active)
	assert.False(t, history[1].Active)

	w = doRequest(engine, http.MethodGet, "/api/v1/tax-category/5/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(8), decodeData[taxapp.TaxCategoryResponse](t, w).ID)
}

func TestTaxCategoryHandler_ForceChange(t *testing.T) {
	engine, svc := setupTaxCategoryHandler()
	toggled := sampleCategory(5)
	toggled.ForceChange = true
	svc.On("ToggleForceChange", mock.Anything, testActor, int64(5)).Return(toggled, nil)

	w := doRequest(engine, http.MethodPost, "/api/v1/tax-category/5/force-change", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeData[taxapp.TaxCategoryResponse](t, w).ForceChange)
}
