package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/infrastructure/authsvc"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupEMenuHandler(branchID *int64) (*gin.Engine, *MockTaxCategoryService, *MockBranchInfoFetcher) {
	categories := new(MockTaxCategoryService)
	branches := new(MockBranchInfoFetcher)
	h := NewEMenuHandler(NewBaseHandler(testLimits), categories, branches)

	engine := gin.New()
	engine.Use(withClaims(0, int64Ptr(3), branchID))
	engine.GET("/api/v1/e-menu/tax-category/:id", h.GetTaxCategory)
	return engine, categories, branches
}

func emenuRequest(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer anon")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestEMenuHandler_GetTaxCategory(t *testing.T) {
	engine, categories, branches := setupEMenuHandler(int64Ptr(4))
	anonymous := testActor
	anonymous.UserID = nil
	categories.On("GetByID", mock.Anything, anonymous, int64(5)).Return(sampleCategory(5), nil)
	branches.On("BranchInfo", mock.Anything, "Bearer anon", int64(4)).
		Return(authsvc.Object{"id": float64(4), "name": "Riverside"}, nil)

	w := emenuRequest(engine, "/api/v1/e-menu/tax-category/5")

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[EMenuTaxCategoryResponse](t, w)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, "Riverside", got.Branch["name"])
	categories.AssertExpectations(t)
	branches.AssertExpectations(t)
}

func TestEMenuHandler_BranchLookupFailure(t *testing.T) {
	engine, categories, branches := setupEMenuHandler(int64Ptr(4))
	categories.On("GetByID", mock.Anything, mock.Anything, int64(5)).Return(sampleCategory(5), nil)
	branches.On("BranchInfo", mock.Anything, mock.Anything, int64(4)).Return(nil, errors.New("dial tcp: refused"))

	w := emenuRequest(engine, "/api/v1/e-menu/tax-category/5")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[EMenuTaxCategoryResponse](t, w).Branch)
}

func TestEMenuHandler_NoBranchInToken(t *testing.T) {
	engine, categories, branches := setupEMenuHandler(nil)
	categories.On("GetByID", mock.Anything, mock.Anything, int64(5)).Return(sampleCategory(5), nil)

	w := emenuRequest(engine, "/api/v1/e-menu/tax-category/5")

	require.Equal(t, http.StatusOK, w.Code)
	branches.AssertNotCalled(t, "BranchInfo", mock.Anything, mock.Anything, mock.Anything)
}

func TestEMenuHandler_NotFound(t *testing.T) {
	engine, categories, _ := setupEMenuHandler(int64Ptr(4))
	categories.On("GetByID", mock.Anything, mock.Anything, int64(5)).Return(nil, shared.ErrNotFound)

	w := emenuRequest(engine, "/api/v1/e-menu/tax-category/5")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
