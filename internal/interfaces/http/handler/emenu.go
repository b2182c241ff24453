package handler

import (
	"context"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/infrastructure/authsvc"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BranchInfoFetcher looks up the public info of a branch
type BranchInfoFetcher interface {
	BranchInfo(ctx context.Context, authorization string, id int64) (authsvc.Object, error)
}

// EMenuTaxCategoryResponse is a tax category with the info of the branch
// the menu belongs to
// @Description Tax category as shown on the e-menu
type EMenuTaxCategoryResponse struct {
	taxapp.TaxCategoryResponse
	Branch authsvc.Object `json:"branch" swaggertype:"object"`
}

// EMenuHandler serves read-only endpoints to e-menu clients, which may
// hold anonymous tokens
type EMenuHandler struct {
	BaseHandler
	categories TaxCategoryService
	branches   BranchInfoFetcher
}

// NewEMenuHandler creates a new EMenuHandler
func NewEMenuHandler(base BaseHandler, categories TaxCategoryService, branches BranchInfoFetcher) *EMenuHandler {
	return &EMenuHandler{BaseHandler: base, categories: categories, branches: branches}
}

// GetTaxCategory godoc
// @ID           getEMenuTaxCategory
// @Summary      Get a tax category for the e-menu
// @Description  Accepts anonymous tokens. The branch of the token is embedded; it is empty when the company service has nothing.
// @Tags         e-menu
// @Produce      json
// @Param        id path int true "Tax category ID"
// @Success      200 {object} APIResponse[EMenuTaxCategoryResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /e-menu/tax-category/{id} [get]
func (h *EMenuHandler) GetTaxCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	ctx := c.Request.Context()
	category, err := h.categories.GetByID(ctx, actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := EMenuTaxCategoryResponse{TaxCategoryResponse: *category, Branch: authsvc.Object{}}
	if branchID := middleware.GetJWTBranchID(c); branchID != nil && h.branches != nil {
		info, err := h.branches.BranchInfo(ctx, c.GetHeader(middleware.AuthHeaderKey), *branchID)
		if err != nil {
			logger.L(ctx).Warn("branch info lookup failed",
				zap.Int64("branch_id", *branchID),
				zap.Error(err),
			)
		} else if info != nil {
			resp.Branch = info
		}
	}
	h.Success(c, resp)
}
