package handler

import (
	"context"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// TaxCategoryService is the use case surface the category handler needs
type TaxCategoryService interface {
	Create(ctx context.Context, actor taxapp.Actor, req taxapp.CreateTaxCategoryRequest) (*taxapp.TaxCategoryResponse, error)
	Update(ctx context.Context, actor taxapp.Actor, id int64, req taxapp.UpdateTaxCategoryRequest) (*taxapp.SaveResult[taxapp.TaxCategoryResponse], error)
	Delete(ctx context.Context, actor taxapp.Actor, id int64) error
	GetByID(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxCategoryResponse, error)
	List(ctx context.Context, actor taxapp.Actor, filter shared.Filter) (shared.Paginated[taxapp.TaxCategoryResponse], error)
	History(ctx context.Context, actor taxapp.Actor, id int64) ([]taxapp.TaxCategoryResponse, error)
	Latest(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxCategoryResponse, error)
	ToggleForceChange(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxCategoryResponse, error)
}

// TaxCategoryHandler handles tax category endpoints
type TaxCategoryHandler struct {
	BaseHandler
	service TaxCategoryService
}

// NewTaxCategoryHandler creates a new TaxCategoryHandler
func NewTaxCategoryHandler(base BaseHandler, service TaxCategoryService) *TaxCategoryHandler {
	return &TaxCategoryHandler{BaseHandler: base, service: service}
}

// List godoc
// @ID           listTaxCategories
// @Summary      List tax categories
// @Description  Lists the active tax categories of the caller's company. paging=false returns every row without the page envelope.
// @Tags         tax-category
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Param        paging query bool false "Set to false to disable paging"
// @Param        ordering query string false "Comma separated sort fields, - for descending" default(-id)
// @Param        search query string false "Search text"
// @Param        scopes query string false "Comma separated search fields"
// @Success      200 {object} APIResponse[TaxCategoryPage]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category [get]
func (h *TaxCategoryHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), actorFrom(c), h.listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, result)
}

// Create godoc
// @ID           createTaxCategory
// @Summary      Create a tax category
// @Description  Creates the first revision of a tax category chain. The code is generated when omitted.
// @Tags         tax-category
// @Accept       json
// @Produce      json
// @Param        request body taxapp.CreateTaxCategoryRequest true "Tax category"
// @Success      201 {object} APIResponse[taxapp.TaxCategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category [post]
func (h *TaxCategoryHandler) Create(c *gin.Context) {
	var req taxapp.CreateTaxCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.service.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// Get godoc
// @ID           getTaxCategory
// @Summary      Get a tax category
// @Tags         tax-category
// @Produce      json
// @Param        id path int true "Tax category ID"
// @Success      200 {object} APIResponse[taxapp.TaxCategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category/{id} [get]
func (h *TaxCategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	category, err := h.service.GetByID(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Update godoc
// @ID           updateTaxCategory
// @Summary      Update a tax category
// @Description  Saves a new revision of the chain, updates in place while force change is on, or reports no change. X-Revision-Outcome tells which.
// @Tags         tax-category
// @Accept       json
// @Produce      json
// @Param        id path int true "Tax category ID"
// @Param        request body taxapp.UpdateTaxCategoryRequest true "Changed fields"
// @Success      200 {object} APIResponse[taxapp.TaxCategoryResponse]
// @Header       200 {string} X-Revision-Outcome "created, updated, unchanged or forked"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category/{id} [put]
// @Router       /tax-category/{id} [patch]
func (h *TaxCategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	var req taxapp.UpdateTaxCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header(RevisionOutcomeHeader, string(result.Outcome))
	h.Success(c, result.Record)
}

// Delete godoc
// @ID           deleteTaxCategory
// @Summary      Delete a tax category
// @Description  Archives and deletes every revision of the chain. Rejected while a tax still references the category.
// @Tags         tax-category
// @Param        id path int true "Tax category ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category/{id} [delete]
func (h *TaxCategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// History godoc
// @ID           getTaxCategoryHistory
// @Summary      Revision history of a tax category
// @Description  Lists every revision of the chain the record belongs to, newest first
// @Tags         tax-category
// @Produce      json
// @Param        id path int true "Tax category ID"
// @Success      200 {object} APIResponse[[]taxapp.TaxCategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category/{id}/history [get]
func (h *TaxCategoryHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	history, err := h.service.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// Latest godoc
// @ID           getTaxCategoryLatest
// @Summary      Active head of a tax category chain
// @Tags         tax-category
// @Produce      json
// @Param        id path int true "Tax category ID"
// @Success      200 {object} APIResponse[taxapp.TaxCategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category/{id}/latest [get]
func (h *TaxCategoryHandler) Latest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	category, err := h.service.Latest(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// ForceChange godoc
// @ID           toggleTaxCategoryForceChange
// @Summary      Toggle force change
// @Description  While force change is on, updates overwrite the head instead of adding revisions
// @Tags         tax-category
// @Produce      json
// @Param        id path int true "Tax category ID"
// @Success      200 {object} APIResponse[taxapp.TaxCategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax-category/{id}/force-change [post]
func (h *TaxCategoryHandler) ForceChange(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax category ID")
		return
	}

	category, err := h.service.ToggleForceChange(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}
