package handler

import (
	"context"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// TaxService is the use case surface the tax handler needs
type TaxService interface {
	Create(ctx context.Context, actor taxapp.Actor, req taxapp.CreateTaxRequest) (*taxapp.TaxResponse, error)
	Update(ctx context.Context, actor taxapp.Actor, id int64, req taxapp.UpdateTaxRequest) (*taxapp.SaveResult[taxapp.TaxResponse], error)
	Delete(ctx context.Context, actor taxapp.Actor, id int64) error
	GetByID(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxResponse, error)
	List(ctx context.Context, actor taxapp.Actor, filter shared.Filter) (shared.Paginated[taxapp.TaxResponse], error)
	History(ctx context.Context, actor taxapp.Actor, id int64) ([]taxapp.TaxResponse, error)
	Latest(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxResponse, error)
	ToggleForceChange(ctx context.Context, actor taxapp.Actor, id int64) (*taxapp.TaxResponse, error)
	Calculate(ctx context.Context, actor taxapp.Actor, req taxapp.CalculateRequest) (*taxapp.CalculateResponse, error)
}

// TaxHandler handles tax endpoints
type TaxHandler struct {
	BaseHandler
	service TaxService
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(base BaseHandler, service TaxService) *TaxHandler {
	return &TaxHandler{BaseHandler: base, service: service}
}

// List godoc
// @ID           listTaxes
// @Summary      List taxes
// @Description  Lists the active taxes of the caller's company with their categories. paging=false returns every row without the page envelope.
// @Tags         tax
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Param        paging query bool false "Set to false to disable paging"
// @Param        ordering query string false "Comma separated sort fields, - for descending" default(-id)
// @Param        search query string false "Search text"
// @Param        scopes query string false "Comma separated search fields"
// @Param        type query string false "Filter such as equal,sale"
// @Success      200 {object} APIResponse[TaxPage]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax [get]
func (h *TaxHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), actorFrom(c), h.listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, result)
}

// Create godoc
// @ID           createTax
// @Summary      Create a tax
// @Description  Creates the first revision of a tax chain linked to the given categories
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request body taxapp.CreateTaxRequest true "Tax"
// @Success      201 {object} APIResponse[taxapp.TaxResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax [post]
func (h *TaxHandler) Create(c *gin.Context) {
	var req taxapp.CreateTaxRequest
	if !h.bindJSON(c, &req) {
		return
	}

	t, err := h.service.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// Get godoc
// @ID           getTax
// @Summary      Get a tax
// @Tags         tax
// @Produce      json
// @Param        id path int true "Tax ID"
// @Success      200 {object} APIResponse[taxapp.TaxResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/{id} [get]
func (h *TaxHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax ID")
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Update godoc
// @ID           updateTax
// @Summary      Update a tax
// @Description  Saves a new revision of the chain, updates in place while force change is on, or reports no change. X-Revision-Outcome tells which.
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        id path int true "Tax ID"
// @Param        request body taxapp.UpdateTaxRequest true "Changed fields"
// @Success      200 {object} APIResponse[taxapp.TaxResponse]
// @Header       200 {string} X-Revision-Outcome "created, updated, unchanged or forked"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/{id} [put]
// @Router       /tax/{id} [patch]
func (h *TaxHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax ID")
		return
	}

	var req taxapp.UpdateTaxRequest
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
// @ID           deleteTax
// @Summary      Delete a tax
// @Description  Archives and deletes every revision of the chain
// @Tags         tax
// @Param        id path int true "Tax ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/{id} [delete]
func (h *TaxHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// History godoc
// @ID           getTaxHistory
// @Summary      Revision history of a tax
// @Tags         tax
// @Produce      json
// @Param        id path int true "Tax ID"
// @Success      200 {object} APIResponse[[]taxapp.TaxResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/{id}/history [get]
func (h *TaxHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax ID")
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
// @ID           getTaxLatest
// @Summary      Active head of a tax chain
// @Tags         tax
// @Produce      json
// @Param        id path int true "Tax ID"
// @Success      200 {object} APIResponse[taxapp.TaxResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/{id}/latest [get]
func (h *TaxHandler) Latest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax ID")
		return
	}

	t, err := h.service.Latest(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// ForceChange godoc
// @ID           toggleTaxForceChange
// @Summary      Toggle force change
// @Tags         tax
// @Produce      json
// @Param        id path int true "Tax ID"
// @Success      200 {object} APIResponse[taxapp.TaxResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/{id}/force-change [post]
func (h *TaxHandler) ForceChange(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tax ID")
		return
	}

	t, err := h.service.ToggleForceChange(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Calculate godoc
// @ID           calculateTax
// @Summary      Calculate taxes on a price
// @Description  Applies the given active taxes to base_price minus discount and returns the final price with a per tax breakdown
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request body taxapp.CalculateRequest true "Calculation input"
// @Success      200 {object} APIResponse[taxapp.CalculateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tax/calculate [post]
func (h *TaxHandler) Calculate(c *gin.Context) {
	var req taxapp.CalculateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.Calculate(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
