// Package handler holds the gin handlers of the tax service.
package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
	"github.com/erp/taxsvc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RevisionOutcomeHeader reports what an update did to the revision chain
const RevisionOutcomeHeader = "X-Revision-Outcome"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	limits dto.PageLimits
}

// NewBaseHandler creates a BaseHandler bounding list pages with limits
func NewBaseHandler(limits dto.PageLimits) BaseHandler {
	return BaseHandler{limits: limits}
}

// actorFrom builds the use case actor from the JWT claims
func actorFrom(c *gin.Context) taxapp.Actor {
	actor := taxapp.Actor{
		CompanyID: middleware.GetJWTCompanyID(c),
		BranchID:  middleware.GetJWTBranchID(c),
	}
	if userID := middleware.GetJWTUserID(c); userID != 0 {
		actor.UserID = &userID
	}
	return actor
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requestURL returns the absolute URL of the request, honouring
// X-Forwarded-Proto from a proxy
func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Host = c.Request.Host
	switch {
	case c.GetHeader("X-Forwarded-Proto") != "":
		u.Scheme = c.GetHeader("X-Forwarded-Proto")
	case c.Request.TLS != nil:
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	return &u
}

// listFilter parses the list query parameters of the request
func (h *BaseHandler) listFilter(c *gin.Context) shared.Filter {
	return dto.ParseListQuery(c.Request.URL.Query(), h.limits)
}

// bindJSON binds the request body and writes the 400 response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		middleware.HandleValidationError(c, err)
	case errors.Is(err, io.EOF):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is empty")
	default:
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
	}
	return false
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Page sends a list result: the page envelope, or the bare items when
// paging is off
func Page[T any](h *BaseHandler, c *gin.Context, result shared.Paginated[T]) {
	if result.Unpaged {
		items := result.Items
		if items == nil {
			items = []T{}
		}
		h.Success(c, items)
		return
	}
	h.Success(c, dto.NewPage(result, requestURL(c)))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps domain errors to their API code and status. Anything
// else is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.InternalError(c, "An unexpected error occurred")
}
