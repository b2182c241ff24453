package handler

import (
	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/erp/taxsvc/internal/interfaces/http/dto"
)

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// TaxCategoryPage is a page of tax categories
// @Description Paginated tax categories
type TaxCategoryPage = dto.Page[taxapp.TaxCategoryResponse]

// TaxPage is a page of taxes
// @Description Paginated taxes
type TaxPage = dto.Page[taxapp.TaxResponse]
