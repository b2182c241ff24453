package dto

import (
	"net/url"
	"strconv"

	"github.com/erp/taxsvc/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents error details. Detail carries the message in the
// shape clients of the auth service expect.
type ErrorInfo struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Detail  string             `json:"detail,omitempty"`
	Details []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names a rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewDetailErrorResponse creates an error response whose detail repeats
// the message
func NewDetailErrorResponse(code, message string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.Detail = message
	return resp
}

// NewValidationErrorResponse creates a validation error response listing
// the rejected fields
func NewValidationErrorResponse(message string, details []ValidationDetail) Response {
	resp := NewErrorResponse(ErrCodeValidation, message)
	resp.Error.Details = details
	return resp
}

// Page is a paginated list as returned by list endpoints
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Results  []T     `json:"results"`
}

// NewPage builds the page envelope. requestURL is the absolute URL of the
// list request; next and previous links keep its query and swap the page.
func NewPage[T any](p shared.Paginated[T], requestURL *url.URL) Page[T] {
	results := p.Items
	if results == nil {
		results = []T{}
	}
	page := Page[T]{
		Count:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Results:  results,
	}
	if p.HasNext() {
		page.Next = pageLink(requestURL, p.Page+1)
	}
	if p.HasPrevious() {
		page.Previous = pageLink(requestURL, p.Page-1)
	}
	return page
}

func pageLink(base *url.URL, page int) *string {
	if base == nil {
		return nil
	}
	u := *base
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
