package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	// Unpaged returns every matching row, ignoring Page and PageSize
	Unpaged bool
	// Ordering holds validated sort terms, "-" prefixed for descending
	Ordering []string
	Search   string
	Scopes   []string
	ID       *int64
	// Conditions are field filters parsed from query parameters
	Conditions []Condition
	CompanyID  *int64
	BranchID   *int64
}

// Condition is a single field filter such as "name like foo"
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Supported condition operators
const (
	OpLike     = "like"
	OpNotLike  = "not_like"
	OpEqual    = "equal"
	OpNotEqual = "not_equal"
	OpLT       = "lt"
	OpLTE      = "lte"
	OpGT       = "gt"
	OpGTE      = "gte"
	OpIn       = "in"
	OpNotIn    = "not_in"
	OpIsSet    = "is_set"
	OpIsNotSet = "is_not_set"
)

// DefaultPageSize is used when the caller does not ask for one
const DefaultPageSize = 10

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		Ordering: []string{"-id"},
	}
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Unpaged  bool  `json:"-"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, filter Filter) Paginated[T] {
	return Paginated[T]{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Unpaged:  filter.Unpaged,
	}
}

// HasNext reports whether a page exists after the current one
func (p Paginated[T]) HasNext() bool {
	if p.Unpaged || p.PageSize <= 0 {
		return false
	}
	return int64(p.Page*p.PageSize) < p.Total
}

// HasPrevious reports whether a page exists before the current one
func (p Paginated[T]) HasPrevious() bool {
	return !p.Unpaged && p.Page > 1
}
