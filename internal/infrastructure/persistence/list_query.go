package persistence

import (
	"fmt"
	"strings"

	"github.com/erp/taxsvc/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListSpec declares which columns of a table can be searched, sorted and
// filtered from a list request
type ListSpec struct {
	SearchFields []string
	SortFields   map[string]bool
	FilterFields map[string]bool
	// UseBranchFilter scopes rows to the caller's branch as well as the company
	UseBranchFilter bool
}

// ErrInvalidSearchScope is returned when a search scope names a column that
// is not searchable
func ErrInvalidSearchScope(scope string) error {
	return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid search scope: %s", scope))
}

// applyListFilter adds the WHERE conditions of a list request: active heads
// only, tenant scope, id, search and field filters
func applyListFilter(db *gorm.DB, filter shared.Filter, spec ListSpec) (*gorm.DB, error) {
	query := db.Where("active = ?", true)

	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if spec.UseBranchFilter && filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		fields, err := searchFields(filter.Scopes, spec.SearchFields)
		if err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			pattern := "%" + strings.ToLower(search) + "%"
			parts := make([]string, len(fields))
			args := make([]any, len(fields))
			for i, f := range fields {
				parts[i] = fmt.Sprintf("LOWER(%s) LIKE ?", f)
				args[i] = pattern
			}
			// gorm wraps a multi-clause OR expression in parentheses
			query = query.Where(strings.Join(parts, " OR "), args...)
		}
	}

	for _, cond := range filter.Conditions {
		if !spec.FilterFields[cond.Field] {
			continue
		}
		query = applyCondition(query, cond)
	}
	return query, nil
}

func searchFields(scopes, allowed []string) ([]string, error) {
	if len(scopes) == 0 {
		return allowed, nil
	}
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !known[s] {
			return nil, ErrInvalidSearchScope(s)
		}
		out = append(out, s)
	}
	return out, nil
}

// applyCondition renders one field filter. The column name has already been
// checked against the whitelist.
func applyCondition(query *gorm.DB, cond shared.Condition) *gorm.DB {
	col := cond.Field
	switch cond.Operator {
	case shared.OpLike:
		return query.Where(fmt.Sprintf("LOWER(%s) LIKE ?", col), likePattern(cond.Value))
	case shared.OpNotLike:
		return query.Where(fmt.Sprintf("LOWER(%s) NOT LIKE ?", col), likePattern(cond.Value))
	case shared.OpEqual:
		return query.Where(fmt.Sprintf("%s = ?", col), cond.Value)
	case shared.OpNotEqual:
		return query.Where(fmt.Sprintf("%s <> ?", col), cond.Value)
	case shared.OpLT:
		return query.Where(fmt.Sprintf("%s < ?", col), cond.Value)
	case shared.OpLTE:
		return query.Where(fmt.Sprintf("%s <= ?", col), cond.Value)
	case shared.OpGT:
		return query.Where(fmt.Sprintf("%s > ?", col), cond.Value)
	case shared.OpGTE:
		return query.Where(fmt.Sprintf("%s >= ?", col), cond.Value)
	case shared.OpIn:
		values, ok := cond.Value.([]any)
		if !ok || len(values) == 0 {
			return query
		}
		return query.Where(fmt.Sprintf("%s IN ?", col), values)
	case shared.OpNotIn:
		values, ok := cond.Value.([]any)
		if !ok || len(values) == 0 {
			return query
		}
		return query.Where(fmt.Sprintf("%s NOT IN ?", col), values)
	case shared.OpIsSet:
		return query.Where(fmt.Sprintf("%s IS NOT NULL", col))
	case shared.OpIsNotSet:
		return query.Where(fmt.Sprintf("%s IS NULL", col))
	default:
		return query
	}
}

func likePattern(v any) string {
	return "%" + strings.ToLower(fmt.Sprint(v)) + "%"
}

// applyOrderingAndPaging adds ORDER BY and, unless the filter is unpaged,
// LIMIT and OFFSET
func applyOrderingAndPaging(query *gorm.DB, filter shared.Filter, spec ListSpec) *gorm.DB {
	query = query.Clauses(clause.OrderBy{Columns: ParseOrdering(filter.Ordering, spec.SortFields)})
	if filter.Unpaged || filter.PageSize <= 0 {
		return query
	}
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}
