package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ParseOrdering turns ordering terms such as "-name" into order clauses.
// Terms outside the whitelist are dropped; an empty result falls back to id DESC.
func ParseOrdering(terms []string, allowedFields map[string]bool) []clause.OrderByColumn {
	var out []clause.OrderByColumn
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		field := ValidateSortField(strings.TrimPrefix(term, "-"), allowedFields, "")
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: desc})
	}
	if len(out) == 0 {
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
	}
	return out
}

// CommonSortFields contains the revision and audit columns every tracked table has
var CommonSortFields = map[string]bool{
	"id":          true,
	"create_date": true,
	"write_date":  true,
}

// TaxCategorySortFields contains allowed sort fields for tax categories
var TaxCategorySortFields = map[string]bool{
	"id":          true,
	"create_date": true,
	"write_date":  true,
	"code":        true,
	"name":        true,
	"description": true,
}

// TaxSortFields contains allowed sort fields for taxes
var TaxSortFields = map[string]bool{
	"id":                  true,
	"create_date":         true,
	"write_date":          true,
	"code":                true,
	"name":                true,
	"amount":              true,
	"amount_type":         true,
	"type":                true,
	"tax_option":          true,
	"tax_discount_option": true,
	"is_active":           true,
}
