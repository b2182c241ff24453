package dto

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/erp/taxsvc/internal/domain/shared"
)

// PageLimits bounds the page size a client may ask for
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Query parameters with a fixed meaning, never read as field filters
var reservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"paging":    true,
	"search":    true,
	"ordering":  true,
	"scopes":    true,
	"id":        true,
	"isSortAsc": true,
	"sortBy":    true,
}

var operatorAliases = map[string]string{
	">":  shared.OpGT,
	">=": shared.OpGTE,
	"<":  shared.OpLT,
	"<=": shared.OpLTE,
}

var knownOperators = map[string]bool{
	shared.OpLike:     true,
	shared.OpNotLike:  true,
	shared.OpEqual:    true,
	shared.OpNotEqual: true,
	shared.OpLT:       true,
	shared.OpLTE:      true,
	shared.OpGT:       true,
	shared.OpGTE:      true,
	shared.OpIn:       true,
	shared.OpNotIn:    true,
	shared.OpIsSet:    true,
	shared.OpIsNotSet: true,
}

// ParseListQuery turns list query parameters into a filter. Ordering terms,
// search scopes and field filters are passed through as given; the
// repository checks them against the entity's whitelists.
func ParseListQuery(values url.Values, limits PageLimits) shared.Filter {
	filter := shared.DefaultFilter()
	if limits.DefaultPageSize > 0 {
		filter.PageSize = limits.DefaultPageSize
	}

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if ps, err := strconv.Atoi(values.Get("page_size")); err == nil && ps > 0 {
		filter.PageSize = ps
	}
	if limits.MaxPageSize > 0 && filter.PageSize > limits.MaxPageSize {
		filter.PageSize = limits.MaxPageSize
	}
	if strings.EqualFold(values.Get("paging"), "false") {
		filter.Unpaged = true
	}

	if ordering := strings.TrimSpace(values.Get("ordering")); ordering != "" && ordering != "-" {
		filter.Ordering = splitList(ordering)
	}
	if id, err := strconv.ParseInt(values.Get("id"), 10, 64); err == nil {
		filter.ID = &id
	}
	filter.Search = strings.TrimSpace(values.Get("search"))
	if scopes := values.Get("scopes"); scopes != "" {
		filter.Scopes = splitList(scopes)
	}

	for key, params := range values {
		if reservedParams[key] {
			continue
		}
		for _, raw := range params {
			if cond, ok := ParseCondition(key, raw); ok {
				filter.Conditions = append(filter.Conditions, cond)
			}
		}
	}
	return filter
}

// ParseCondition reads one field filter. The value is either "op,value",
// a bare operator (is_set, is_not_set), a bare boolean or a bare value
// compared for equality. An operator the parser does not know falls back
// to equality; a malformed list value is skipped.
func ParseCondition(field, raw string) (shared.Condition, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return shared.Condition{}, false
	}

	op, value := "", any(raw)
	switch {
	case strings.Contains(raw, ","):
		head, tail, _ := strings.Cut(raw, ",")
		op, value = strings.TrimSpace(head), strings.TrimSpace(tail)
	case raw == shared.OpIsSet || raw == shared.OpIsNotSet:
		op, value = raw, nil
	case raw == "true":
		value = true
	case raw == "false":
		value = false
	}

	if alias, ok := operatorAliases[op]; ok {
		op = alias
	}
	if !knownOperators[op] {
		op = shared.OpEqual
	}

	if op == shared.OpIn || op == shared.OpNotIn {
		list, ok := parseListValue(value.(string))
		if !ok {
			return shared.Condition{}, false
		}
		value = list
	}
	return shared.Condition{Field: field, Operator: op, Value: value}, true
}

// parseListValue reads a JSON style list such as [1, 2] or ["a", "b"].
// Single quotes are accepted.
func parseListValue(s string) ([]any, bool) {
	s = strings.ReplaceAll(s, "'", `"`)
	var out []any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
