package revision

import (
	"errors"
	"fmt"
)

// Condition operators
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpIn       = "in"
	OpNotIn    = "not_in"
	OpIsSet    = "is_set"
	OpIsNotSet = "is_not_set"
)

// Clause compares one column of a snapshot
type Clause struct {
	Column string
	Op     string
	Values []any
}

// Condition is a conjunction of clauses
type Condition struct {
	Clauses []Clause
}

// When builds a condition from clauses
func When(clauses ...Clause) *Condition {
	return &Condition{Clauses: clauses}
}

// Eq matches when column equals value
func Eq(column string, value any) Clause {
	return Clause{Column: column, Op: OpEq, Values: []any{value}}
}

// In matches when column equals any of values
func In(column string, values ...any) Clause {
	return Clause{Column: column, Op: OpIn, Values: values}
}

// Match reports whether the snapshot satisfies every clause
func (c *Condition) Match(s Snapshot) (bool, error) {
	if len(c.Clauses) == 0 {
		return false, errors.New("empty keep-history condition")
	}
	for _, cl := range c.Clauses {
		v, ok := s[cl.Column]
		if !ok {
			return false, fmt.Errorf("unknown column %q", cl.Column)
		}
		matched, err := cl.match(v)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func (cl Clause) match(v any) (bool, error) {
	switch cl.Op {
	case OpEq:
		if len(cl.Values) != 1 {
			return false, fmt.Errorf("%s on %q needs exactly one value", cl.Op, cl.Column)
		}
		return Equal(v, cl.Values[0]), nil
	case OpNe:
		if len(cl.Values) != 1 {
			return false, fmt.Errorf("%s on %q needs exactly one value", cl.Op, cl.Column)
		}
		return !Equal(v, cl.Values[0]), nil
	case OpIn, OpNotIn:
		found := false
		for _, want := range cl.Values {
			if Equal(v, want) {
				found = true
				break
			}
		}
		if cl.Op == OpIn {
			return found, nil
		}
		return !found, nil
	case OpIsSet:
		return !isNil(v), nil
	case OpIsNotSet:
		return isNil(v), nil
	default:
		return false, fmt.Errorf("unsupported operator %q on %q", cl.Op, cl.Column)
	}
}

func (c *Condition) validate(known map[string]bool) error {
	if len(c.Clauses) == 0 {
		return errors.New("empty keep-history condition")
	}
	for _, cl := range c.Clauses {
		if !known[cl.Column] {
			return fmt.Errorf("keep-history condition references unknown column %q", cl.Column)
		}
		switch cl.Op {
		case OpEq, OpNe:
			if len(cl.Values) != 1 {
				return fmt.Errorf("%s on %q needs exactly one value", cl.Op, cl.Column)
			}
		case OpIn, OpNotIn:
			if len(cl.Values) == 0 {
				return fmt.Errorf("%s on %q needs at least one value", cl.Op, cl.Column)
			}
		case OpIsSet, OpIsNotSet:
		default:
			return fmt.Errorf("unsupported operator %q on %q", cl.Op, cl.Column)
		}
	}
	return nil
}
