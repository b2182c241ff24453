package revision

import (
	"fmt"
	"sort"
)

// DefaultSequenceField is the code column excluded from comparison when a
// config does not name one
const DefaultSequenceField = "reference_no"

// Config declares how one entity type is tracked
type Config struct {
	// Entity is the type name reported in configuration errors
	Entity string
	// Table is the table holding every revision of the entity
	Table string
	// Fields lists the business columns returned by Snapshot
	Fields []string
	// Exclude lists business columns that never trigger a new revision
	Exclude []string
	// SequenceField is the generated code column, always excluded
	SequenceField string
	// KeepHistoryIf restricts history to records whose pre-update state
	// matches. Nil keeps history for every change.
	KeepHistoryIf *Condition
	// Associations lists the many-to-many relations copied on fork
	Associations []Association
}

// Association describes a many-to-many relation stored in a join table
type Association struct {
	Name          string
	JoinTable     string
	OwnerColumn   string
	RelatedColumn string
}

// Validate checks the config and returns a *ConfigError naming the entity
func (c Config) Validate() error {
	if c.Entity == "" {
		return &ConfigError{Entity: "<unnamed>", Reason: "entity name is required"}
	}
	if c.Table == "" {
		return &ConfigError{Entity: c.Entity, Reason: "table is required"}
	}
	if len(c.Fields) == 0 {
		return &ConfigError{Entity: c.Entity, Reason: "at least one field is required"}
	}
	known := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if IsMetaColumn(f) {
			return &ConfigError{Entity: c.Entity, Reason: fmt.Sprintf("field %q is reserved for revision metadata", f)}
		}
		known[f] = true
	}
	for _, f := range c.Exclude {
		if !known[f] {
			return &ConfigError{Entity: c.Entity, Reason: fmt.Sprintf("excluded field %q is not declared", f)}
		}
	}
	for _, a := range c.Associations {
		if a.Name == "" || a.JoinTable == "" || a.OwnerColumn == "" || a.RelatedColumn == "" {
			return &ConfigError{Entity: c.Entity, Reason: fmt.Sprintf("association %q is incomplete", a.Name)}
		}
	}
	if c.KeepHistoryIf != nil {
		if err := c.KeepHistoryIf.validate(known); err != nil {
			return &ConfigError{Entity: c.Entity, Reason: err.Error()}
		}
	}
	return nil
}

// Sequence returns the sequence column name
func (c Config) Sequence() string {
	if c.SequenceField == "" {
		return DefaultSequenceField
	}
	return c.SequenceField
}

// Comparable returns the sorted columns that decide whether a change forks
func (c Config) Comparable() []string {
	skip := map[string]bool{c.Sequence(): true}
	for _, f := range c.Exclude {
		skip[f] = true
	}
	cols := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		if skip[f] || IsMetaColumn(f) {
			continue
		}
		cols = append(cols, f)
	}
	sort.Strings(cols)
	return cols
}

// KeepHistory evaluates the keep-history predicate against the record's
// state before the update
func (c Config) KeepHistory(before Snapshot) (bool, error) {
	if c.KeepHistoryIf == nil {
		return true, nil
	}
	ok, err := c.KeepHistoryIf.Match(before)
	if err != nil {
		return false, &ConfigError{Entity: c.Entity, Reason: err.Error()}
	}
	return ok, nil
}
