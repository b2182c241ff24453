package revision

import (
	"fmt"

	"github.com/erp/taxsvc/internal/domain/shared"
)

// Revision errors
var (
	ErrInactiveRevision    = shared.NewDomainError("INACTIVE_REVISION", "update not allowed on an inactive revision")
	ErrReferencedElsewhere = shared.NewDomainError("REFERENCED_ELSEWHERE", "cannot delete: referenced elsewhere")
)

// ConfigError reports a malformed tracking configuration for an entity type
type ConfigError struct {
	Entity string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid revision config for %s: %s", e.Entity, e.Reason)
}
