// Package revision defines the history-tracking model shared by every
// entity whose updates are kept as an append-only chain of revisions.
package revision

import (
	"time"
)

// Revision holds the chain bookkeeping embedded by tracked entities.
// The root of a chain has no PreviousID and no InitialID; every later
// member points back at its predecessor and at the root.
type Revision struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Active      bool   `gorm:"not null;index" json:"active"`
	PreviousID  *int64 `gorm:"index" json:"previous_id"`
	InitialID   *int64 `gorm:"index" json:"initial_id"`
	ForceChange bool   `gorm:"not null;default:false" json:"force_change"`
	Version     int    `gorm:"not null;default:1" json:"version"`
}

// GetRevision returns the embedded revision fields
func (r *Revision) GetRevision() *Revision {
	return r
}

// RootID returns the id of the first revision of the chain
func (r *Revision) RootID() int64 {
	if r.InitialID != nil {
		return *r.InitialID
	}
	return r.ID
}

// IsRoot reports whether the revision starts its chain
func (r *Revision) IsRoot() bool {
	return r.PreviousID == nil
}

// IsNew reports whether the record has not been persisted yet
func (r *Revision) IsNew() bool {
	return r.ID == 0
}

// Audit holds creation and modification metadata. It is never compared
// when deciding whether a change needs a new revision.
type Audit struct {
	CreateUID  *int64     `gorm:"column:create_uid" json:"create_uid"`
	WriteUID   *int64     `gorm:"column:write_uid" json:"write_uid"`
	BranchID   *int64     `gorm:"index" json:"branch_id"`
	CompanyID  *int64     `gorm:"index" json:"company_id"`
	CreateDate *time.Time `json:"create_date"`
	WriteDate  *time.Time `json:"write_date"`
}

// GetAudit returns the embedded audit fields
func (a *Audit) GetAudit() *Audit {
	return a
}

// Touch stamps the record as written by actor at the given time
func (a *Audit) Touch(actor *int64, at time.Time) {
	a.WriteUID = actor
	a.WriteDate = &at
}

// Tracked is implemented by entities stored through a revision store
type Tracked interface {
	GetRevision() *Revision
	GetAudit() *Audit
	// Snapshot returns the business columns of the record keyed by column name
	Snapshot() Snapshot
}

// Associated is implemented by tracked entities that carry many-to-many
// relations. A nil id slice means the relation was not loaded or not
// supplied by the caller, so the persisted set is kept.
type Associated interface {
	AssociationIDs(name string) []int64
	SetAssociationIDs(name string, ids []int64)
}

// Sequenced is implemented by entities carrying a generated code
type Sequenced interface {
	SequenceCode() string
	SetSequenceCode(code string)
}

// Outcome describes what a save did
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeForked    Outcome = "forked"
)

// Metadata and chain columns, never part of a change comparison
var metaColumns = []string{
	"id",
	"active",
	"previous_id",
	"initial_id",
	"force_change",
	"version",
	"create_uid",
	"write_uid",
	"create_date",
	"write_date",
	"branch_id",
	"company_id",
}

// IsMetaColumn reports whether column is revision or audit bookkeeping
func IsMetaColumn(column string) bool {
	for _, c := range metaColumns {
		if c == column {
			return true
		}
	}
	return false
}
