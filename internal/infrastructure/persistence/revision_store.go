package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// trackedRecord constrains the store to pointers of tracked entity structs
type trackedRecord[T any] interface {
	*T
	revision.Tracked
}

// RevisionStore persists tracked entities as chains of immutable revisions.
// An update that changes a comparable field inserts a new head and
// deactivates the previous one inside a single transaction.
type RevisionStore[T any, PT trackedRecord[T]] struct {
	db       *gorm.DB
	cfg      revision.Config
	sequence *CodeSequence
	now      func() time.Time
}

// StoreOption configures a RevisionStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	sequence *CodeSequence
	now      func() time.Time
}

// WithCodeSequence generates the sequence field on insert when it is empty
func WithCodeSequence(prefix string, numberLength int) StoreOption {
	return func(o *storeOptions) {
		o.sequence = &CodeSequence{Prefix: prefix, NumberLength: numberLength}
	}
}

// WithClock overrides the time source used for audit timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

// NewRevisionStore creates a store for one entity type. The config is
// validated here so a malformed declaration fails at startup.
func NewRevisionStore[T any, PT trackedRecord[T]](db *gorm.DB, cfg revision.Config, opts ...StoreOption) (*RevisionStore[T, PT], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sequence != nil {
		o.sequence.Column = cfg.Sequence()
	}
	return &RevisionStore[T, PT]{
		db:       db,
		cfg:      cfg,
		sequence: o.sequence,
		now:      o.now,
	}, nil
}

// Config returns the tracking configuration of the store
func (s *RevisionStore[T, PT]) Config() revision.Config {
	return s.cfg
}

// DB returns the underlying database handle
func (s *RevisionStore[T, PT]) DB() *gorm.DB {
	return s.db
}

// Save inserts a new chain root or applies an update to an active head
func (s *RevisionStore[T, PT]) Save(ctx context.Context, rec PT) (revision.Outcome, error) {
	if rec.GetRevision().IsNew() {
		return revision.OutcomeCreated, s.insert(ctx, rec)
	}
	return s.update(ctx, rec)
}

func (s *RevisionStore[T, PT]) insert(ctx context.Context, rec PT) error {
	rev := rec.GetRevision()
	audit := rec.GetAudit()
	now := s.now()

	rev.Active = true
	rev.PreviousID = nil
	rev.InitialID = nil
	rev.ForceChange = false
	rev.Version = 1
	if audit.CreateDate == nil {
		audit.CreateDate = &now
	}
	if audit.WriteDate == nil {
		audit.WriteDate = audit.CreateDate
	}
	if audit.WriteUID == nil {
		audit.WriteUID = audit.CreateUID
	}

	seq, generated := any(rec).(revision.Sequenced)
	generated = generated && s.sequence != nil && seq.SequenceCode() == ""

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if generated {
			code, err := s.sequence.Next(tx, new(T), audit.CompanyID, audit.BranchID)
			if err != nil {
				return err
			}
			seq.SetSequenceCode(code)
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to insert %s: %w", s.cfg.Entity, err)
		}
		return s.writeAssociations(tx, rev.ID, rec, nil)
	})
	if err != nil {
		rev.ID = 0
		if generated {
			seq.SetSequenceCode("")
		}
		return err
	}
	return nil
}

func (s *RevisionStore[T, PT]) update(ctx context.Context, rec PT) (revision.Outcome, error) {
	rev := rec.GetRevision()
	if !rev.Active {
		return "", revision.ErrInactiveRevision
	}

	// Version and WriteDate are staged on rec and restored on failure
	version, writeDate := rev.Version, rec.GetAudit().WriteDate

	var outcome revision.Outcome
	var forked T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", rev.ID).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		currentRec := PT(&current)
		currentRev := currentRec.GetRevision()
		if !currentRev.Active {
			return revision.ErrInactiveRevision
		}
		if rev.Version != currentRev.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := s.loadAssociations(tx, []PT{currentRec}); err != nil {
			return err
		}

		rec.GetAudit().WriteDate = ptr(s.now())

		keep, err := s.cfg.KeepHistory(currentRec.Snapshot())
		if err != nil {
			return err
		}
		if !keep {
			outcome = revision.OutcomeUpdated
			return s.updateInPlace(tx, rec, currentRec)
		}
		changed := s.changes(currentRec, rec)
		if len(changed) == 0 && !currentRev.ForceChange {
			outcome = revision.OutcomeUnchanged
			if len(currentRec.Snapshot().Diff(rec.Snapshot(), s.cfg.Fields)) > 0 {
				outcome = revision.OutcomeUpdated
			}
			return s.updateInPlace(tx, rec, currentRec)
		}

		outcome = revision.OutcomeForked
		next, err := s.fork(tx, rec, currentRec)
		if err != nil {
			return err
		}
		forked = *next
		return nil
	})
	if err != nil {
		rev.Version = version
		rec.GetAudit().WriteDate = writeDate
		return "", err
	}
	if outcome == revision.OutcomeForked {
		*rec = forked
	}
	return outcome, nil
}

// changes lists the comparable columns and associations that differ
// between the persisted head and the proposed record
func (s *RevisionStore[T, PT]) changes(current, proposed PT) []string {
	changed := current.Snapshot().Diff(proposed.Snapshot(), s.cfg.Comparable())
	cur, okCur := any(current).(revision.Associated)
	next, okNext := any(proposed).(revision.Associated)
	if !okCur || !okNext {
		return changed
	}
	for _, a := range s.cfg.Associations {
		ids := next.AssociationIDs(a.Name)
		if ids != nil && !revision.SameIDs(ids, cur.AssociationIDs(a.Name)) {
			changed = append(changed, a.Name)
		}
	}
	return changed
}

var inPlaceOmit = []string{
	"id", "active", "previous_id", "initial_id", "force_change",
	"create_uid", "create_date", "company_id", "branch_id",
}

func (s *RevisionStore[T, PT]) updateInPlace(tx *gorm.DB, rec, current PT) error {
	rev := rec.GetRevision()
	expected := current.GetRevision().Version
	rev.Version = expected + 1

	res := tx.Model(rec).
		Where("version = ?", expected).
		Select("*").
		Omit(inPlaceOmit...).
		Updates(rec)
	if res.Error != nil {
		rev.Version = expected
		return fmt.Errorf("failed to update %s: %w", s.cfg.Entity, res.Error)
	}
	if res.RowsAffected == 0 {
		rev.Version = expected
		return shared.ErrConcurrencyConflict
	}

	if assoc, ok := any(rec).(revision.Associated); ok {
		for _, a := range s.cfg.Associations {
			ids := assoc.AssociationIDs(a.Name)
			if ids == nil {
				assoc.SetAssociationIDs(a.Name, any(current).(revision.Associated).AssociationIDs(a.Name))
				continue
			}
			if err := s.replaceAssociation(tx, a, rev.ID, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

// fork inserts the proposed state as the new head of the chain, copies the
// association rows and deactivates the previous head
func (s *RevisionStore[T, PT]) fork(tx *gorm.DB, rec, current PT) (PT, error) {
	next := *rec
	nextRec := PT(&next)
	currentRev := current.GetRevision()
	oldID := currentRev.ID
	rootID := currentRev.RootID()

	rev := nextRec.GetRevision()
	rev.ID = 0
	rev.PreviousID = &oldID
	rev.InitialID = &rootID
	rev.Active = true
	rev.ForceChange = false
	rev.Version = 1

	audit := nextRec.GetAudit()
	prevAudit := current.GetAudit()
	audit.CreateDate = audit.WriteDate
	audit.CreateUID = audit.WriteUID
	audit.CompanyID = prevAudit.CompanyID
	audit.BranchID = prevAudit.BranchID

	if err := tx.Create(nextRec).Error; err != nil {
		return nil, fmt.Errorf("failed to insert %s revision: %w", s.cfg.Entity, err)
	}
	if err := s.writeAssociations(tx, rev.ID, nextRec, current); err != nil {
		return nil, err
	}

	res := tx.Model(new(T)).
		Where("id = ? AND active = ?", oldID, true).
		Update("active", false)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to deactivate %s revision: %w", s.cfg.Entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, shared.ErrConcurrencyConflict
	}

	var reloaded T
	if err := tx.Where("id = ?", rev.ID).First(&reloaded).Error; err != nil {
		return nil, fmt.Errorf("failed to reload %s revision: %w", s.cfg.Entity, err)
	}
	out := PT(&reloaded)
	if err := s.loadAssociations(tx, []PT{out}); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes every revision of the chain containing id. The chain is
// kept intact when another table still references one of its members.
func (s *RevisionStore[T, PT]) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row T
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		rootID := PT(&row).GetRevision().RootID()

		var ids []int64
		if err := tx.Model(new(T)).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? OR initial_id = ?", rootID, rootID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		for _, a := range s.cfg.Associations {
			if err := tx.Exec(
				fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", a.JoinTable, a.OwnerColumn), ids,
			).Error; err != nil {
				return translateDeleteError(err)
			}
		}
		if err := tx.Where("id IN ?", ids).Delete(new(T)).Error; err != nil {
			return translateDeleteError(err)
		}
		return nil
	})
}

// FindByID returns a single revision with its associations
func (s *RevisionStore[T, PT]) FindByID(ctx context.Context, id int64) (PT, error) {
	db := s.db.WithContext(ctx)
	var row T
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rec := PT(&row)
	if err := s.loadAssociations(db, []PT{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the active head of the chain containing rec, or rec itself
// when no active member is stored
func (s *RevisionStore[T, PT]) Latest(ctx context.Context, rec PT) (PT, error) {
	rootID := rec.GetRevision().RootID()
	if rootID == 0 {
		return rec, nil
	}
	db := s.db.WithContext(ctx)
	var head T
	err := db.Where("active = ? AND (id = ? OR initial_id = ?)", true, rootID, rootID).
		Order("id DESC").
		First(&head).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, nil
	}
	if err != nil {
		return nil, err
	}
	out := PT(&head)
	if err := s.loadAssociations(db, []PT{out}); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns every revision of the chain containing id, oldest first
func (s *RevisionStore[T, PT]) History(ctx context.Context, id int64) ([]T, error) {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rootID := rec.GetRevision().RootID()

	db := s.db.WithContext(ctx)
	var rows []T
	if err := db.Where("id = ? OR initial_id = ?", rootID, rootID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if err := s.loadAssociations(db, pointers[T, PT](rows)); err != nil {
		return nil, err
	}
	return rows, nil
}

// ToggleForceChange flips the force change flag of an active head and
// persists it immediately
func (s *RevisionStore[T, PT]) ToggleForceChange(ctx context.Context, id int64) (PT, error) {
	var out PT
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		rec := PT(&row)
		rev := rec.GetRevision()
		if !rev.Active {
			return revision.ErrInactiveRevision
		}
		rev.ForceChange = !rev.ForceChange
		if err := tx.Model(new(T)).Where("id = ?", id).Update("force_change", rev.ForceChange).Error; err != nil {
			return fmt.Errorf("failed to toggle force change on %s: %w", s.cfg.Entity, err)
		}
		out = rec
		return s.loadAssociations(tx, []PT{rec})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a page of active heads matching the filter
func (s *RevisionStore[T, PT]) List(ctx context.Context, filter shared.Filter, spec ListSpec) (shared.Paginated[T], error) {
	db := s.db.WithContext(ctx)
	query, err := applyListFilter(db.Model(new(T)), filter, spec)
	if err != nil {
		return shared.Paginated[T]{}, err
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paginated[T]{}, err
	}

	var rows []T
	if err := applyOrderingAndPaging(query, filter, spec).Find(&rows).Error; err != nil {
		return shared.Paginated[T]{}, err
	}
	if err := s.loadAssociations(db, pointers[T, PT](rows)); err != nil {
		return shared.Paginated[T]{}, err
	}
	return shared.NewPaginated(rows, total, filter), nil
}

type joinRow struct {
	OwnerID   int64
	RelatedID int64
}

func (s *RevisionStore[T, PT]) loadAssociations(db *gorm.DB, recs []PT) error {
	if len(s.cfg.Associations) == 0 || len(recs) == 0 {
		return nil
	}
	byID := make(map[int64]revision.Associated, len(recs))
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		assoc, ok := any(r).(revision.Associated)
		if !ok {
			return nil
		}
		id := r.GetRevision().ID
		byID[id] = assoc
		ids = append(ids, id)
	}

	for _, a := range s.cfg.Associations {
		var rows []joinRow
		if err := db.Table(a.JoinTable).
			Select(fmt.Sprintf("%s AS owner_id, %s AS related_id", a.OwnerColumn, a.RelatedColumn)).
			Where(a.OwnerColumn+" IN ?", ids).
			Order(a.RelatedColumn).
			Scan(&rows).Error; err != nil {
			return fmt.Errorf("failed to load %s of %s: %w", a.Name, s.cfg.Entity, err)
		}
		related := make(map[int64][]int64, len(ids))
		for _, row := range rows {
			related[row.OwnerID] = append(related[row.OwnerID], row.RelatedID)
		}
		for id, assoc := range byID {
			list := related[id]
			if list == nil {
				list = []int64{}
			}
			assoc.SetAssociationIDs(a.Name, list)
		}
	}
	return nil
}

// writeAssociations inserts join rows for a freshly inserted row. Relations
// the record leaves nil are copied from source when one is given.
func (s *RevisionStore[T, PT]) writeAssociations(tx *gorm.DB, ownerID int64, rec, source PT) error {
	assoc, ok := any(rec).(revision.Associated)
	if !ok {
		return nil
	}
	for _, a := range s.cfg.Associations {
		ids := assoc.AssociationIDs(a.Name)
		if ids == nil && source != nil {
			ids = any(source).(revision.Associated).AssociationIDs(a.Name)
		}
		if err := s.insertJoinRows(tx, a, ownerID, ids); err != nil {
			return err
		}
		assoc.SetAssociationIDs(a.Name, append([]int64{}, ids...))
	}
	return nil
}

func (s *RevisionStore[T, PT]) replaceAssociation(tx *gorm.DB, a revision.Association, ownerID int64, ids []int64) error {
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", a.JoinTable, a.OwnerColumn), ownerID).Error; err != nil {
		return fmt.Errorf("failed to clear %s of %s: %w", a.Name, s.cfg.Entity, err)
	}
	return s.insertJoinRows(tx, a, ownerID, ids)
}

func (s *RevisionStore[T, PT]) insertJoinRows(tx *gorm.DB, a revision.Association, ownerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, map[string]any{a.OwnerColumn: ownerID, a.RelatedColumn: id})
	}
	if err := tx.Table(a.JoinTable).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write %s of %s: %w", a.Name, s.cfg.Entity, err)
	}
	return nil
}

// translateDeleteError maps a referential protection failure to the domain
// error. The connection is opened with TranslateError so every dialector
// reports it as gorm.ErrForeignKeyViolated.
func translateDeleteError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return revision.ErrReferencedElsewhere
	}
	return err
}

func pointers[T any, PT trackedRecord[T]](rows []T) []PT {
	out := make([]PT, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out
}

func ptr[V any](v V) *V {
	return &v
}
