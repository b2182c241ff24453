// Package tax holds the use cases of tax categories and taxes: CRUD on top
// of the revision store, chain archiving, calculation and onboarding.
package tax

import (
	"context"
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
)

// Actor identifies who performs a use case and the tenant it runs in
type Actor struct {
	UserID    *int64
	CompanyID *int64
	BranchID  *int64
}

// owns reports whether a record of companyID is visible to the actor
func (a Actor) owns(companyID *int64) bool {
	if a.CompanyID == nil {
		return true
	}
	return companyID != nil && *companyID == *a.CompanyID
}

// scope applies the actor's company to a list filter
func (a Actor) scope(filter shared.Filter) shared.Filter {
	filter.CompanyID = a.CompanyID
	filter.BranchID = a.BranchID
	return filter
}

// ChainArchiver stores the full history of a chain before it is deleted
type ChainArchiver interface {
	Archive(ctx context.Context, entity string, rootID int64, revisions any) error
}

// ServiceOption configures a service
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	archiver ChainArchiver
	metrics  *telemetry.RevisionMetrics
	now      func() time.Time
}

// WithArchiver archives chains before deletion
func WithArchiver(a ChainArchiver) ServiceOption {
	return func(o *serviceOptions) {
		o.archiver = a
	}
}

// WithMetrics records revision metrics
func WithMetrics(m *telemetry.RevisionMetrics) ServiceOption {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithClock overrides the clock used for write dates
func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.now = now
	}
}

func newServiceOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o serviceOptions) archive(ctx context.Context, entity string, rootID int64, revisions any) error {
	if o.archiver == nil {
		return nil
	}
	return o.archiver.Archive(ctx, entity, rootID, revisions)
}

func (o serviceOptions) recordSave(ctx context.Context, entity string, outcome revision.Outcome, start time.Time) {
	o.metrics.RecordSave(ctx, entity, outcome, time.Since(start))
}
