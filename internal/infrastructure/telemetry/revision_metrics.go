package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// RevisionMetrics counts revision store writes per entity and outcome.
type RevisionMetrics struct {
	saved        *Counter
	chainDeleted *Counter
	saveDuration *Histogram
}

// NewRevisionMetrics registers the revision instruments on meter.
func NewRevisionMetrics(meter metric.Meter) (*RevisionMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	saved, err := NewCounter(meter, "taxsvc_revision_saved_total", "Revision store saves by outcome", "{saves}")
	if err != nil {
		return nil, err
	}
	deleted, err := NewCounter(meter, "taxsvc_revision_chain_deleted_total", "Revision chains deleted", "{chains}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "taxsvc_revision_save_duration_seconds", "Duration of revision store saves", "s", DBDurationBuckets)
	if err != nil {
		return nil, err
	}

	return &RevisionMetrics{saved: saved, chainDeleted: deleted, saveDuration: duration}, nil
}

// RecordSave records one save and how long it took. Safe on a nil receiver.
func (m *RevisionMetrics) RecordSave(ctx context.Context, entity string, outcome revision.Outcome, took time.Duration) {
	if m == nil {
		return
	}
	m.saved.Inc(ctx, AttrEntity.String(entity), AttrOutcome.String(string(outcome)))
	m.saveDuration.RecordDuration(ctx, took, AttrEntity.String(entity))
}

// RecordChainDeleted records one whole-chain delete. Safe on a nil receiver.
func (m *RevisionMetrics) RecordChainDeleted(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	m.chainDeleted.Inc(ctx, AttrEntity.String(entity))
}
