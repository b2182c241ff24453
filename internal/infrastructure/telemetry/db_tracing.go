package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps query variables in spans; development only
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns tracing disabled with a 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm plus a slow query marker.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs the plugin on db. It does nothing when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	// the slow marker runs before otelgorm ends its span
	register := []struct {
		op     string
		before func() error
		after  func() error
	}{
		{"create",
			func() error { return cb.Create().Before("gorm:create").Register("taxsvc:start_create", p.start) },
			func() error { return cb.Create().After("gorm:create").Before("otel:after_create").Register("taxsvc:slow_create", p.finish) }},
		{"query",
			func() error { return cb.Query().Before("gorm:query").Register("taxsvc:start_query", p.start) },
			func() error { return cb.Query().After("gorm:query").Before("otel:after_query").Register("taxsvc:slow_query", p.finish) }},
		{"update",
			func() error { return cb.Update().Before("gorm:update").Register("taxsvc:start_update", p.start) },
			func() error { return cb.Update().After("gorm:update").Before("otel:after_update").Register("taxsvc:slow_update", p.finish) }},
		{"delete",
			func() error { return cb.Delete().Before("gorm:delete").Register("taxsvc:start_delete", p.start) },
			func() error { return cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("taxsvc:slow_delete", p.finish) }},
		{"raw",
			func() error { return cb.Raw().Before("gorm:raw").Register("taxsvc:start_raw", p.start) },
			func() error { return cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("taxsvc:slow_raw", p.finish) }},
	}
	for _, r := range register {
		if err := r.before(); err != nil {
			return err
		}
		if err := r.after(); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) start(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	started, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(started); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
