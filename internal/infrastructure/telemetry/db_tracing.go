package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls how database spans are produced.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include full SQL in spans, dev only
	SlowQueryThresh time.Duration // queries above this get a slow_query_warning event
	DBSystem        string
	// WithoutVariables strips bound query parameters from the recorded
	// statement. Credential and token values pass through these queries,
	// so this stays on outside local development.
	WithoutVariables bool
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, no SQL
// text, no bound variables.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin wires otelgorm into a gorm.DB and layers slow query
// detection on top of the spans otelgorm opens.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs the otelgorm plugin plus the timing callbacks
// on db. It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := p.registerTimingCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerTimingCallbacks hooks every gorm operation with a before callback
// that stamps the start time and an after callback that annotates the span.
// The callback processor types are unexported in gorm, hence the explicit
// registration per operation.
func (p *DBTracingPlugin) registerTimingCallbacks(db *gorm.DB) error {
	var firstErr error
	reg := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	cb := db.Callback()
	reg(cb.Create().Before("gorm:create").Register("otel_timing:before_create", markQueryStart))
	reg(cb.Create().After("gorm:create").Register("otel_timing:after_create", p.annotateSpan))
	reg(cb.Query().Before("gorm:query").Register("otel_timing:before_query", markQueryStart))
	reg(cb.Query().After("gorm:query").Register("otel_timing:after_query", p.annotateSpan))
	reg(cb.Update().Before("gorm:update").Register("otel_timing:before_update", markQueryStart))
	reg(cb.Update().After("gorm:update").Register("otel_timing:after_update", p.annotateSpan))
	reg(cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", markQueryStart))
	reg(cb.Delete().After("gorm:delete").Register("otel_timing:after_delete", p.annotateSpan))
	reg(cb.Row().Before("gorm:row").Register("otel_timing:before_row", markQueryStart))
	reg(cb.Row().After("gorm:row").Register("otel_timing:after_row", p.annotateSpan))
	reg(cb.Raw().Before("gorm:raw").Register("otel_timing:before_raw", markQueryStart))
	reg(cb.Raw().After("gorm:raw").Register("otel_timing:after_raw", p.annotateSpan))

	return firstErr
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// annotateSpan enriches the active span with row counts, the table name,
// non-trivial errors and slow query markers.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// A missing row is a normal lookup outcome, not a failure.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(startTime)
	if elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"
