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
	// LogFullSQL keeps query variables in span statements. Never in production.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	// DBSystem is postgresql or sqlite
	DBSystem string
}

// DefaultDBTracingConfig returns the disabled, variable-free default.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm on a gorm.DB and flags slow queries
// on its spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs otelgorm and the span decorating callbacks.
// It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerAround(db, "otel_span", true, markQueryStart, func(string) func(*gorm.DB) { return p.markSlowQuery }); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// markSlowQuery runs ahead of otelgorm's after hook, while the query span
// is still open.
func (p *DBTracingPlugin) markSlowQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	elapsed, ok := queryElapsed(ctx)
	if !ok || elapsed <= p.config.SlowQueryThresh {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
	))
}

type queryStartKey struct{}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context == nil {
		db.Statement.Context = context.Background()
	}
	db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
}

func queryElapsed(ctx context.Context) (time.Duration, bool) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// WithQueryStartTime returns ctx stamped as the start of a query.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

type registerFunc func(name string, fn func(*gorm.DB)) error

// gormHook exposes the before and after registration points of one gorm
// processor. after takes an optional callback name it must precede.
type gormHook struct {
	op     string
	otelOp string
	before registerFunc
	after  func(precede string) registerFunc
}

func gormHooks(db *gorm.DB) []gormHook {
	cb := db.Callback()
	return []gormHook{
		{"create", "create", cb.Create().Before("gorm:create").Register,
			func(n string) registerFunc { return cb.Create().After("gorm:create").Before(n).Register }},
		{"query", "select", cb.Query().Before("gorm:query").Register,
			func(n string) registerFunc { return cb.Query().After("gorm:query").Before(n).Register }},
		{"update", "update", cb.Update().Before("gorm:update").Register,
			func(n string) registerFunc { return cb.Update().After("gorm:update").Before(n).Register }},
		{"delete", "delete", cb.Delete().Before("gorm:delete").Register,
			func(n string) registerFunc { return cb.Delete().After("gorm:delete").Before(n).Register }},
		{"row", "row", cb.Row().Before("gorm:row").Register,
			func(n string) registerFunc { return cb.Row().After("gorm:row").Before(n).Register }},
		{"raw", "raw", cb.Raw().Before("gorm:raw").Register,
			func(n string) registerFunc { return cb.Raw().After("gorm:raw").Before(n).Register }},
	}
}

// registerAround registers {prefix}:before_{op} and {prefix}:after_{op}
// around every gorm processor. after receives the processor name. With
// aheadOfOtel the after callback runs before otelgorm ends the span.
func registerAround(db *gorm.DB, prefix string, aheadOfOtel bool, before func(*gorm.DB), after func(op string) func(*gorm.DB)) error {
	for _, h := range gormHooks(db) {
		if err := h.before(prefix+":before_"+h.op, before); err != nil {
			return err
		}
		precede := ""
		if aheadOfOtel {
			precede = "otel:after:" + h.otelOp
		}
		if err := h.after(precede)(prefix+":after_"+h.op, after(h.op)); err != nil {
			return err
		}
	}
	return nil
}
