package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/sidara-archive/app/observability/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	at        time.Time
	operation string
}

// QueryTracer records query latency and failures for every statement on the pool.
type QueryTracer struct {
	logger *slog.Logger
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(logger *slog.Logger) *QueryTracer {
	return &QueryTracer{logger: logger}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{
		at:        time.Now(),
		operation: operationOf(data.SQL),
	})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("db.operation", start.operation))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start.at).Seconds(), attrs)

	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
		t.logger.DebugContext(ctx, "Query failed",
			slog.String("operation", start.operation),
			slog.Any("error", data.Err))
	}
}

// operationOf returns the leading SQL keyword, e.g. SELECT or INSERT.
func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
