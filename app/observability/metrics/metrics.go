package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	LoginAttemptsTotal     metric.Int64Counter
	ArchiveUploadsTotal    metric.Int64Counter
	ArchiveUploadBytes     metric.Int64Histogram
	ArchiveDownloadsTotal  metric.Int64Counter
	ArchiveDeletesTotal    metric.Int64Counter
	OrphanFilesTotal       metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after tracer.InitTracingAndMetrics to export anything.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("sidara-archive")
		var err error
		m := &AppMetrics{}

		m.LoginAttemptsTotal, err = meter.Int64Counter(
			"login_attempts_total",
			metric.WithDescription("Login attempts by result"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_attempts_total: %v", err)
		}

		m.ArchiveUploadsTotal, err = meter.Int64Counter(
			"archive_uploads_total",
			metric.WithDescription("Archive uploads by result"),
			metric.WithUnit("{upload}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_uploads_total: %v", err)
		}

		m.ArchiveUploadBytes, err = meter.Int64Histogram(
			"archive_upload_bytes",
			metric.WithDescription("Size of stored archive files"),
			metric.WithUnit("By"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_upload_bytes: %v", err)
		}

		m.ArchiveDownloadsTotal, err = meter.Int64Counter(
			"archive_downloads_total",
			metric.WithDescription("Archive files served for download"),
			metric.WithUnit("{download}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_downloads_total: %v", err)
		}

		m.ArchiveDeletesTotal, err = meter.Int64Counter(
			"archive_deletes_total",
			metric.WithDescription("Archives deleted"),
			metric.WithUnit("{archive}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_deletes_total: %v", err)
		}

		m.OrphanFilesTotal, err = meter.Int64Counter(
			"archive_orphan_files_total",
			metric.WithDescription("Stored files that could not be removed after a failed insert"),
			metric.WithUnit("{file}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_orphan_files_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it against the current
// MeterProvider on first use (a no-op provider in tests).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
