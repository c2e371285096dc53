package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/sidara-archive/app/db"
	"github.com/FACorreiaa/sidara-archive/internal/api/archive"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ ReportRepo = (*PostgresReportRepo)(nil)

// ArchiveCount selects the archives counted by CountArchives.
// Nil fields do not restrict.
type ArchiveCount struct {
	UploaderID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// ReportRepo runs the read-only aggregate queries behind reports and the dashboard.
type ReportRepo interface {
	// ArchiveReport reads the archives of [from, to) and their category and
	// uploader counts from one snapshot, so the counts always add up to the list.
	// Uploader stats include users without archives in the window.
	ArchiveReport(ctx context.Context, from, to *time.Time) (*types.ArchiveReport, error)
	CategoryStats(ctx context.Context, from, to *time.Time) ([]types.CategoryStat, error)
	CountArchives(ctx context.Context, filter ArchiveCount) (int64, error)
	CountActiveUsers(ctx context.Context) (int64, error)
}

type PostgresReportRepo struct {
	logger *slog.Logger
	pgpool database.TxDB
}

func NewPostgresReportRepo(pgpool database.TxDB, logger *slog.Logger) *PostgresReportRepo {
	return &PostgresReportRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresReportRepo) ArchiveReport(ctx context.Context, from, to *time.Time) (*types.ArchiveReport, error) {
	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("error starting report transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	archives, err := archive.ListArchives(ctx, tx, types.ArchiveFilter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return nil, err
	}
	byCategory, err := categoryStats(ctx, tx, from, to)
	if err != nil {
		return nil, err
	}
	byUploader, err := uploaderStats(ctx, tx, from, to)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing report transaction: %w", err)
	}

	return &types.ArchiveReport{
		Archives:      archives,
		CategoryStats: byCategory,
		UploaderStats: byUploader,
	}, nil
}

func (r *PostgresReportRepo) CategoryStats(ctx context.Context, from, to *time.Time) ([]types.CategoryStat, error) {
	return categoryStats(ctx, r.pgpool, from, to)
}

func categoryStats(ctx context.Context, q database.DB, from, to *time.Time) ([]types.CategoryStat, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM archives
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		GROUP BY category
		ORDER BY category`
	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying category stats: %w", err)
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.CategoryStat, error) {
		var s types.CategoryStat
		err := row.Scan(&s.Category, &s.Count)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning category stats: %w", err)
	}
	return stats, nil
}

func uploaderStats(ctx context.Context, q database.DB, from, to *time.Time) ([]types.UploaderStat, error) {
	query := `
		SELECT u.id, u.name, COUNT(a.id) AS upload_count
		FROM users u
		LEFT JOIN archives a ON a.uploader_id = u.id
		     AND ($1::timestamptz IS NULL OR a.created_at >= $1)
		     AND ($2::timestamptz IS NULL OR a.created_at < $2)
		GROUP BY u.id, u.name
		ORDER BY upload_count DESC, u.name`
	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying uploader stats: %w", err)
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.UploaderStat, error) {
		var s types.UploaderStat
		err := row.Scan(&s.UploaderID, &s.UploaderName, &s.UploadCount)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning uploader stats: %w", err)
	}
	return stats, nil
}

func (r *PostgresReportRepo) CountArchives(ctx context.Context, filter ArchiveCount) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM archives
		WHERE ($1::uuid IS NULL OR uploader_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)`
	var count int64
	if err := r.pgpool.QueryRow(ctx, query, filter.UploaderID, filter.From, filter.To).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting archives: %w", err)
	}
	return count, nil
}

func (r *PostgresReportRepo) CountActiveUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}
