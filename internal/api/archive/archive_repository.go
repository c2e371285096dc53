package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/sidara-archive/app/db"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ ArchiveRepo = (*PostgresArchiveRepo)(nil)

// ArchiveRepo persists archive metadata. Reads carry the uploader name, which
// is empty once the uploader account has been deleted.
type ArchiveRepo interface {
	Create(ctx context.Context, archive *types.Archive) (uuid.UUID, error)
	List(ctx context.Context, filter types.ArchiveFilter) ([]types.Archive, error)
	Recent(ctx context.Context, limit int) ([]types.Archive, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Archive, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateArchiveParams, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostgresArchiveRepo struct {
	logger *slog.Logger
	pgpool database.DB
}

func NewPostgresArchiveRepo(pgpool database.DB, logger *slog.Logger) *PostgresArchiveRepo {
	return &PostgresArchiveRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const selectArchives = `
	SELECT a.id, a.title, a.description, a.category, a.filename, a.original_filename,
	       a.file_size, a.mime_type, a.uploader_id, COALESCE(u.name, '') AS uploader_name,
	       a.created_at, a.updated_at
	FROM archives a
	LEFT JOIN users u ON u.id = a.uploader_id`

func (r *PostgresArchiveRepo) Create(ctx context.Context, archive *types.Archive) (uuid.UUID, error) {
	query := `
		INSERT INTO archives (title, description, category, filename, original_filename,
		                      file_size, mime_type, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := r.pgpool.QueryRow(ctx, query,
		archive.Title,
		archive.Description,
		archive.Category,
		archive.Filename,
		archive.OriginalFilename,
		archive.FileSize,
		archive.MimeType,
		archive.UploaderID,
	).Scan(&archive.ID, &archive.CreatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error inserting archive: %w", err)
	}
	return archive.ID, nil
}

func (r *PostgresArchiveRepo) List(ctx context.Context, filter types.ArchiveFilter) ([]types.Archive, error) {
	return ListArchives(ctx, r.pgpool, filter)
}

// ListArchives runs the filtered listing on q, which may be the pool or an open
// transaction. Search matches title, description and uploader name.
func ListArchives(ctx context.Context, q database.DB, filter types.ArchiveFilter) ([]types.Archive, error) {
	query := selectArchives + `
	WHERE ($1::text = '' OR a.category = $1)
	  AND ($2::text = '' OR a.title ILIKE $2 OR a.description ILIKE $2 OR u.name ILIKE $2)
	  AND ($3::timestamptz IS NULL OR a.created_at >= $3)
	  AND ($4::timestamptz IS NULL OR a.created_at < $4)
	ORDER BY a.created_at DESC`

	rows, err := q.Query(ctx, query,
		string(filter.Category),
		likePattern(filter.Search),
		filter.CreatedFrom,
		filter.CreatedTo,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying archives: %w", err)
	}
	return collectArchives(rows)
}

func (r *PostgresArchiveRepo) Recent(ctx context.Context, limit int) ([]types.Archive, error) {
	rows, err := r.pgpool.Query(ctx, selectArchives+`
	ORDER BY a.created_at DESC
	LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent archives: %w", err)
	}
	return collectArchives(rows)
}

func (r *PostgresArchiveRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Archive, error) {
	rows, err := r.pgpool.Query(ctx, selectArchives+`
	WHERE a.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("error querying archive: %w", err)
	}
	archives, err := collectArchives(rows)
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		return nil, types.ErrNotFound
	}
	return &archives[0], nil
}

func (r *PostgresArchiveRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateArchiveParams, at time.Time) error {
	query := `
		UPDATE archives
		SET title = $1, description = $2, category = $3, updated_at = $4
		WHERE id = $5`
	tag, err := r.pgpool.Exec(ctx, query, params.Title, params.Description, params.Category, at, id)
	if err != nil {
		return fmt.Errorf("error updating archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresArchiveRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM archives WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func collectArchives(rows pgx.Rows) ([]types.Archive, error) {
	defer rows.Close()

	archives := []types.Archive{}
	for rows.Next() {
		var a types.Archive
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.Category,
			&a.Filename,
			&a.OriginalFilename,
			&a.FileSize,
			&a.MimeType,
			&a.UploaderID,
			&a.UploaderName,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning archive: %w", err)
		}
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return archives, nil
		}
		return nil, fmt.Errorf("error iterating archives: %w", err)
	}
	return archives, nil
}

// likePattern turns free text into a substring ILIKE pattern, or "" for no filter.
func likePattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(search)
	return "%" + escaped + "%"
}
