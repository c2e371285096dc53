package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sidara-archive/app/observability/metrics"
	"github.com/FACorreiaa/sidara-archive/config"
	"github.com/FACorreiaa/sidara-archive/internal/api/access"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ ArchiveService = (*ArchiveServiceImpl)(nil)

// DefaultRecentLimit is the size of the dashboard "latest archives" list.
const DefaultRecentLimit = 10

// mimeTypes maps every uploadable extension to its accepted media type.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ArchiveService runs the archive lifecycle and its permission checks.
type ArchiveService interface {
	Upload(ctx context.Context, identity types.Identity, params types.UploadArchiveParams) (uuid.UUID, error)
	List(ctx context.Context, filter types.ArchiveFilter) ([]types.Archive, error)
	Recent(ctx context.Context, limit int) ([]types.Archive, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Archive, error)
	Update(ctx context.Context, identity types.Identity, id uuid.UUID, params types.UpdateArchiveParams) error
	Delete(ctx context.Context, identity types.Identity, id uuid.UUID) error
	Download(ctx context.Context, id uuid.UUID) (*Download, error)
}

// Download is an archive with its open content. The caller closes Content.
type Download struct {
	Archive *types.Archive
	Content afero.File
}

type ArchiveServiceImpl struct {
	logger      *slog.Logger
	repo        ArchiveRepo
	files       FileStore
	maxFileSize int64
	allowed     map[string]string
	now         func() time.Time
}

// NewArchiveService builds the service. Only extensions that are both
// configured and known to mimeTypes may be uploaded.
func NewArchiveService(repo ArchiveRepo, files FileStore, cfg config.UploadConfig, logger *slog.Logger) *ArchiveServiceImpl {
	allowed := make(map[string]string, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if mt, ok := mimeTypes[ext]; ok {
			allowed[ext] = mt
		} else {
			logger.Warn("Ignoring unknown upload extension", slog.String("extension", ext))
		}
	}
	return &ArchiveServiceImpl{
		logger:      logger,
		repo:        repo,
		files:       files,
		maxFileSize: cfg.MaxFileSize,
		allowed:     allowed,
		now:         time.Now,
	}
}

// Upload validates the input, writes the file under a fresh name and then
// records it. If the insert fails the file is removed again and the insert
// error is returned.
func (s *ArchiveServiceImpl) Upload(ctx context.Context, identity types.Identity, params types.UploadArchiveParams) (uuid.UUID, error) {
	ctx, span := otel.Tracer("ArchiveService").Start(ctx, "Upload", trace.WithAttributes(
		attribute.String("user.id", identity.ID.String()),
		attribute.String("archive.category", string(params.Category)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Upload"), slog.String("userID", identity.ID.String()))
	l.DebugContext(ctx, "Uploading archive", slog.String("original_filename", params.OriginalFilename))

	m := metrics.Get()
	fail := func(err error, msg string) (uuid.UUID, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		m.ArchiveUploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure")))
		return uuid.Nil, err
	}

	params.Normalize()
	if err := params.Validate(); err != nil {
		l.WarnContext(ctx, "Invalid upload", slog.Any("error", err))
		return fail(err, "Invalid upload")
	}
	ext, mimeType, err := s.checkFileType(params.OriginalFilename, params.MimeType)
	if err != nil {
		l.WarnContext(ctx, "File type rejected", slog.String("mime_type", params.MimeType))
		return fail(err, "File type not allowed")
	}
	if s.maxFileSize > 0 && params.Size > s.maxFileSize {
		return fail(s.tooLarge(), "File too large")
	}

	storedName := s.newStoredName(ext)
	content := params.Content
	if s.maxFileSize > 0 {
		content = io.LimitReader(content, s.maxFileSize+1)
	}
	written, err := s.files.Save(storedName, content)
	if err != nil {
		l.ErrorContext(ctx, "Failed to store file", slog.Any("error", err))
		return fail(fmt.Errorf("error storing file: %w", err), "Failed to store file")
	}
	if s.maxFileSize > 0 && written > s.maxFileSize {
		s.removeOrphan(ctx, l, storedName)
		return fail(s.tooLarge(), "File too large")
	}

	archive := &types.Archive{
		Title:            params.Title,
		Description:      params.Description,
		Category:         params.Category,
		Filename:         storedName,
		OriginalFilename: filepath.Base(params.OriginalFilename),
		FileSize:         written,
		MimeType:         mimeType,
		UploaderID:       identity.ID,
	}
	id, err := s.repo.Create(ctx, archive)
	if err != nil {
		l.ErrorContext(ctx, "Failed to record archive", slog.Any("error", err))
		s.removeOrphan(ctx, l, storedName)
		return fail(fmt.Errorf("error creating archive: %w", err), "Failed to record archive")
	}

	m.ArchiveUploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	m.ArchiveUploadBytes.Record(ctx, written, metric.WithAttributes(attribute.String("category", string(params.Category))))
	span.SetAttributes(attribute.String("archive.id", id.String()))
	span.SetStatus(codes.Ok, "Archive uploaded")
	l.InfoContext(ctx, "Archive uploaded", slog.String("archiveID", id.String()), slog.Int64("size", written))
	return id, nil
}

func (s *ArchiveServiceImpl) List(ctx context.Context, filter types.ArchiveFilter) ([]types.Archive, error) {
	ctx, span := otel.Tracer("ArchiveService").Start(ctx, "List")
	defer span.End()

	l := s.logger.With(slog.String("method", "List"))
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	archives, err := s.repo.List(ctx, filter)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list archives", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list archives")
		return nil, fmt.Errorf("error listing archives: %w", err)
	}

	l.DebugContext(ctx, "Archives listed", slog.Int("count", len(archives)))
	return archives, nil
}

func (s *ArchiveServiceImpl) Recent(ctx context.Context, limit int) ([]types.Archive, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	archives, err := s.repo.Recent(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch recent archives", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching recent archives: %w", err)
	}
	return archives, nil
}

func (s *ArchiveServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Archive, error) {
	archive, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Failed to fetch archive", slog.String("archiveID", id.String()), slog.Any("error", err))
		}
		return nil, fmt.Errorf("error fetching archive: %w", err)
	}
	return archive, nil
}

// Update replaces title, description and category. Only the uploader or an
// admin may do so.
func (s *ArchiveServiceImpl) Update(ctx context.Context, identity types.Identity, id uuid.UUID, params types.UpdateArchiveParams) error {
	ctx, span := otel.Tracer("ArchiveService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("archive.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("archiveID", id.String()))

	params.Normalize()
	if err := params.Validate(); err != nil {
		return err
	}

	archive, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanMutate(identity, archive) {
		l.WarnContext(ctx, "Update denied", slog.String("userID", identity.ID.String()))
		return types.ErrForbidden
	}

	if err := s.repo.Update(ctx, id, params, s.now()); err != nil {
		l.ErrorContext(ctx, "Failed to update archive", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update archive")
		return fmt.Errorf("error updating archive: %w", err)
	}

	l.InfoContext(ctx, "Archive updated")
	span.SetStatus(codes.Ok, "Archive updated")
	return nil
}

// Delete removes the stored file, tolerating its absence, and then the row.
func (s *ArchiveServiceImpl) Delete(ctx context.Context, identity types.Identity, id uuid.UUID) error {
	ctx, span := otel.Tracer("ArchiveService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("archive.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"), slog.String("archiveID", id.String()))

	archive, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanMutate(identity, archive) {
		l.WarnContext(ctx, "Delete denied", slog.String("userID", identity.ID.String()))
		return types.ErrForbidden
	}

	if err := s.files.Remove(archive.Filename); err != nil {
		l.ErrorContext(ctx, "Failed to remove archive file", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to remove archive file")
		return fmt.Errorf("error removing archive file: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		l.ErrorContext(ctx, "Failed to delete archive", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete archive")
		return fmt.Errorf("error deleting archive: %w", err)
	}

	metrics.Get().ArchiveDeletesTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Archive deleted", slog.String("userID", identity.ID.String()))
	span.SetStatus(codes.Ok, "Archive deleted")
	return nil
}

// Download opens the stored file of an archive. A row whose file is gone is
// reported as types.ErrNotFound.
func (s *ArchiveServiceImpl) Download(ctx context.Context, id uuid.UUID) (*Download, error) {
	archive, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := s.files.Open(archive.Filename)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.logger.WarnContext(ctx, "Archive file missing",
				slog.String("archiveID", id.String()), slog.String("filename", archive.Filename))
		}
		return nil, fmt.Errorf("error opening archive file: %w", err)
	}
	metrics.Get().ArchiveDownloadsTotal.Add(ctx, 1)
	return &Download{Archive: archive, Content: f}, nil
}

// checkFileType returns the lower-cased extension and the media type to record.
// A missing or generic declared type is accepted on the strength of the extension.
func (s *ArchiveServiceImpl) checkFileType(filename, declared string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := s.allowed[ext]
	if !ok {
		return "", "", types.NewValidationError("file", "File type not allowed")
	}
	if declared == "" {
		return ext, want, nil
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", "", types.NewValidationError("file", "File type not allowed")
	}
	if mediaType != want && mediaType != "application/octet-stream" {
		return "", "", types.NewValidationError("file", "File type not allowed")
	}
	return ext, want, nil
}

func (s *ArchiveServiceImpl) tooLarge() error {
	return types.NewValidationError("file", fmt.Sprintf("File size too large (max %dMB)", s.maxFileSize>>20))
}

// newStoredName is <unix-millis>-<uuid><ext>; unique across concurrent uploads.
func (s *ArchiveServiceImpl) newStoredName(ext string) string {
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext)
}

func (s *ArchiveServiceImpl) removeOrphan(ctx context.Context, l *slog.Logger, name string) {
	if err := s.files.Remove(name); err != nil {
		metrics.Get().OrphanFilesTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to remove orphaned file", slog.String("filename", name), slog.Any("error", err))
	}
}
