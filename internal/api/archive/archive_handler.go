package archive

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	appMiddleware "github.com/FACorreiaa/sidara-archive/app/middleware"
	"github.com/FACorreiaa/sidara-archive/internal/api"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

const (
	multipartMemory = 8 << 20
	// multipartOverhead leaves room for the text fields and part headers.
	multipartOverhead = 1 << 20
	maxRecentLimit    = 100
)

type HandlerImpl struct {
	archiveService ArchiveService
	logger         *slog.Logger
	maxFileSize    int64
}

func NewHandlerImpl(archiveService ArchiveService, maxFileSize int64, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		archiveService: archiveService,
		logger:         logger,
		maxFileSize:    maxFileSize,
	}
}

// ListArchives godoc
// @Summary      List archives
// @Description  Returns all archives newest first, optionally filtered by category and by text in title, description or uploader name.
// @Tags         Archives
// @Produce      json
// @Param        category query string false "kendaraan, staf or inventaris"
// @Param        q        query string false "Search text"
// @Success      200 {array} types.Archive
// @Failure      400 {object} types.Response "Invalid category"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /archives [get]
func (h *HandlerImpl) ListArchives(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "ListArchives"))
	query := r.URL.Query()
	filter := types.ArchiveFilter{
		Category: types.Category(query.Get("category")),
		Search:   query.Get("q"),
	}
	if filter.Search == "" {
		filter.Search = query.Get("search")
	}

	archives, err := h.archiveService.List(r.Context(), filter)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, archives)
}

// RecentArchives godoc
// @Summary      Latest archives
// @Description  Returns the most recently uploaded archives for the dashboard.
// @Tags         Dashboard
// @Produce      json
// @Param        limit query int false "Number of archives (default 10, max 100)"
// @Success      200 {array} types.Archive
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /dashboard/recent-archives [get]
func (h *HandlerImpl) RecentArchives(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "RecentArchives"))

	limit := DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.WriteServiceError(w, r, l, types.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = min(n, maxRecentLimit)
	}

	archives, err := h.archiveService.Recent(r.Context(), limit)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, archives)
}

// UploadArchive godoc
// @Summary      Upload archive
// @Description  Stores a file with its metadata. Allowed types: pdf, doc, docx, jpg, jpeg, png, xls, xlsx.
// @Tags         Archives
// @Accept       multipart/form-data
// @Produce      json
// @Param        title       formData string true "Title"
// @Param        description formData string true "Description"
// @Param        category    formData string true "kendaraan, staf or inventaris"
// @Param        file        formData file   true "Document"
// @Success      201 {object} types.CreatedResponse
// @Failure      400 {object} types.Response "Invalid input, file type or size"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /archives [post]
func (h *HandlerImpl) UploadArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UploadArchive"))

	identity, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "File size too large")
			return
		}
		l.WarnContext(ctx, "Failed to parse multipart form", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	params := types.UploadArchiveParams{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    types.Category(r.FormValue("category")),
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		params.Content = file
		params.OriginalFilename = header.Filename
		params.MimeType = header.Header.Get("Content-Type")
		params.Size = header.Size
	case errors.Is(err, http.ErrMissingFile):
		api.ErrorResponse(w, r, http.StatusBadRequest, "File is required")
		return
	default:
		l.WarnContext(ctx, "Failed to read uploaded file", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid file")
		return
	}

	id, err := h.archiveService.Upload(ctx, identity, params)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.CreatedResponse{
		Success: true,
		Message: "Archive uploaded successfully",
		ID:      id,
	})
}

// GetArchive godoc
// @Summary      Get archive
// @Tags         Archives
// @Produce      json
// @Param        id path string true "Archive ID"
// @Success      200 {object} types.Archive
// @Failure      400 {object} types.Response "Invalid ID"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Archive not found"
// @Security     BearerAuth
// @Router       /archives/{id} [get]
func (h *HandlerImpl) GetArchive(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "GetArchive"))
	id, err := api.URLParamUUID(r, "id")
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	archive, err := h.archiveService.Get(r.Context(), id)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, archive)
}

// UpdateArchive godoc
// @Summary      Update archive
// @Description  Replaces title, description and category. Uploader or admin only.
// @Tags         Archives
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Archive ID"
// @Param        archive body types.UpdateArchiveParams true "New metadata"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Permission denied"
// @Failure      404 {object} types.Response "Archive not found"
// @Security     BearerAuth
// @Router       /archives/{id} [put]
func (h *HandlerImpl) UpdateArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateArchive"))

	identity, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := api.URLParamUUID(r, "id")
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	var params types.UpdateArchiveParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.archiveService.Update(ctx, identity, id, params); err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Archive updated successfully",
	})
}

// DeleteArchive godoc
// @Summary      Delete archive
// @Description  Removes the archive and its file. Uploader or admin only.
// @Tags         Archives
// @Produce      json
// @Param        id path string true "Archive ID"
// @Success      200 {object} types.Response
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Permission denied"
// @Failure      404 {object} types.Response "Archive not found"
// @Security     BearerAuth
// @Router       /archives/{id} [delete]
func (h *HandlerImpl) DeleteArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteArchive"))

	identity, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := api.URLParamUUID(r, "id")
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	if err := h.archiveService.Delete(ctx, identity, id); err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Archive deleted successfully",
	})
}

// DownloadArchive godoc
// @Summary      Download archive file
// @Description  Streams the stored file under its original name.
// @Tags         Archives
// @Produce      octet-stream
// @Param        id path string true "Archive ID"
// @Success      200 {file} file
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Archive or file not found"
// @Security     BearerAuth
// @Router       /archives/{id}/download [get]
func (h *HandlerImpl) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DownloadArchive"))

	id, err := api.URLParamUUID(r, "id")
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	dl, err := h.archiveService.Download(ctx, id)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	defer dl.Content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Archive.OriginalFilename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", dl.Archive.MimeType)

	modTime := time.Time{}
	if info, err := dl.Content.Stat(); err == nil {
		modTime = info.ModTime()
	}
	http.ServeContent(w, r, dl.Archive.OriginalFilename, modTime, dl.Content)
}
