package report

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	appMiddleware "github.com/FACorreiaa/sidara-archive/app/middleware"
	"github.com/FACorreiaa/sidara-archive/internal/api"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

type HandlerImpl struct {
	reportService ReportService
	logger        *slog.Logger
	now           func() time.Time
}

func NewHandlerImpl(reportService ReportService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		reportService: reportService,
		logger:        logger,
		now:           time.Now,
	}
}

// periodParam reads ?period=, defaulting to the current month.
func periodParam(r *http.Request) types.Period {
	period := types.Period(r.URL.Query().Get("period"))
	if period == "" {
		return types.PeriodMonth
	}
	return period
}

// ArchiveReport godoc
// @Summary      Archive report
// @Description  Archives, per-category and per-uploader counts for the current month, current year or all time. Admin only.
// @Tags         Reports
// @Produce      json
// @Param        period query string false "month (default), year or all"
// @Success      200 {object} types.ArchiveReport
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Admin access required"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /reports/archives [get]
func (h *HandlerImpl) ArchiveReport(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "ArchiveReport"))

	report, err := h.reportService.ArchiveReport(r.Context(), periodParam(r))
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, report)
}

// ExportArchiveReport godoc
// @Summary      Export archive report as CSV
// @Description  Streams the archives of the report period as CSV named laporan_arsip_<period>_<date>.csv. Admin only.
// @Tags         Reports
// @Produce      text/csv
// @Param        period query string false "month (default), year or all"
// @Success      200 {file} file
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Admin access required"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /reports/archives.csv [get]
func (h *HandlerImpl) ExportArchiveReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ExportArchiveReport"))

	period := periodParam(r)
	report, err := h.reportService.ArchiveReport(ctx, period)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	now := h.now()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": exportFilename(period, now),
	}))
	w.WriteHeader(http.StatusOK)

	// headers are out; a failed write can only be logged
	if err := writeArchiveCSV(w, report.Archives, now.Location()); err != nil {
		l.ErrorContext(ctx, "Failed to stream report csv", slog.Any("error", err))
	}
}

// DashboardStats godoc
// @Summary      Dashboard statistics
// @Tags         Dashboard
// @Produce      json
// @Success      200 {object} types.DashboardStats
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /dashboard/stats [get]
func (h *HandlerImpl) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DashboardStats"))

	identity, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.reportService.DashboardStats(ctx, identity)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}
