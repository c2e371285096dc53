package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/sidara-archive/app/middleware"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ArchiveReport(ctx context.Context, period types.Period) (*types.ArchiveReport, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ArchiveReport), args.Error(1)
}

func (m *MockReportService) DashboardStats(ctx context.Context, identity types.Identity) (*types.DashboardStats, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DashboardStats), args.Error(1)
}

var testAdmin = types.Identity{ID: uuid.New(), Username: "admin", Role: types.RoleAdmin}

var exportNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.FixedZone("WIB", 7*60*60))

func setupReportRouter(service ReportService, identity *types.Identity) http.Handler {
	h := NewHandlerImpl(service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return exportNow }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if identity != nil {
				req = req.WithContext(appMiddleware.WithIdentity(req.Context(), *identity))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/dashboard/stats", h.DashboardStats)
	r.Get("/reports/archives", h.ArchiveReport)
	r.Get("/reports/archives.csv", h.ExportArchiveReport)
	return r
}

func TestHandlerImpl_ArchiveReport(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		period types.Period
	}{
		{"defaults to month", "", types.PeriodMonth},
		{"year", "?period=year", types.PeriodYear},
		{"all", "?period=all", types.PeriodAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockReportService)
			service.On("ArchiveReport", mock.Anything, tt.period).Return(&types.ArchiveReport{
				Archives:      []types.Archive{},
				CategoryStats: []types.CategoryStat{{Category: types.CategoryStaf, Count: 2}},
				UploaderStats: []types.UploaderStat{},
				Period:        tt.period,
			}, nil).Once()

			rr := httptest.NewRecorder()
			setupReportRouter(service, &testAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/archives"+tt.query, nil))

			require.Equal(t, http.StatusOK, rr.Code)
			var body types.ArchiveReport
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.period, body.Period)
			assert.Len(t, body.CategoryStats, 1)
			service.AssertExpectations(t)
		})
	}

	t.Run("service failure", func(t *testing.T) {
		service := new(MockReportService)
		service.On("ArchiveReport", mock.Anything, types.PeriodMonth).Return(nil, errors.New("boom")).Once()

		rr := httptest.NewRecorder()
		setupReportRouter(service, &testAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/archives", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandlerImpl_ExportArchiveReport(t *testing.T) {
	t.Run("streams csv attachment", func(t *testing.T) {
		service := new(MockReportService)
		service.On("ArchiveReport", mock.Anything, types.PeriodYear).Return(&types.ArchiveReport{
			Archives: []types.Archive{
				{
					Title:        "STNK, B 1234",
					Description:  "Registration",
					Category:     types.CategoryKendaraan,
					UploaderName: "Budi Santoso",
					FileSize:     1536,
					CreatedAt:    time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC),
				},
				{
					Title:       "SK",
					Description: "Decree",
					Category:    types.CategoryStaf,
					FileSize:    512,
					CreatedAt:   time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC),
				},
			},
			Period: types.PeriodYear,
		}, nil).Once()

		rr := httptest.NewRecorder()
		setupReportRouter(service, &testAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/archives.csv?period=year", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=laporan_arsip_year_2025-03-14.csv", rr.Header().Get("Content-Disposition"))

		records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"Judul", "Deskripsi", "Kategori", "Uploader", "Tanggal Upload", "Ukuran File"}, records[0])
		assert.Equal(t, []string{"STNK, B 1234", "Registration", "Data Kendaraan & Riwayat Uji", "Budi Santoso", "14 Maret 2025", "1.5 KB"}, records[1])
		assert.Equal(t, []string{"SK", "Decree", "Data Staf/Pegawai", "", "2 Januari 2025", "512 Bytes"}, records[2])
		service.AssertExpectations(t)
	})

	t.Run("defaults to month", func(t *testing.T) {
		service := new(MockReportService)
		service.On("ArchiveReport", mock.Anything, types.PeriodMonth).Return(&types.ArchiveReport{
			Archives: []types.Archive{},
			Period:   types.PeriodMonth,
		}, nil).Once()

		rr := httptest.NewRecorder()
		setupReportRouter(service, &testAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/archives.csv", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "laporan_arsip_month_2025-03-14.csv")
		assert.Equal(t, "Judul,Deskripsi,Kategori,Uploader,Tanggal Upload,Ukuran File\n", rr.Body.String())
	})

	t.Run("service failure is json", func(t *testing.T) {
		service := new(MockReportService)
		service.On("ArchiveReport", mock.Anything, types.PeriodAll).Return(nil, errors.New("boom")).Once()

		rr := httptest.NewRecorder()
		setupReportRouter(service, &testAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/archives.csv?period=all", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Empty(t, rr.Header().Get("Content-Disposition"))
	})
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", formatFileSize(0))
	assert.Equal(t, "1023 Bytes", formatFileSize(1023))
	assert.Equal(t, "1 KB", formatFileSize(1024))
	assert.Equal(t, "1 MB", formatFileSize(1<<20))
	assert.Equal(t, "9.54 MB", formatFileSize(10_000_000))
	assert.Equal(t, "2048 GB", formatFileSize(1<<41))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "laporan_arsip_all_2025-03-14.csv", exportFilename(types.Period("../etc"), exportNow))
	assert.Equal(t, "laporan_arsip_month_2025-03-14.csv", exportFilename(types.PeriodMonth, exportNow))
}

func TestHandlerImpl_DashboardStats(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := new(MockReportService)
		service.On("DashboardStats", mock.Anything, testAdmin).Return(&types.DashboardStats{
			TotalArchives: 9,
			MyArchives:    2,
			TotalUsers:    3,
			ThisMonth:     1,
			Categories:    map[types.Category]int64{types.CategoryKendaraan: 9, types.CategoryStaf: 0, types.CategoryInventaris: 0},
		}, nil).Once()

		rr := httptest.NewRecorder()
		setupReportRouter(service, &testAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.EqualValues(t, 9, body["totalArchives"])
		assert.EqualValues(t, 3, body["totalUsers"])
		assert.Contains(t, body["categories"], "inventaris")
		service.AssertExpectations(t)
	})

	t.Run("no identity", func(t *testing.T) {
		service := new(MockReportService)
		rr := httptest.NewRecorder()
		setupReportRouter(service, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		service.AssertNotCalled(t, "DashboardStats", mock.Anything, mock.Anything)
	})
}
