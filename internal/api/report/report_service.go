package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/sidara-archive/internal/api/access"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ ReportService = (*ReportServiceImpl)(nil)

type ReportService interface {
	ArchiveReport(ctx context.Context, period types.Period) (*types.ArchiveReport, error)
	DashboardStats(ctx context.Context, identity types.Identity) (*types.DashboardStats, error)
}

type ReportServiceImpl struct {
	logger *slog.Logger
	repo   ReportRepo
	now    func() time.Time
}

func NewReportService(repo ReportRepo, logger *slog.Logger) *ReportServiceImpl {
	return &ReportServiceImpl{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// ArchiveReport lists the archives created in period together with per-category
// and per-uploader counts over the same window, all read from one snapshot.
// Periods other than month and year are unrestricted.
func (s *ReportServiceImpl) ArchiveReport(ctx context.Context, period types.Period) (*types.ArchiveReport, error) {
	ctx, span := otel.Tracer("ReportService").Start(ctx, "ArchiveReport", trace.WithAttributes(
		attribute.String("report.period", string(period)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ArchiveReport"), slog.String("period", string(period)))
	from, to := period.Window(s.now())

	report, err := s.repo.ArchiveReport(ctx, from, to)
	if err != nil {
		l.ErrorContext(ctx, "Failed to build archive report", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build archive report")
		return nil, fmt.Errorf("error building archive report: %w", err)
	}
	report.Period = period

	l.InfoContext(ctx, "Archive report built", slog.Int("archives", len(report.Archives)))
	span.SetStatus(codes.Ok, "Archive report built")
	return report, nil
}

// DashboardStats summarises the archive counts shown on the dashboard.
// Admins see the active user count and all of this month's uploads; other
// users see only their own uploads this month and a zero user count.
func (s *ReportServiceImpl) DashboardStats(ctx context.Context, identity types.Identity) (*types.DashboardStats, error) {
	ctx, span := otel.Tracer("ReportService").Start(ctx, "DashboardStats", trace.WithAttributes(
		attribute.String("user.id", identity.ID.String()),
	))
	defer span.End()

	isAdmin := access.IsAdmin(identity)
	monthFrom, monthTo := types.PeriodMonth.Window(s.now())
	callerID := identity.ID
	thisMonth := ArchiveCount{From: monthFrom, To: monthTo}
	if !isAdmin {
		thisMonth.UploaderID = &callerID
	}

	stats := &types.DashboardStats{Categories: make(map[types.Category]int64, len(types.Categories))}
	for _, c := range types.Categories {
		stats.Categories[c] = 0
	}

	var byCategory []types.CategoryStat
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalArchives, err = s.repo.CountArchives(gctx, ArchiveCount{})
		return err
	})
	g.Go(func() (err error) {
		stats.MyArchives, err = s.repo.CountArchives(gctx, ArchiveCount{UploaderID: &callerID})
		return err
	})
	g.Go(func() (err error) {
		stats.ThisMonth, err = s.repo.CountArchives(gctx, thisMonth)
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = s.repo.CategoryStats(gctx, nil, nil)
		return err
	})
	if isAdmin {
		g.Go(func() (err error) {
			stats.TotalUsers, err = s.repo.CountActiveUsers(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to compute dashboard stats", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compute dashboard stats")
		return nil, fmt.Errorf("error computing dashboard stats: %w", err)
	}

	for _, c := range byCategory {
		if _, known := stats.Categories[c.Category]; known {
			stats.Categories[c.Category] = c.Count
		}
	}
	span.SetStatus(codes.Ok, "Dashboard stats computed")
	return stats, nil
}
