package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appLogger "github.com/FACorreiaa/sidara-archive/app/logger"
	"github.com/FACorreiaa/sidara-archive/internal/api/archive"
	"github.com/FACorreiaa/sidara-archive/internal/api/auth"
	"github.com/FACorreiaa/sidara-archive/internal/api/report"
	"github.com/FACorreiaa/sidara-archive/internal/api/user"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Timeout        time.Duration

	AuthHandler    *auth.HandlerImpl
	ArchiveHandler *archive.HandlerImpl
	UserHandler    *user.HandlerImpl
	ReportHandler  *report.HandlerImpl

	AuthenticateMiddleware func(http.Handler) http.Handler
	// Uploads, when set, serves stored files read-only under /uploads.
	Uploads http.FileSystem
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	if cfg.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(cfg.Uploads)))
	}

	requireAdmin := auth.RequireRoleMiddleware(cfg.Logger, types.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.Timeout > 0 {
				r.Use(middleware.Timeout(cfg.Timeout))
			}

			r.Post("/auth/login", cfg.AuthHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthenticateMiddleware)

				r.Get("/dashboard/stats", cfg.ReportHandler.DashboardStats)
				r.Get("/dashboard/recent-archives", cfg.ArchiveHandler.RecentArchives)

				r.Get("/archives", cfg.ArchiveHandler.ListArchives)
				r.Get("/archives/{id}", cfg.ArchiveHandler.GetArchive)
				r.Put("/archives/{id}", cfg.ArchiveHandler.UpdateArchive)
				r.Delete("/archives/{id}", cfg.ArchiveHandler.DeleteArchive)

				r.Get("/profile", cfg.UserHandler.GetProfile)
				r.Put("/profile", cfg.UserHandler.UpdateProfile)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)

					r.Get("/users", cfg.UserHandler.ListUsers)
					r.Post("/users", cfg.UserHandler.CreateUser)
					r.Put("/users/{id}", cfg.UserHandler.UpdateUser)
					r.Delete("/users/{id}", cfg.UserHandler.DeleteUser)

					r.Get("/reports/archives", cfg.ReportHandler.ArchiveReport)
					r.Get("/reports/archives.csv", cfg.ReportHandler.ExportArchiveReport)
				})
			})
		})

		// File transfers stream for as long as the server's read and write
		// timeouts allow; the request timeout would answer 504 mid-body.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/archives", cfg.ArchiveHandler.UploadArchive)
			r.Get("/archives/{id}/download", cfg.ArchiveHandler.DownloadArchive)
		})
	})

	return r
}
