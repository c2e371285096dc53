package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/sidara-archive/app/db"
	"github.com/FACorreiaa/sidara-archive/config"
	"github.com/FACorreiaa/sidara-archive/internal/api/archive"
	"github.com/FACorreiaa/sidara-archive/internal/api/auth"
	"github.com/FACorreiaa/sidara-archive/internal/api/report"
	"github.com/FACorreiaa/sidara-archive/internal/api/user"
	"github.com/FACorreiaa/sidara-archive/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	AuthService *auth.AuthServiceImpl
	UserService *user.UserServiceImpl
	Files       *archive.AferoStore

	AuthHandler    *auth.HandlerImpl
	ArchiveHandler *archive.HandlerImpl
	UserHandler    *user.HandlerImpl
	ReportHandler  *report.HandlerImpl
}

// NewContainer wires repositories, services and handlers on top of an open pool.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	files, err := archive.NewDiskStore(cfg.Upload.Dir)
	if err != nil {
		logger.Error("Failed to prepare upload directory", slog.String("dir", cfg.Upload.Dir), slog.Any("error", err))
		return nil, err
	}

	hasher := auth.NewBcryptHasher(cfg.Password.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWT)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, hasher, tokens, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, hasher, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	archiveRepo := archive.NewPostgresArchiveRepo(pool, logger)
	archiveService := archive.NewArchiveService(archiveRepo, files, cfg.Upload, logger)
	archiveHandler := archive.NewHandlerImpl(archiveService, cfg.Upload.MaxFileSize, logger)

	reportRepo := report.NewPostgresReportRepo(pool, logger)
	reportService := report.NewReportService(reportRepo, logger)
	reportHandler := report.NewHandlerImpl(reportService, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		AuthService:    authService,
		UserService:    userService,
		Files:          files,
		AuthHandler:    authHandler,
		ArchiveHandler: archiveHandler,
		UserHandler:    userHandler,
		ReportHandler:  reportHandler,
	}, nil
}

// RouterConfig assembles the router dependencies from the container.
func (c *Container) RouterConfig() *router.Config {
	rc := &router.Config{
		Logger:                 c.Logger,
		AllowedOrigins:         c.Config.Cors.AllowedOrigins,
		Timeout:                c.Config.Server.Timeout,
		AuthHandler:            c.AuthHandler,
		ArchiveHandler:         c.ArchiveHandler,
		UserHandler:            c.UserHandler,
		ReportHandler:          c.ReportHandler,
		AuthenticateMiddleware: auth.Authenticate(c.Logger, c.AuthService),
	}
	if c.Config.Upload.ServeStatic {
		rc.Uploads = c.Files.HTTPFileSystem()
	}
	return rc
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
