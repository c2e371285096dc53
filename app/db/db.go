package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/FACorreiaa/sidara-archive/config"
)

const (
	pingAttempts    = 5
	pingBackoffStep = 200 * time.Millisecond

	pgUniqueViolation = "23505"
)

// DB is what repositories need from the pool. pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxDB is a DB that can also open transactions.
type TxDB interface {
	DB
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var (
	_ TxDB = (*pgxpool.Pool)(nil)
	_ DB   = (pgx.Tx)(nil)
)

type DatabaseConfig struct {
	ConnectionURL string
}

// IsUniqueViolation reports whether err came from a unique index, e.g. a taken username.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation
}

// NewDatabaseConfig builds the postgresql:// URL used by both the pool and migrate.
// Sessions run in UTC; report windows are computed by the server clock.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	pg := cfg.Repositories.Postgres
	if pg.Host == "" {
		logger.Error("Postgres host not configured")
		return nil, errors.New("postgres host not configured")
	}

	params := url.Values{}
	params.Set("timezone", "utc")
	if pg.SSLMODE != "" {
		params.Set("sslmode", pg.SSLMODE)
	} else {
		params.Set("sslmode", "disable")
	}
	if pg.MAXCONWAITINGTIME > 0 {
		params.Set("connect_timeout", strconv.Itoa(pg.MAXCONWAITINGTIME))
	}

	host := pg.Host
	if pg.Port != "" {
		host += ":" + pg.Port
	}
	u := &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     host,
		Path:     "/" + pg.DB,
		RawQuery: params.Encode(),
	}

	logger.Info("Database target resolved", slog.String("host", host), slog.String("database", pg.DB))
	return &DatabaseConfig{ConnectionURL: u.String()}, nil
}

// Init opens the pool with google/uuid codecs and the query metrics tracer installed.
// Connections are made lazily; use WaitForDB to block until the server answers.
func Init(connectionURL string, maxConns int32, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	poolCfg.ConnConfig.Tracer = NewQueryTracer(logger)
	poolCfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	logger.Info("Connection pool ready", slog.Int("max_conns", int(poolCfg.MaxConns)))
	return pool, nil
}

// WaitForDB pings with a linear backoff and gives up early when ctx ends.
func WaitForDB(ctx context.Context, pgpool *pgxpool.Pool, logger *slog.Logger) bool {
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		err := pgpool.Ping(ctx)
		if err == nil {
			logger.InfoContext(ctx, "Database reachable", slog.Int("attempt", attempt))
			return true
		}
		if attempt == pingAttempts {
			logger.ErrorContext(ctx, "Database unreachable", slog.Any("error", err))
			break
		}

		wait := time.Duration(attempt) * pingBackoffStep
		logger.WarnContext(ctx, "Database ping failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", wait),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
	return false
}
