package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sidara-archive/config"
)

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "SELECT", operationOf("\n\t\tselect id from users"))
	assert.Equal(t, "INSERT", operationOf("INSERT INTO archives"))
	assert.Equal(t, "UNKNOWN", operationOf("   "))
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestNewDatabaseConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var cfg config.Config
	cfg.Repositories.Postgres.Host = "db"
	cfg.Repositories.Postgres.Port = "5432"
	cfg.Repositories.Postgres.Username = "sidara"
	cfg.Repositories.Postgres.Password = "p@ss:word"
	cfg.Repositories.Postgres.DB = "sidara_archive"
	cfg.Repositories.Postgres.MAXCONWAITINGTIME = 5

	dbConfig, err := NewDatabaseConfig(&cfg, logger)
	require.NoError(t, err)

	u, err := url.Parse(dbConfig.ConnectionURL)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss:word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "5", u.Query().Get("connect_timeout"))

	_, err = NewDatabaseConfig(&config.Config{}, logger)
	assert.Error(t, err)
}
