// Command seed creates an admin account interactively.
package main

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/sidara-archive/app/db"
	"github.com/FACorreiaa/sidara-archive/config"
	"github.com/FACorreiaa/sidara-archive/internal/api/auth"
	"github.com/FACorreiaa/sidara-archive/internal/api/user"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	params, err := readAdmin(bufio.NewReader(os.Stdin), &cfg.Bootstrap)
	if err != nil {
		logger.Error("Failed to read admin details", slog.Any("error", err))
		os.Exit(1)
	}
	if err := params.Validate(); err != nil {
		logger.Error("Invalid admin details", slog.Any("error", err))
		os.Exit(1)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		os.Exit(1)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, 2, logger)
	if err != nil {
		os.Exit(1)
	}
	defer pool.Close()
	if !database.WaitForDB(ctx, pool, logger) {
		return
	}

	users := user.NewUserService(user.NewPostgresUserRepo(pool, logger), auth.NewBcryptHasher(cfg.Password.BcryptCost), logger)
	created, err := users.EnsureAdmin(ctx, params)
	if err != nil {
		logger.Error("Failed to create admin", slog.Any("error", err))
		return
	}
	if !created {
		logger.Warn("Username already exists, nothing changed", slog.String("username", params.Username))
		return
	}
	logger.Info("Admin account created", slog.String("username", params.Username))
}

// readAdmin prompts for the admin account, offering configured values as defaults.
func readAdmin(reader *bufio.Reader, defaults *config.BootstrapConfig) (types.CreateUserParams, error) {
	var p types.CreateUserParams
	var err error
	if p.Username, err = promptLine(reader, os.Stdout, "Username", defaults.AdminUsername); err != nil {
		return p, err
	}
	if p.Name, err = promptLine(reader, os.Stdout, "Full name", defaults.AdminName); err != nil {
		return p, err
	}
	if p.Email, err = promptLine(reader, os.Stdout, "Email", defaults.AdminEmail); err != nil {
		return p, err
	}
	if p.Password, err = promptPassword(os.Stdout); err != nil {
		return p, err
	}
	p.Role = types.RoleAdmin
	return p, nil
}
