package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	hireqa "github.com/ms-hireqa/hireqa-backend"
	"github.com/ms-hireqa/hireqa-backend/mailer"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func main() {
	cfg := hireqa.LoadConfig()

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slogger := slog.New(handler)
	logger := hireqa.NewSlogLogger(slogger)

	if cfg.SigningKey == "" {
		if !cfg.IsDevelopment() {
			slogger.Error("JWT_SIGNING_KEY is required in production")
			os.Exit(1)
		}
		logger.Warn("JWT_SIGNING_KEY not set, using an insecure development key")
		cfg.SigningKey = "insecure-development-signing-key"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		slogger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := runMigrations(ctx, db); err != nil {
		slogger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo := hireqa.NewRepositoryManager(db)
	if err := repo.Validate(ctx); err != nil {
		slogger.Error("database validation failed", "error", err)
		os.Exit(1)
	}

	mail, err := mailer.New(mailer.Config{
		APIKey:      cfg.ResendAPIKey,
		FromEmail:   cfg.EmailFrom,
		FrontendURL: cfg.FrontendURL,
		AppName:     cfg.AppName,
		DevMode:     cfg.IsDevelopment() && cfg.ResendAPIKey == "",
	}, logger)
	if err != nil {
		slogger.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	sink := &logActivitySink{logger: slogger}

	provider := hireqa.NewAccountProvider(repo.Accounts()).WithLogger(logger)
	auther := hireqa.NewAuthenticator(provider, cfg).
		WithLogger(logger).
		WithActivitySink(sink)

	controller := hireqa.NewAuthController(
		hireqa.WithControllerRepo(repo),
		hireqa.WithControllerAuther(auther),
		hireqa.WithControllerMailer(mail),
		hireqa.WithControllerLogger(logger),
		hireqa.WithControllerActivitySink(sink),
		hireqa.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api")
	controller.RegisterRoutes(api)

	go func() {
		slogger.Info("server listening", "port", cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			slogger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slogger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slogger.Error("shutdown error", "error", err)
	}
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	migrationsFS, err := fs.Sub(hireqa.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(migrationsFS); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}

	return nil
}

// logActivitySink writes audit events to the structured log. A real
// deployment can swap in a durable sink without touching the handlers.
type logActivitySink struct {
	logger *slog.Logger
}

func (s *logActivitySink) Record(ctx context.Context, event hireqa.ActivityEvent) error {
	s.logger.Info("activity",
		"event_type", string(event.EventType),
		"actor_id", event.Actor.ID,
		"actor_type", event.Actor.Type,
		"account_id", event.AccountID,
		"metadata", event.Metadata,
	)
	return nil
}
