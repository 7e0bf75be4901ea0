// Command renthoused runs the rental-booking ledger as a standalone HTTP
// service.
//
// Configuration is read from the environment (a .env file is honored):
//
//	RENTHOUSE_ADDR     listen address for the API        (default :8080)
//	RENTHOUSE_STORE    memory | sqlite | postgres | mongo (default memory)
//	DATABASE_URL       connection string / sqlite path
//	MONGO_DATABASE     mongo database name               (default renthouse)
//	JWT_SECRET         HMAC secret for bearer tokens     (required)
//	AMQP_URL           enable the event publisher when set
//	AMQP_EXCHANGE      exchange for published events     (default renthouse.events)
//	METRICS_ADDR       prometheus endpoint listen addr   (default :9091)
//	LOG_LEVEL          debug | info | warn | error       (default info)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	audithook "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/audit_hook"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/httpapi"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/observability"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/memory"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/mongo"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/postgres"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/sqlite"

	amqphook "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/amqp_hook"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("renthoused exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load() //nolint:errcheck

	logger := newLogger(envOr("LOG_LEVEL", "info"))
	slog.SetDefault(logger)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx)
	if err != nil {
		return err
	}

	opts := []renthouse.Option{
		renthouse.WithLogger(logger),
		renthouse.WithPlugin(newAuditPlugin(logger)),
		renthouse.WithPlugin(observability.NewMetricsExtension(
			observability.NewPrometheusFactory(prometheus.DefaultRegisterer))),
	}

	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		pub, err := amqphook.New(amqpURL, envOr("AMQP_EXCHANGE", "renthouse.events"),
			amqphook.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		opts = append(opts, renthouse.WithPlugin(pub))
	}

	engine := renthouse.New(st, opts...)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start ledger: %w", err)
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			logger.Error("ledger stop failed", "error", err)
		}
	}()

	apiServer := httpapi.NewServer(engine, httpapi.ServerConfig{
		Addr:      envOr("RENTHOUSE_ADDR", ":8080"),
		JWTSecret: []byte(secret),
		Logger:    logger,
	})

	metricsServer := &http.Server{
		Addr:              envOr("METRICS_ADDR", ":9091"),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- apiServer.Start() }()
	go func() {
		logger.Info("starting metrics endpoint", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", "error", err)
	}
	return nil
}

// buildStore constructs the store backend named by RENTHOUSE_STORE.
func buildStore(ctx context.Context) (store.Store, error) {
	driver := envOr("RENTHOUSE_STORE", "memory")
	url := os.Getenv("DATABASE_URL")

	switch driver {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		if url == "" {
			url = "renthouse.db"
		}
		return sqlite.New(url)
	case "postgres":
		if url == "" {
			return nil, errors.New("DATABASE_URL must be set for the postgres store")
		}
		return postgres.New(ctx, url)
	case "mongo":
		if url == "" {
			return nil, errors.New("DATABASE_URL must be set for the mongo store")
		}
		return mongo.New(ctx, url, envOr("MONGO_DATABASE", "renthouse"))
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// newAuditPlugin records audit events through the structured logger.
func newAuditPlugin(logger *slog.Logger) *audithook.Extension {
	return audithook.New(audithook.RecorderFunc(
		func(ctx context.Context, evt *audithook.AuditEvent) error {
			logger.InfoContext(ctx, "audit",
				"action", evt.Action,
				"resource", evt.Resource,
				"resource_id", evt.ResourceID,
				"outcome", evt.Outcome,
				"severity", evt.Severity,
				"metadata", evt.Metadata,
			)
			return nil
		},
	), audithook.WithLogger(logger))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
