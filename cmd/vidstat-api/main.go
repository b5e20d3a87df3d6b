package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vidstat/vidstat/internal/api"
	"github.com/vidstat/vidstat/internal/config"
	datasetpostgres "github.com/vidstat/vidstat/internal/dataset/postgres"
	"github.com/vidstat/vidstat/internal/nlq"
	"github.com/vidstat/vidstat/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("vidstat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := datasetpostgres.Open(context.Background(), datasetpostgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	repo := datasetpostgres.NewRepository(db)

	compiler, err := buildCompiler(cfg)
	if err != nil {
		logger.Error("failed to build question compiler", slog.Any("error", err))
		os.Exit(1)
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Compiler: compiler,
		Repo:     repo,
		Readiness: api.CombineReadinessChecks(
			api.CheckDatabaseDSN(cfg),
			repo.HealthCheck,
		),
		DependencyTimeout: time.Second,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func buildCompiler(cfg config.Config) (nlq.Compiler, error) {
	if !cfg.AI.Enabled {
		return nlq.NewRuleEngine(), nil
	}
	client, err := nlq.NewGigaChatClient(nlq.GigaChatConfig{
		AuthKey:            cfg.AI.AuthKey,
		Scope:              cfg.AI.Scope,
		OAuthURL:           cfg.AI.OAuthURL,
		ChatURL:            cfg.AI.ChatURL,
		Model:              cfg.AI.Model,
		Timeout:            cfg.AI.Timeout,
		InsecureSkipVerify: cfg.AI.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}
	return nlq.NewLLMCompiler(client), nil
}
