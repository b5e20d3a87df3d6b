package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vidstat/vidstat/internal/bot"
	"github.com/vidstat/vidstat/internal/config"
	datasetpostgres "github.com/vidstat/vidstat/internal/dataset/postgres"
	"github.com/vidstat/vidstat/internal/loader"
	"github.com/vidstat/vidstat/internal/migrations"
	"github.com/vidstat/vidstat/internal/nlq"
	"github.com/vidstat/vidstat/internal/observability"
	"github.com/vidstat/vidstat/internal/storage"
	s3store "github.com/vidstat/vidstat/internal/storage/s3"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("vidstat-bot")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := datasetpostgres.Open(ctx, datasetpostgres.DBConfig{
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

	if cfg.Loader.AutoMigrate {
		applied, err := migrations.NewRunner().Up(ctx, db, 0)
		if err != nil {
			logger.Error("migrations failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.Int("count", applied))
	}

	repo := datasetpostgres.NewRepository(db)

	if cfg.Loader.AutoLoad {
		store, err := objectStoreFor(cfg, cfg.Loader.DataPath)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		stats, err := loader.New(repo, store, logger).LoadIfNeeded(ctx, cfg.Loader.DataPath, cfg.Loader.ForceReload)
		if err != nil {
			logger.Error("dataset load failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("dataset ready",
			slog.Int64("videos", stats.Videos),
			slog.Int64("snapshots", stats.Snapshots),
		)
	}

	compiler, err := buildCompiler(cfg)
	if err != nil {
		logger.Error("failed to build question compiler", slog.Any("error", err))
		os.Exit(1)
	}

	service := bot.NewService(compiler, repo, logger, "telegram")
	b, err := bot.New(cfg.Bot.Token, service, logger, bot.Options{
		PollTimeout:    cfg.Bot.PollTimeout,
		RequestTimeout: cfg.Bot.RequestTimeout,
	})
	if err != nil {
		logger.Error("failed to start telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("bot shut down")
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

func objectStoreFor(cfg config.Config, location string) (loader.ObjectFetcher, error) {
	if !storage.IsS3Path(location) {
		return nil, nil
	}
	bucket, _, err := storage.SplitS3Path(location)
	if err != nil {
		return nil, err
	}
	return s3store.New(s3store.Config{
		Endpoint:        cfg.ObjectStore.Endpoint,
		Region:          cfg.ObjectStore.Region,
		Bucket:          bucket,
		AccessKeyID:     cfg.ObjectStore.AccessKeyID,
		SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		UseSSL:          cfg.ObjectStore.UseSSL,
		Prefix:          cfg.ObjectStore.Prefix,
	})
}
