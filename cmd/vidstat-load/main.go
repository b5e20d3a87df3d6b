package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vidstat/vidstat/internal/config"
	datasetpostgres "github.com/vidstat/vidstat/internal/dataset/postgres"
	"github.com/vidstat/vidstat/internal/loader"
	"github.com/vidstat/vidstat/internal/migrations"
	"github.com/vidstat/vidstat/internal/observability"
	"github.com/vidstat/vidstat/internal/storage"
	s3store "github.com/vidstat/vidstat/internal/storage/s3"
)

func main() {
	dataPath := flag.String("data", "", "dataset location: local path or s3://bucket/key (defaults to VIDSTAT_DATA_PATH)")
	force := flag.Bool("force", false, "reload even when the dataset is already present")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("vidstat-load")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	location := *dataPath
	if location == "" {
		location = cfg.Loader.DataPath
	}
	forceReload := *force || cfg.Loader.ForceReload

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

	var store loader.ObjectFetcher
	if storage.IsS3Path(location) {
		bucket, _, err := storage.SplitS3Path(location)
		if err != nil {
			logger.Error("invalid s3 location", slog.Any("error", err))
			os.Exit(1)
		}
		store, err = s3store.New(s3store.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			Bucket:          bucket,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			UseSSL:          cfg.ObjectStore.UseSSL,
			Prefix:          cfg.ObjectStore.Prefix,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
	}

	repo := datasetpostgres.NewRepository(db)
	stats, err := loader.New(repo, store, logger).LoadIfNeeded(ctx, location, forceReload)
	if err != nil {
		logger.Error("dataset load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("dataset ready",
		slog.Int64("videos", stats.Videos),
		slog.Int64("snapshots", stats.Snapshots),
		slog.String("elapsed", stats.Elapsed.String()),
	)
}
