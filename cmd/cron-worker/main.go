package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	"github.com/angelmondragon/greenleague-backend/internal/cron"
	"github.com/angelmondragon/greenleague-backend/internal/marketdata"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/bigquery"
	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/db"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/metrics"
	"github.com/angelmondragon/greenleague-backend/pkg/migrate"
	"github.com/angelmondragon/greenleague-backend/pkg/redis"
)

const cycleLockScope = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Env,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		cycleLock  cron.Lock
		dateLocker relationships.DateLocker
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		redisLock, err := redis.NewLock(redisClient, redisClient.LockKey(cycleLockScope, lockEnv(cfg.App.Env)), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		cycleLock = redisLock
		if dateLocker, err = relationships.NewRedisDateLocker(redisClient, cfg.Relationships.LockTTL); err != nil {
			logg.Error(context.Background(), "failed to create relationship date locker", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, using in-process locks")
		cycleLock = &cron.LocalLock{}
		dateLocker = relationships.NewMemoryDateLocker()
	}

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}()

	source, err := marketdata.NewBigQuerySource(bqClient, bqClient.ProjectID(), bqClient.DatasetID(), bqClient.OrdersTable(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order source", err)
		os.Exit(1)
	}

	writer, err := relationships.NewWriter(relationships.WriterParams{
		Store:           relationships.NewRepository(dbClient.DB()),
		Locker:          dateLocker,
		Logger:          logg,
		FailureLogLimit: cfg.Relationships.FailureLogLimit,
		DeleteTimeout:   cfg.Relationships.DeleteTimeout,
		InsertTimeout:   cfg.Relationships.InsertTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot writer", err)
		os.Exit(1)
	}

	syncer, err := relationships.NewSyncService(relationships.SyncServiceParams{
		Catalog:    catalog.NewRepository(dbClient.DB()),
		Source:     source,
		Aggregator: relationships.NewAggregator(cfg.Relationships.UnmatchedSampleSize),
		Writer:     writer,
		Logger:     logg,
		Metrics:    metrics.NewRelationshipSyncMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create relationship sync service", err)
		os.Exit(1)
	}

	syncJob, err := cron.NewRelationshipSyncJob(cron.RelationshipSyncJobParams{
		Logger:       logg,
		Syncer:       syncer,
		BackfillDays: cfg.Relationships.BackfillDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create relationship sync job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(syncJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:         logg,
		Registry:       registry,
		Lock:           cycleLock,
		Metrics:        metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:       cfg.Cron.Interval,
		JobTimeout:     cfg.Cron.JobTimeout,
		SkipInitialRun: cfg.Cron.SkipInitialRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
