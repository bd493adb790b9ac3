package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	"github.com/angelmondragon/greenleague-backend/internal/marketdata"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/bigquery"
	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/db"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/metrics"
	"github.com/angelmondragon/greenleague-backend/pkg/migrate"
	"github.com/angelmondragon/greenleague-backend/pkg/redis"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "relationships-sync"})

	_ = godotenv.Load()

	date := flag.String("date", "", "last stat date to aggregate (YYYY-MM-DD, default yesterday UTC)")
	days := flag.Int("days", 1, "number of consecutive dates ending at -date")
	ordersFile := flag.String("orders-file", "", "read orders from a JSON file instead of BigQuery")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "relationships-sync",
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Env,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	end, err := resolveEndDate(*date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date: %v\n", err)
		os.Exit(2)
	}
	if *days <= 0 {
		fmt.Fprintln(os.Stderr, "-days must be positive")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"end":  end.String(),
		"days": *days,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	source, closeSource, err := buildSource(ctx, cfg, logg, *ordersFile)
	requireResource(ctx, logg, "order source", err)
	defer closeSource()

	var locker relationships.DateLocker = relationships.NewMemoryDateLocker()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer redisClient.Close()
		locker, err = relationships.NewRedisDateLocker(redisClient, cfg.Relationships.LockTTL)
		requireResource(ctx, logg, "date locker", err)
	}

	writer, err := relationships.NewWriter(relationships.WriterParams{
		Store:           relationships.NewRepository(dbClient.DB()),
		Locker:          locker,
		Logger:          logg,
		FailureLogLimit: cfg.Relationships.FailureLogLimit,
		DeleteTimeout:   cfg.Relationships.DeleteTimeout,
		InsertTimeout:   cfg.Relationships.InsertTimeout,
	})
	requireResource(ctx, logg, "snapshot writer", err)

	syncer, err := relationships.NewSyncService(relationships.SyncServiceParams{
		Catalog:    catalog.NewRepository(dbClient.DB()),
		Source:     source,
		Aggregator: relationships.NewAggregator(cfg.Relationships.UnmatchedSampleSize),
		Writer:     writer,
		Logger:     logg,
		Metrics:    metrics.NewRelationshipSyncMetrics(prometheus.NewRegistry()),
	})
	requireResource(ctx, logg, "sync service", err)

	results, runErr := syncer.RunRange(ctx, end.Time, *days)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write results: %v\n", err)
		os.Exit(1)
	}

	if runErr != nil {
		logg.Error(ctx, "relationship sync finished with errors", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "relationship sync finished")
}

func resolveEndDate(raw string, now time.Time) (types.StatDate, error) {
	if raw == "" {
		return types.NewStatDate(now.UTC().AddDate(0, 0, -1)), nil
	}
	return types.ParseStatDate(raw)
}

func buildSource(ctx context.Context, cfg *config.Config, logg *logger.Logger, ordersFile string) (relationships.OrderSource, func(), error) {
	if ordersFile != "" {
		static, err := marketdata.LoadStaticSource(ordersFile)
		if err != nil {
			return nil, nil, err
		}
		return static, func() {}, nil
	}

	client, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return nil, nil, err
	}
	source, err := marketdata.NewBigQuerySource(client, client.ProjectID(), client.DatasetID(), client.OrdersTable(), logg)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return source, func() { _ = client.Close() }, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
