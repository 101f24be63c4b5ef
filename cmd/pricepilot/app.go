package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/pricepilot/internal/adapters/driven/config/file"
	kafkaevents "github.com/custodia-labs/pricepilot/internal/adapters/driven/events/kafka"
	redislock "github.com/custodia-labs/pricepilot/internal/adapters/driven/lock/redis"
	"github.com/custodia-labs/pricepilot/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/pricepilot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pricepilot/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/pricepilot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pricepilot/internal/adapters/driving/cli"
	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/core/services"
	"github.com/custodia-labs/pricepilot/internal/logger"
	"github.com/custodia-labs/pricepilot/internal/vendors"
)

// stores is the persistence surface every storage driver provides.
type stores interface {
	CatalogStore() driven.CatalogStore
	PriceStore() driven.PriceStore
	HistoryStore() driven.HistoryStore
	RunStore() driven.RunStore
	SchedulerStore() driven.SchedulerStore
	Close() error
}

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildServices wires the application from the config in configDir.
func buildServices(ctx context.Context, configDir string) (svc *cli.Services, err error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	cfg, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configStore.Path(), err)
	}
	logger.Debug("config: %s, storage %s, %d vendors", configStore.Path(), cfg.Storage.Driver, len(cfg.Vendors))

	var release closers
	defer func() {
		if err != nil {
			_ = release.Close()
		}
	}()

	store, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	release = append(release, store.Close)

	if err := services.SeedCategories(ctx, store.CatalogStore()); err != nil {
		return nil, fmt.Errorf("seeding categories: %w", err)
	}

	var runLock driven.RunLock
	if cfg.Redis.Addr != "" {
		lock, err := redislock.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		release = append(release, lock.Close)
		runLock = lock
	}

	var publisher driven.PriceEventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := kafkaevents.NewPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		release = append(release, p.Close)
		publisher = p
	}

	var (
		recorder *prometheus.Recorder
		metrics  driven.MetricsRecorder
	)
	if cfg.Metrics.Addr != "" {
		recorder = prometheus.NewRecorder()
		metrics = recorder
	}

	matcher := services.NewMatcher(store.CatalogStore(), cfg.Pipeline, metrics)
	ledger := services.NewPriceLedger(
		store.PriceStore(), store.HistoryStore(), store.CatalogStore(), cfg.Pipeline, publisher, metrics)
	collector := services.NewCollector(
		vendors.NewFactory(),
		store.CatalogStore(),
		store.RunStore(),
		matcher,
		ledger,
		runLock,
		metrics,
		cfg.Pipeline,
		cfg.Vendors,
	)
	scheduler := services.NewScheduler(cfg.Scheduler, store.SchedulerStore(), store.RunStore(), collector, ledger)

	reload := func() {
		if err := configStore.Load(); err != nil {
			logger.Warn("config: reload failed: %v", err)
			return
		}
		next, err := settingsService.Get()
		if err != nil {
			logger.Warn("config: keeping previous settings: %v", err)
			return
		}
		matcher.Reconfigure(next.Pipeline)
		ledger.Reconfigure(next.Pipeline)
		collector.Reconfigure(next.Pipeline, next.Vendors)
		logger.Info("config: reloaded %s", configStore.Path())
	}

	tasks := []cli.BackgroundTask{watchConfig(configStore.Path(), reload)}
	if recorder != nil {
		addr := cfg.Metrics.Addr
		tasks = append(tasks, func(ctx context.Context) error {
			logger.Info("metrics: serving on %s/metrics", addr)
			return recorder.Serve(ctx, addr)
		})
	}

	return &cli.Services{
		Collector:       collector,
		Analytics:       services.NewAnalytics(store.CatalogStore(), store.PriceStore(), store.HistoryStore()),
		Catalog:         services.NewCatalogService(store.CatalogStore(), store.RunStore()),
		Ledger:          ledger,
		Settings:        settingsService,
		Scheduler:       scheduler,
		BackgroundTasks: tasks,
		Close:           release.Close,
	}, nil
}

// openStores opens the configured storage driver.
func openStores(ctx context.Context, cfg domain.StorageSettings) (stores, error) {
	switch cfg.Driver {
	case domain.StorageDriverSQLite:
		s, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil
	case domain.StorageDriverPostgres:
		s, err := postgres.NewStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil
	case domain.StorageDriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: storage driver %q", domain.ErrUnsupportedType, cfg.Driver)
	}
}

// watchConfig reloads settings whenever the config file changes.
func watchConfig(path string, onChange func()) cli.BackgroundTask {
	return func(ctx context.Context) error {
		w, err := file.NewWatcher(path, file.DefaultDebounce, onChange)
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer w.Close()
		return w.Run(ctx)
	}
}
