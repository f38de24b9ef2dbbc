package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/database"
	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/logger"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/repository/boltstore"
	"github.com/iliyamo/travel-booking/internal/router"
	"github.com/iliyamo/travel-booking/internal/service"
	"github.com/iliyamo/travel-booking/internal/tracing"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.Load()

	log := logger.New(cfg.Env, cfg.ServiceName)
	defer func() { _ = log.Sync() }()

	if shutdown := tracing.Init(cfg.ServiceName); shutdown != nil {
		defer shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, checks, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer store.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limiting disabled, freezes kept in memory")
	} else {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	events := newPublisher(cfg, log)
	defer events.Close()
	if cfg.BookingLogConsumer && cfg.EventBroker == "rabbitmq" {
		bl := queue.NewBookingLog(cfg.BookingLogDir)
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.RabbitMQURL, bl, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", zap.Error(err))
			}
		}()
		log.Info("booking consumer started", zap.String("log_file", bl.Path()))
	}

	clk := clock.NewSystem()
	locks := service.NewKeyedLocker()
	inventory := service.NewInventoryService(store, store, locks,
		service.WithSeedMode(service.ParseSeedMode(cfg.LayoutSeedMode)),
		service.WithInventoryLogger(log),
	)
	pricingOpts := []service.PricingOption{
		service.WithHolidays(cfg.PricingHolidays),
		service.WithPricingLogger(log),
	}
	if cfg.PricingSeed != 0 {
		pricingOpts = append(pricingOpts, service.WithRand(rand.New(rand.NewPCG(cfg.PricingSeed, cfg.PricingSeed))))
	}
	pricing := service.NewPricingService(store, store, newFreezeStore(cfg, rdb, clk, log), locks, clk, pricingOpts...)
	ledger := service.NewLedger(store, clk)
	reservations := service.NewReservationService(inventory, pricing, ledger, events, clk, log)
	cancellations := service.NewCancellationService(ledger, inventory, locks, events, clk,
		service.WithInventoryRelease(cfg.CancelReleasesInventory),
		service.WithCancellationLogger(log),
	)
	catalog := service.NewCatalogService(store, log)

	e := router.New(router.Handlers{
		Health:       handler.NewHealthHandler(checks),
		Bookings:     handler.NewBookingHandler(reservations, ledger, log),
		Cancellation: handler.NewCancellationHandler(cancellations, ledger, log),
		Pricing:      handler.NewPricingHandler(pricing, log),
		Selection:    handler.NewSelectionHandler(inventory, log),
		Catalog:      handler.NewCatalogHandler(catalog, log),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.StorageDriver),
			zap.String("events", cfg.EventBroker),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore opens the configured backend and returns the health checks
// that go with it.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, map[string]handler.Check, error) {
	checks := map[string]handler.Check{}
	switch cfg.StorageDriver {
	case "bolt":
		if err := os.MkdirAll(filepath.Dir(cfg.BoltPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create bolt dir: %w", err)
		}
		s, err := boltstore.New(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, checks, nil
	case "mysql":
		db, err := database.Open(database.Options{
			User:     cfg.DBUser,
			Password: cfg.DBPass,
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Name:     cfg.DBName,
		})
		if err != nil {
			return nil, nil, err
		}
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := database.Migrate(migrateCtx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		checks["mysql"] = db.PingContext
		return repository.NewMySQLStore(db), checks, nil
	}
	return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
}

func newPublisher(cfg config.Config, log *zap.Logger) queue.Publisher {
	switch cfg.EventBroker {
	case "rabbitmq":
		return queue.NewRabbitPublisher(cfg.RabbitMQURL, log)
	case "kafka":
		return queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	case "", "none":
		return queue.NopPublisher{}
	}
	log.Warn("unknown EVENT_BROKER, events disabled", zap.String("broker", cfg.EventBroker))
	return queue.NopPublisher{}
}

func newFreezeStore(cfg config.Config, rdb *redis.Client, clk clock.Clock, log *zap.Logger) service.FreezeStore {
	if cfg.FreezeBackend == "redis" {
		if rdb != nil {
			return service.NewRedisFreezeStore(rdb, clk)
		}
		log.Warn("FREEZE_BACKEND=redis but redis is unavailable; using memory")
	}
	return service.NewMemoryFreezeStore(clk)
}
