package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/diagnosis/shuttle-bookings/pkg/auth"
	"github.com/diagnosis/shuttle-bookings/pkg/clock"
	"github.com/diagnosis/shuttle-bookings/pkg/config"
	"github.com/diagnosis/shuttle-bookings/pkg/database"
	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/lock"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/metrics"
	mw "github.com/diagnosis/shuttle-bookings/pkg/middleware"
	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/handlers"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/service"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", logger.Err(err))
		os.Exit(1)
	}
	defer closeStore()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		logger.Error("Failed to set up booking lock", logger.Err(err))
		os.Exit(1)
	}
	defer closeLocker()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL, "shuttle")
		if err != nil {
			logger.Error("Failed to connect to NATS", logger.Err(err))
			os.Exit(1)
		}
		publisher = bus
	}
	defer publisher.Close()

	scheme, err := auth.SchemeFor(cfg.Auth.PasswordScheme)
	if err != nil {
		logger.Error("Invalid password scheme", logger.Err(err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	clk := clock.Real()

	// Initialize repositories
	directory := repository.NewDirectoryRepository(store, cfg.Shuttle.Offices)
	ledger := repository.NewLedgerRepository(store, cfg.Shuttle.Offices)

	// Initialize services
	authService := service.NewAuthService(directory, scheme, publisher, m, clk, cfg)
	bookingService := service.NewBookingService(directory, ledger, locker, publisher, m, clk, cfg)
	scheduleService := service.NewScheduleService(directory, publisher, m, clk, cfg)

	h := handlers.New(authService, bookingService, scheduleService, cfg.Auth.JWTSecret)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("shuttle"))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(cfg.Server.CORSOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(m, reg))
	h.Mount(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down shuttle service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shuttle service shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting shuttle service",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"lock", cfg.Store.Lock,
		"password_scheme", scheme.Name(),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Shuttle service error", logger.Err(err))
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (tabular.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		return tabular.NewMemoryStore(), func() {}, nil
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return tabular.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	switch cfg.Store.Lock {
	case "local":
		return lock.NewKeyedMutex(), func() {}, nil
	case "redis":
		client, err := lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return lock.NewRedisLocker(client, cfg.Redis.LockTTL), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", cfg.Store.Lock)
	}
}
