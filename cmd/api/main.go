// @title           Resource Booking API
// @version         1.0
// @description     Intranet booking of meeting rooms and supercomputers.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	_ "github.com/sirpyerre/resource-booking/docs"
	"github.com/sirpyerre/resource-booking/internal/api"
	"github.com/sirpyerre/resource-booking/internal/api/middleware"
	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
	"github.com/sirpyerre/resource-booking/internal/core/service"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/config"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/db/memory"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/db/redis"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/resource-booking/internal/infrastructure/queue"
	"github.com/sirpyerre/resource-booking/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// storage groups the adapters selected by STORE_BACKEND and BOOKING_LOCK_BACKEND.
type storage struct {
	users        ports.UserRepository
	resources    ports.ResourceRepository
	reservations ports.ReservationRepository
	audit        ports.AuditRepository
	locker       ports.BookingLocker
	probes       map[string]handlers.Pinger
	close        func(context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "resource-booking: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "resource-booking",
	})

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		store.close(closeCtx)
	}()

	if err := service.NewSeeder(store.users, store.resources, cfg.Seed.AdminPassword, log).Seed(ctx); err != nil {
		return err
	}

	// audit workers outlive the request context so shutdown can drain them
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, store.audit, log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)
	go loginLimiter.Run(ctx)

	e := api.NewRouter(api.Deps{
		Auth:      service.NewAuthService(store.users, cfg.JWTSecret, cfg.TokenTTL, log),
		Users:     service.NewUserService(store.users, store.reservations, dispatcher, log),
		Resources: service.NewResourceService(store.resources),
		Reservations: service.NewReservationService(store.reservations, store.resources, store.users, store.locker, dispatcher,
			service.BookingOptions{
				Rules: domain.WindowRules{
					Step:        cfg.Booking.DurationStep,
					MaxDuration: cfg.Booking.MaxDuration,
				},
				LockTTL:    cfg.Booking.LockTTL,
				LockWait:   cfg.Booking.LockWait,
				LockMargin: cfg.Booking.LockMargin,
			}, log),
		Readiness:    handlers.NewReadinessHandler(store.probes),
		LoginLimiter: loginLimiter,
		Log:          log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Store).
			Str("lock_backend", cfg.Booking.LockBackend).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	var (
		s       = &storage{probes: map[string]handlers.Pinger{}}
		closers []func(context.Context)
	)
	s.close = func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
	}

	var db *mongodriver.Database
	switch cfg.Store {
	case config.StoreMemory:
		mem := memory.NewStore()
		s.users = memory.NewUserRepository(mem)
		s.resources = memory.NewResourceRepository(mem)
		s.reservations = memory.NewReservationRepository(mem)
		s.audit = memory.NewAuditRepository(mem)
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		client, database, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		})
		if err := mongo.EnsureIndexes(ctx, database); err != nil {
			s.close(ctx)
			return nil, err
		}
		db = database
		s.users = mongo.NewUserRepository(db, cfg.Mongo.Timeout)
		s.resources = mongo.NewResourceRepository(db, cfg.Mongo.Timeout)
		s.reservations = mongo.NewReservationRepository(db, cfg.Mongo.Timeout)
		s.audit = mongo.NewAuditRepository(db)
		s.probes["mongo"] = handlers.MongoPinger(db)
	}

	switch cfg.Booking.LockBackend {
	case config.LockBackendLocal:
		s.locker = memory.NewBookingLocker()
		if cfg.Store == config.StoreMongo {
			log.Warn().Msg("local booking lock only serialises bookings within this instance")
		}
	case config.LockBackendMongo:
		s.locker = mongo.NewBookingLocker(db)
	default:
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		closers = append(closers, func(context.Context) { closeRedis(rdb, log) })
		s.locker = redis.NewBookingLocker(rdb)
		s.probes["redis"] = handlers.RedisPinger(rdb)
	}

	return s, nil
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
}
