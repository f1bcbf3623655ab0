package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	LockBackendRedis = "redis"
	LockBackendMongo = "mongo"
	LockBackendLocal = "local"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	// Store selects the persistence backend. "memory" keeps everything in
	// process and is only suitable for a single local instance.
	Store string `env:"STORE_BACKEND, default=mongo"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Booking   BookingConfig
	Seed      SeedConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=resource_booking"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=5s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=3s"`
}

// BookingConfig controls reservation validation and the booking lock.
// A zero DurationStep or MaxDuration disables that check.
type BookingConfig struct {
	LockBackend  string        `env:"BOOKING_LOCK_BACKEND,  default=redis"`
	LockTTL      time.Duration `env:"BOOKING_LOCK_TTL,      default=20s"`
	LockWait     time.Duration `env:"BOOKING_LOCK_WAIT,     default=3s"`
	LockMargin   time.Duration `env:"BOOKING_LOCK_MARGIN,   default=2s"`
	DurationStep time.Duration `env:"BOOKING_DURATION_STEP, default=30m"`
	MaxDuration  time.Duration `env:"BOOKING_MAX_DURATION,  default=0s"`
}

type SeedConfig struct {
	AdminPassword string `env:"SEED_ADMIN_PASSWORD, default=admin"`
}

type RateLimitConfig struct {
	LoginRPS   float64 `env:"LOGIN_RATE_LIMIT, default=5"`
	LoginBurst int     `env:"LOGIN_RATE_BURST, default=10"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads an optional .env file, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMongo, StoreMemory, c.Store)
	}
	switch c.Booking.LockBackend {
	case LockBackendRedis, LockBackendMongo, LockBackendLocal:
	default:
		return fmt.Errorf("BOOKING_LOCK_BACKEND must be one of %q, %q, %q, got %q",
			LockBackendRedis, LockBackendMongo, LockBackendLocal, c.Booking.LockBackend)
	}
	if c.Store == StoreMemory && c.Booking.LockBackend == LockBackendMongo {
		return errors.New("BOOKING_LOCK_BACKEND=mongo requires STORE_BACKEND=mongo")
	}
	if c.Booking.LockMargin <= 0 || c.Booking.LockMargin >= c.Booking.LockTTL {
		return errors.New("BOOKING_LOCK_MARGIN must be positive and shorter than BOOKING_LOCK_TTL")
	}
	// a booking makes up to three store calls under the lease, the conflict
	// read, the insert and the owner lookup
	if c.Store == StoreMongo {
		if minTTL := 3*c.Mongo.Timeout + c.Booking.LockMargin; c.Booking.LockTTL <= minTTL {
			return fmt.Errorf("BOOKING_LOCK_TTL must exceed 3*MONGO_TIMEOUT+BOOKING_LOCK_MARGIN (%s), got %s",
				minTTL, c.Booking.LockTTL)
		}
	}
	if c.Booking.DurationStep < 0 || c.Booking.MaxDuration < 0 {
		return errors.New("booking durations must not be negative")
	}
	if c.Booking.DurationStep > 0 && c.Booking.DurationStep%time.Minute != 0 {
		return errors.New("BOOKING_DURATION_STEP must be a whole number of minutes")
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, no debug output).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
