package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Postgres is the shared gorm handle used by every repository adapter.
type Postgres struct {
	DB *gorm.DB
}

// ConnectOptions tunes the startup ping loop and the pool.
type ConnectOptions struct {
	Attempts     uint
	Delay        time.Duration
	MaxOpenConns int
	Logger       *slog.Logger
}

// Connect opens the pool and pings until the database answers or the
// attempts run out.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 5
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = time.Second
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	}

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return sqlDB.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("postgres ping failed, retrying",
				"event", "postgres_ping_retry",
				"module", "internal/platform/db",
				"layer", "platform",
				"attempt", attempt+1,
				"error", err.Error(),
			)
		}),
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
