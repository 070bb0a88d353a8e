package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Client owns the pgx pool and the gorm handle layered on top of it
type Client struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
	DB    *gorm.DB
}

// NewClient opens a pgx pool for settings.DSN and wraps it for gorm
func NewClient(ctx context.Context, settings config.PostgresSettings) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if settings.MaxConns > 0 {
		poolCfg.MaxConns = int32(settings.MaxConns)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &Client{pool: pool, sqlDB: sqlDB, DB: db}, nil
}

// Ping checks that the pool can reach the server
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close releases the database/sql wrapper and then the pool
func (c *Client) Close() {
	_ = c.sqlDB.Close()
	c.pool.Close()
}
