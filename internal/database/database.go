// Package database implements the registration repository on PostgreSQL.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/registrar/internal/config"
	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool sized by cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Repository implements core.Repository with a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps pool. The caller owns the pool and closes it.
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, errors.New("pool cannot be nil")
	}
	return &Repository{pool: pool}, nil
}

// WithTx executes fn within a database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, core.Queries) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", translate(err))
	}

	if err := fn(ctx, &Queries{db: tx}); err != nil {
		// Rollback must run even when ctx is what failed.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}
	return nil
}

// Ping checks that a connection can be acquired and used.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
