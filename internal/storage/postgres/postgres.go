package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-wallet-pnl/internal/storage"
	"solana-wallet-pnl/internal/storage/migrations"
)

// Pool is the shared pgx pool behind every Postgres store.
type Pool struct {
	*pgxpool.Pool
}

const (
	applicationName = "solana-wallet-pnl"
	maxConns        = 8
)

// NewPool dials Postgres and pings it once.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnConfig.RuntimeParams["application_name"] == "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	if cfg.MaxConns > maxConns {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Open connects and applies the embedded schema.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies the embedded Postgres schema.
func (p *Pool) Migrate(ctx context.Context) error {
	return migrations.Apply(ctx, migrations.Postgres, func(ctx context.Context, stmt string) error {
		_, err := p.Exec(ctx, stmt)
		return err
	})
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translate maps driver errors onto the storage sentinels, naming key.
// A foreign key violation means the parent run is missing, so it reads as
// ErrNotFound. Anything else is wrapped with op.
func translate(err error, op, key string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", key, storage.ErrDuplicateKey)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
