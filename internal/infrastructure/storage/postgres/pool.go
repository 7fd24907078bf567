// Package postgres runs compiled specifications against PostgreSQL: a pgx
// pool, a transaction manager, the predicate-to-squirrel translator and a
// generic repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sieve/pkg/logger"
)

// PoolConfig configures the connection pool backing spec repositories.
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ApplicationName string
	// SearchPath resolves the unqualified table names given to NewSpecRepo.
	// Empty keeps the server default.
	SearchPath string
}

// DefaultPoolConfig returns the settings used by cmd/spike.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 10 * time.Minute,
		ApplicationName: "sieve",
	}
}

// pgxConfig merges c over the settings parsed from the DSN.
func (c PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = min(c.MinConns, pc.MaxConns)
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}

	params := pc.ConnConfig.RuntimeParams
	if c.ApplicationName != "" {
		params["application_name"] = c.ApplicationName
	}
	if c.SearchPath != "" {
		params["search_path"] = c.SearchPath
	}
	return pc, nil
}

// Pool is the pgx pool shared by the repositories and the TxManager.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects and pings the database.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	pc, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Debug(ctx, "database pool ready",
		"max_conns", pc.MaxConns, "search_path", pc.ConnConfig.RuntimeParams["search_path"])
	return &Pool{Pool: pool}, nil
}

// LogStats writes the pool counters at info level.
func (p *Pool) LogStats(ctx context.Context) {
	st := p.Stat()
	logger.Info(ctx, "database pool stats",
		"total", st.TotalConns(),
		"acquired", st.AcquiredConns(),
		"idle", st.IdleConns(),
		"max", st.MaxConns(),
		"acquire_count", st.AcquireCount(),
		"acquire_wait", st.AcquireDuration(),
	)
}
