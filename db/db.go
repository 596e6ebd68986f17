// Package db implements the email record store on PostgreSQL.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/config"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/pkg/metrics"
)

//go:embed schema.sql
var schema string

// Database wraps the connection pool for the email record store.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDatabase opens a connection pool, verifies connectivity and applies the
// embedded schema.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*Database, error) {
	sslMode := "disable"
	if cfg.TLSMode {
		sslMode = "require"
	}

	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, sslMode)

	logger.Info("DB: connecting to database",
		"host", cfg.Host, "port", cfg.Port, "name", cfg.Name, "sslmode", sslMode)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	if cfg.LogQueries {
		poolConfig.ConnConfig.Tracer = &queryTracer{}
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	db := &Database{Pool: pool}

	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (db *Database) migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// timedExec wraps Exec with query count metrics keyed by operation.
func (db *Database) timedExec(ctx context.Context, operation, sql string, args ...interface{}) (int64, error) {
	tag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		metrics.DBQueriesTotal.WithLabelValues(operation, "failure").Inc()
		return 0, err
	}
	metrics.DBQueriesTotal.WithLabelValues(operation, "success").Inc()
	return tag.RowsAffected(), nil
}

// queryTracer logs all queries when database debugging is enabled.
type queryTracer struct{}

type traceStartKey struct{}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	logger.Debug("DB: query start", "sql", data.SQL, "args", data.Args)
	return context.WithValue(ctx, traceStartKey{}, time.Now())
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	var elapsed time.Duration
	if start, ok := ctx.Value(traceStartKey{}).(time.Time); ok {
		elapsed = time.Since(start)
	}
	if data.Err != nil {
		logger.Debug("DB: query end", "duration", elapsed, "error", data.Err)
		return
	}
	logger.Debug("DB: query end", "duration", elapsed, "rows", data.CommandTag.RowsAffected())
}
