// Package database is the record store: device ownership resolution and the append-only
// accident history.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a lookup matches no row. It is an expected outcome.
var ErrNotFound = errors.New("not found")

// DefaultQueryTimeout bounds a single store operation when no timeout is configured.
const DefaultQueryTimeout = 5 * time.Second

// DB wraps a connection pool. Every operation checks a connection out of the pool and
// returns it before the method returns; nothing is held across calls to other services.
type DB struct {
	conn         *sql.DB
	queryTimeout time.Duration
}

// NewDB opens and pings a PostgreSQL pool using the provided DSN.
func NewDB(dsn string, queryTimeout time.Duration) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return newWithConn(conn, queryTimeout), nil
}

func newWithConn(conn *sql.DB, queryTimeout time.Duration) *DB {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &DB{conn: conn, queryTimeout: queryTimeout}
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Ping checks that the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}
