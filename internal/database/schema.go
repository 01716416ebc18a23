package database

import (
	"context"
	"fmt"
	"log/slog"
)

// schema creates the four relations the relay reads and writes. Devices, users and
// groups are provisioned out of band; the relay only appends to history.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS chat_groups (
		id            BIGSERIAL PRIMARY KEY,
		notify_token  TEXT NOT NULL,
		chat_group_id TEXT UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id       BIGSERIAL PRIMARY KEY,
		name     TEXT NOT NULL,
		group_id BIGINT NOT NULL REFERENCES chat_groups(id)
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		device_id TEXT PRIMARY KEY,
		user_id   BIGINT NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		event_id   UUID PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		device_id  TEXT NOT NULL REFERENCES devices(device_id),
		created_at TIMESTAMPTZ NOT NULL,
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		level      VARCHAR(32) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS history_user_created_idx ON history (user_id, created_at DESC)`,
}

// Migrate creates missing tables and indexes inside a single transaction.
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	slog.Info("Database schema is up to date", "statements", len(schema))
	return nil
}
