package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Resolution is the owner of a device and where its alerts go.
type Resolution struct {
	NotificationToken string
	UserName          string
	UserID            int64
}

// ResolveDevice joins Device -> User -> Group for the given device id. The join runs on
// every call so ownership changes apply to the next message. Returns ErrNotFound for
// unregistered devices.
func (db *DB) ResolveDevice(ctx context.Context, deviceID string) (*Resolution, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT g.notify_token, u.name, d.user_id
		FROM devices d
		JOIN users u ON u.id = d.user_id
		JOIN chat_groups g ON g.id = u.group_id
		WHERE d.device_id = $1
	`
	var r Resolution
	err := db.conn.QueryRowContext(ctx, query, deviceID).Scan(
		&r.NotificationToken,
		&r.UserName,
		&r.UserID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device: %w", err)
	}
	return &r, nil
}
