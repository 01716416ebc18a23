package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is one immutable accident record.
type Event struct {
	EventID   uuid.UUID
	UserID    int64
	DeviceID  string
	CreatedAt time.Time
	Latitude  float64
	Longitude float64
	Level     string
}

// HistoryRecord is the latest event of a group joined with its user's name.
type HistoryRecord struct {
	UserName  string
	CreatedAt time.Time
	Latitude  float64
	Longitude float64
	Level     string
}

// InsertEvent appends one event. A zero EventID is replaced with a new random id.
func (db *DB) InsertEvent(ctx context.Context, event *Event) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO history (event_id, user_id, device_id, created_at, latitude, longitude, level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.conn.ExecContext(ctx, query,
		event.EventID,
		event.UserID,
		event.DeviceID,
		event.CreatedAt,
		event.Latitude,
		event.Longitude,
		event.Level,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	slog.Debug("Inserted history event",
		"event_id", event.EventID,
		"device_id", event.DeviceID,
		"user_id", event.UserID,
	)
	return nil
}

// LatestEventForGroup returns the most recent event recorded for any user of the chat group.
// Returns ErrNotFound when the group has no events.
func (db *DB) LatestEventForGroup(ctx context.Context, groupChatID string) (*HistoryRecord, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT h.created_at, h.latitude, h.longitude, h.level, u.name
		FROM chat_groups g
		JOIN users u ON u.group_id = g.id
		JOIN history h ON h.user_id = u.id
		WHERE g.chat_group_id = $1
		ORDER BY h.created_at DESC, h.event_id DESC
		LIMIT 1
	`
	var rec HistoryRecord
	err := db.conn.QueryRowContext(ctx, query, groupChatID).Scan(
		&rec.CreatedAt,
		&rec.Latitude,
		&rec.Longitude,
		&rec.Level,
		&rec.UserName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history for group %s: %w", groupChatID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return &rec, nil
}
