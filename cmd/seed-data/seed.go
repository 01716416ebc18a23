package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// fixture sizes one seeding run.
type fixture struct {
	Groups          int
	UsersPerGroup   int
	DevicesPerUser  int
	NotifyToken     string
	ChatGroupPrefix string
}

func (f fixture) validate() error {
	if f.Groups <= 0 || f.UsersPerGroup <= 0 || f.DevicesPerUser <= 0 {
		return fmt.Errorf("groups, users-per-group and devices-per-user must be positive")
	}
	if f.NotifyToken == "" {
		return fmt.Errorf("notify-token cannot be empty")
	}
	return nil
}

// deviceID is deterministic so telemetry can be published for seeded devices later.
func deviceID(group, user, device int) string {
	return fmt.Sprintf("DEV-%03d-%02d-%02d", group, user, device)
}

// cleanDatabase deletes in foreign-key order.
func cleanDatabase(ctx context.Context, db *sql.DB) error {
	queries := []string{
		"DELETE FROM history",
		"DELETE FROM devices",
		"DELETE FROM users",
		"DELETE FROM chat_groups",
	}
	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// seedOwnership creates groups, their users and the users' devices, returning the ids
// of every device created.
func seedOwnership(ctx context.Context, db *sql.DB, f fixture) ([]string, error) {
	var devices []string

	for g := 1; g <= f.Groups; g++ {
		groupID, err := createGroup(ctx, db, f.NotifyToken, fmt.Sprintf("%s%03d", f.ChatGroupPrefix, g))
		if err != nil {
			return devices, fmt.Errorf("failed to create group %d: %w", g, err)
		}

		for u := 1; u <= f.UsersPerGroup; u++ {
			userID, err := createUser(ctx, db, fmt.Sprintf("User %d-%d", g, u), groupID)
			if err != nil {
				return devices, fmt.Errorf("failed to create user %d-%d: %w", g, u, err)
			}

			for d := 1; d <= f.DevicesPerUser; d++ {
				id := deviceID(g, u, d)
				if err := createDevice(ctx, db, id, userID); err != nil {
					return devices, fmt.Errorf("failed to create device %s: %w", id, err)
				}
				devices = append(devices, id)
			}
		}

		slog.Debug("Seeded group", "group", g, "devices", len(devices))
	}

	return devices, nil
}

func createGroup(ctx context.Context, db *sql.DB, token, chatGroupID string) (int64, error) {
	query := `
		INSERT INTO chat_groups (notify_token, chat_group_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_group_id) DO UPDATE SET notify_token = EXCLUDED.notify_token
		RETURNING id
	`
	var id int64
	err := db.QueryRowContext(ctx, query, token, chatGroupID).Scan(&id)
	return id, err
}

func createUser(ctx context.Context, db *sql.DB, name string, groupID int64) (int64, error) {
	query := `INSERT INTO users (name, group_id) VALUES ($1, $2) RETURNING id`
	var id int64
	err := db.QueryRowContext(ctx, query, name, groupID).Scan(&id)
	return id, err
}

func createDevice(ctx context.Context, db *sql.DB, id string, userID int64) error {
	query := `
		INSERT INTO devices (device_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE SET user_id = EXCLUDED.user_id
	`
	_, err := db.ExecContext(ctx, query, id, userID)
	return err
}
