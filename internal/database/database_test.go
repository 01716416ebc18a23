// Package database tests use sqlmock to exercise every query without a live PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return newWithConn(conn, time.Second), mock
}

func TestNewDB(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{name: "invalid DSN", dsn: "invalid-dsn"},
		{name: "empty DSN", dsn: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDB(tt.dsn, time.Second)
			if err == nil {
				db.Close()
				t.Errorf("NewDB(%q) error = nil, want error", tt.dsn)
			}
		})
	}
}

func TestDB_Close(t *testing.T) {
	db := &DB{conn: nil}
	if err := db.Close(); err != nil {
		t.Errorf("Close() with nil conn error = %v, want nil", err)
	}
}

func TestNewWithConn_DefaultTimeout(t *testing.T) {
	db := newWithConn(nil, 0)
	if db.queryTimeout != DefaultQueryTimeout {
		t.Errorf("queryTimeout = %v, want %v", db.queryTimeout, DefaultQueryTimeout)
	}
}

func TestDB_ResolveDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("registered device", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT g.notify_token, u.name, d.user_id\s+FROM devices d\s+JOIN users u ON u.id = d.user_id\s+JOIN chat_groups g ON g.id = u.group_id\s+WHERE d.device_id = \$1`).
			WithArgs("D1").
			WillReturnRows(sqlmock.NewRows([]string{"notify_token", "name", "user_id"}).AddRow("T1", "Somchai", int64(7)))

		got, err := db.ResolveDevice(ctx, "D1")
		if err != nil {
			t.Fatalf("ResolveDevice() error = %v", err)
		}
		want := Resolution{NotificationToken: "T1", UserName: "Somchai", UserID: 7}
		if *got != want {
			t.Errorf("ResolveDevice() = %+v, want %+v", *got, want)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Mock expectations were not met: %v", err)
		}
	})

	t.Run("unregistered device", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM devices d`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"notify_token", "name", "user_id"}))

		_, err := db.ResolveDevice(ctx, "ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ResolveDevice() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM devices d`).
			WithArgs("D1").
			WillReturnError(sql.ErrConnDone)

		_, err := db.ResolveDevice(ctx, "D1")
		if err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("ResolveDevice() error = %v, want store error", err)
		}
		if !errors.Is(err, sql.ErrConnDone) {
			t.Errorf("ResolveDevice() error should wrap the driver error, got %v", err)
		}
	})
}

func TestDB_InsertEvent(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2024, 3, 1, 14, 5, 9, 0, time.FixedZone("ICT", 7*3600))

	t.Run("successful insert assigns id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO history \(event_id, user_id, device_id, created_at, latitude, longitude, level\)`).
			WithArgs(sqlmock.AnyArg(), int64(7), "D1", createdAt, 13.75, 100.5, "high").
			WillReturnResult(sqlmock.NewResult(0, 1))

		event := &Event{UserID: 7, DeviceID: "D1", CreatedAt: createdAt, Latitude: 13.75, Longitude: 100.5, Level: "high"}
		if err := db.InsertEvent(ctx, event); err != nil {
			t.Fatalf("InsertEvent() error = %v", err)
		}
		if event.EventID == uuid.Nil {
			t.Error("InsertEvent() should assign an event id")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Mock expectations were not met: %v", err)
		}
	})

	t.Run("keeps caller supplied id", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.MustParse("0b7a3c0e-7f7e-4a65-9d3e-2d1f9a0c1e11")
		mock.ExpectExec(`INSERT INTO history`).
			WithArgs(id.String(), int64(7), "D1", createdAt, 13.75, 100.5, "low").
			WillReturnResult(sqlmock.NewResult(0, 1))

		event := &Event{EventID: id, UserID: 7, DeviceID: "D1", CreatedAt: createdAt, Latitude: 13.75, Longitude: 100.5, Level: "low"}
		if err := db.InsertEvent(ctx, event); err != nil {
			t.Fatalf("InsertEvent() error = %v", err)
		}
		if event.EventID != id {
			t.Errorf("EventID = %s, want %s", event.EventID, id)
		}
	})

	t.Run("insert failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO history`).
			WillReturnError(errors.New("disk full"))

		err := db.InsertEvent(ctx, &Event{UserID: 7, DeviceID: "D1", CreatedAt: createdAt, Level: "high"})
		if err == nil {
			t.Fatal("InsertEvent() error = nil, want error")
		}
	})
}

func TestDB_LatestEventForGroup(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2024, 3, 1, 7, 5, 9, 0, time.UTC)
	columns := []string{"created_at", "latitude", "longitude", "level", "name"}

	t.Run("latest event", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM chat_groups g\s+JOIN users u ON u.group_id = g.id\s+JOIN history h ON h.user_id = u.id\s+WHERE g.chat_group_id = \$1\s+ORDER BY h.created_at DESC, h.event_id DESC\s+LIMIT 1`).
			WithArgs("G123").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(createdAt, 13.75, 100.5, "high", "Somchai"))

		got, err := db.LatestEventForGroup(ctx, "G123")
		if err != nil {
			t.Fatalf("LatestEventForGroup() error = %v", err)
		}
		want := HistoryRecord{UserName: "Somchai", CreatedAt: createdAt, Latitude: 13.75, Longitude: 100.5, Level: "high"}
		if *got != want {
			t.Errorf("LatestEventForGroup() = %+v, want %+v", *got, want)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Mock expectations were not met: %v", err)
		}
	})

	t.Run("group without events", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM chat_groups g`).
			WithArgs("G-empty").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := db.LatestEventForGroup(ctx, "G-empty")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("LatestEventForGroup() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM chat_groups g`).
			WithArgs("G123").
			WillReturnError(sql.ErrConnDone)

		_, err := db.LatestEventForGroup(ctx, "G123")
		if err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("LatestEventForGroup() error = %v, want store error", err)
		}
	})
}

func TestDB_Migrate(t *testing.T) {
	ctx := context.Background()

	t.Run("applies every statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		for range schema {
			mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Mock expectations were not met: %v", err)
		}
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS chat_groups`).WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		if err := db.Migrate(ctx); err == nil {
			t.Fatal("Migrate() error = nil, want error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Mock expectations were not met: %v", err)
		}
	})
}

func TestDB_Ping(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer conn.Close()

	db := newWithConn(conn, time.Second)
	mock.ExpectPing()
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
