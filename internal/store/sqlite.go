package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tinoq/sense-backend/internal/telemetry"
)

// SQLiteStore is the durable Store backend. The readings table is
// append-only: rows are inserted on ingestion and never updated or deleted.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			temperature REAL NOT NULL,
			humidity REAL NOT NULL,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_readings_timestamp
			ON readings(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Append persists one reading.
func (s *SQLiteStore) Append(ctx context.Context, r telemetry.Reading) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (device_id, temperature, humidity, timestamp) VALUES (?, ?, ?, ?)`,
		r.DeviceID, r.Temperature, r.Humidity, r.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Latest returns the most recently appended reading, or ErrNoReadings.
func (s *SQLiteStore) Latest(ctx context.Context) (telemetry.Reading, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT device_id, temperature, humidity, timestamp FROM readings
		 ORDER BY timestamp DESC, id DESC LIMIT 1`,
	)

	var r telemetry.Reading
	err := row.Scan(&r.DeviceID, &r.Temperature, &r.Humidity, &r.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return telemetry.Reading{}, ErrNoReadings
	}
	if err != nil {
		return telemetry.Reading{}, fmt.Errorf("scan: %w", err)
	}
	r.Timestamp = r.Timestamp.UTC()
	return r, nil
}

// Range returns readings with from <= timestamp <= to, ascending. An empty
// window yields an empty result, not an error.
func (s *SQLiteStore) Range(ctx context.Context, from, to time.Time) ([]telemetry.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, temperature, humidity, timestamp FROM readings
		 WHERE timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp ASC, id ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var readings []telemetry.Reading
	for rows.Next() {
		var r telemetry.Reading
		if err := rows.Scan(&r.DeviceID, &r.Temperature, &r.Humidity, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return readings, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
