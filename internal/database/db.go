package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jgoulah/dormwatch/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Writes come from a single cycle at a time; one connection avoids SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		room_name TEXT NOT NULL,
		value REAL,
		threshold REAL NOT NULL,
		outcome TEXT NOT NULL,
		cycle_id TEXT NOT NULL,
		checked_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_room ON readings(room_id);
	CREATE INDEX IF NOT EXISTS idx_readings_checked_at ON readings(checked_at);
	CREATE INDEX IF NOT EXISTS idx_readings_outcome ON readings(outcome);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// RecordReading stores one evaluation result
func (db *DB) RecordReading(ctx context.Context, rec models.ReadingRecord) error {
	query := `
	INSERT INTO readings (room_id, room_name, value, threshold, outcome, cycle_id, checked_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var value sql.NullFloat64
	if rec.Value != nil {
		value = sql.NullFloat64{Float64: *rec.Value, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, query, rec.RoomID, rec.RoomName, value, rec.Threshold,
		rec.Outcome, rec.CycleID, rec.CheckedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	return nil
}

// ListReadings returns readings newest first. An empty roomID lists all rooms;
// limit <= 0 means no limit.
func (db *DB) ListReadings(ctx context.Context, roomID string, limit int) ([]models.ReadingRecord, error) {
	query := `
	SELECT id, room_id, room_name, value, threshold, outcome, cycle_id, checked_at
	FROM readings
	WHERE (? = '' OR room_id = ?)
	ORDER BY checked_at DESC, id DESC
	`
	args := []any{roomID, roomID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var results []models.ReadingRecord
	for rows.Next() {
		var rec models.ReadingRecord
		var value sql.NullFloat64
		var checkedAt string

		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.RoomName, &value, &rec.Threshold,
			&rec.Outcome, &rec.CycleID, &checkedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if value.Valid {
			v := value.Float64
			rec.Value = &v
		}

		rec.CheckedAt, err = time.ParseInLocation(timeLayout, checkedAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing checked_at: %w", err)
		}

		results = append(results, rec)
	}

	return results, rows.Err()
}

// LastOutcome returns when the room last had the given outcome, or the zero
// time if it never did
func (db *DB) LastOutcome(ctx context.Context, roomID, outcome string) (time.Time, error) {
	query := `SELECT MAX(checked_at) FROM readings WHERE room_id = ? AND outcome = ?`

	var checkedAt sql.NullString
	if err := db.conn.QueryRowContext(ctx, query, roomID, outcome).Scan(&checkedAt); err != nil {
		return time.Time{}, fmt.Errorf("querying last outcome: %w", err)
	}
	if !checkedAt.Valid {
		return time.Time{}, nil
	}

	t, err := time.ParseInLocation(timeLayout, checkedAt.String, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing checked_at: %w", err)
	}
	return t, nil
}
