package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"option_monitor/internal/models"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS alerts (
	id             TEXT PRIMARY KEY,
	type           TEXT NOT NULL,
	title          TEXT NOT NULL,
	message        TEXT NOT NULL,
	timestamp      TEXT NOT NULL,
	value          REAL NOT NULL,
	threshold      REAL NOT NULL,
	threshold_type TEXT NOT NULL,
	remarks        TEXT,
	data           TEXT
)`

// SQLLog appends alerts to the alerts table.
type SQLLog struct {
	db *sql.DB
}

// NewSQLLog wraps an open database. Call EnsureSchema before use on a new
// database.
func NewSQLLog(db *sql.DB) *SQLLog {
	return &SQLLog{db: db}
}

// OpenSQLite opens (or creates) a SQLite file and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLLog, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	l := NewSQLLog(db)
	if err := l.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return l, db, nil
}

// EnsureSchema creates the alerts table if it does not exist.
func (l *SQLLog) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create alerts table: %w", err)
	}
	return nil
}

func (l *SQLLog) Record(ctx context.Context, rec models.AlertRecord) error {
	remarks, err := json.Marshal(rec.Remarks)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO alerts (id, type, title, message, timestamp, value, threshold, threshold_type, remarks, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Type, rec.Title, rec.Message, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Value, rec.Threshold, rec.ThresholdType, string(remarks), string(data),
	)
	if err != nil {
		return fmt.Errorf("insert alert %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit alerts, newest first.
func (l *SQLLog) Recent(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, type, title, message, timestamp, value, threshold, threshold_type, remarks
		 FROM alerts ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []models.AlertRecord
	for rows.Next() {
		var rec models.AlertRecord
		var ts string
		var remarks sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Message, &ts, &rec.Value, &rec.Threshold, &rec.ThresholdType, &remarks); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("alert %s timestamp: %w", rec.ID, err)
		}
		if remarks.Valid && remarks.String != "" && remarks.String != "null" {
			if err := json.Unmarshal([]byte(remarks.String), &rec.Remarks); err != nil {
				return nil, fmt.Errorf("alert %s remarks: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
