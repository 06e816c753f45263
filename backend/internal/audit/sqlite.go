package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS crisis_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp   TEXT NOT NULL,
	is_crisis   INTEGER NOT NULL,
	severity    TEXT NOT NULL,
	risk_score  REAL NOT NULL,
	confidence  REAL NOT NULL,
	keywords    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crisis_events_timestamp ON crisis_events(timestamp);
`

// SQLiteStore keeps anonymized records in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps in-memory databases shared between calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Write inserts a record
func (s *SQLiteStore) Write(ctx context.Context, rec Record) error {
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crisis_events (timestamp, is_crisis, severity, risk_score, confidence, keywords)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.IsCrisis, string(rec.Severity), rec.RiskScore, rec.Confidence, string(keywords),
	)
	if err != nil {
		return fmt.Errorf("insert crisis event: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, is_crisis, severity, risk_score, confidence, keywords
		 FROM crisis_events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query crisis events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			severity string
			keywords string
		)
		if err := rows.Scan(&rec.Timestamp, &rec.IsCrisis, &severity, &rec.RiskScore, &rec.Confidence, &keywords); err != nil {
			return nil, fmt.Errorf("scan crisis event: %w", err)
		}
		rec.Severity = crisis.Severity(severity)
		if err := json.Unmarshal([]byte(keywords), &rec.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
