// Package db owns the session-scoped SQLite database: persistent action
// swaps and the telemetry event log.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed migration.sql
var migrationSQL string

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if needed) the database at dbPath and applies the
// schema.
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded schema.
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(migrationSQL)
	if err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// GetSwap returns the persistent swap for a card, or "" when none is set.
func (db *DB) GetSwap(cardID string) (string, error) {
	var actionID string
	err := db.conn.QueryRow("SELECT action_id FROM swaps WHERE card_id = ?", cardID).Scan(&actionID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get swap for card %s: %w", cardID, err)
	}
	return actionID, nil
}

// SetSwap records or replaces the persistent swap for a card.
func (db *DB) SetSwap(cardID, actionID string) error {
	_, err := db.conn.Exec(`
		INSERT INTO swaps (card_id, action_id) VALUES (?, ?)
		ON CONFLICT(card_id) DO UPDATE SET action_id = ?, updated_at = strftime('%s', 'now')
	`, cardID, actionID, actionID)
	if err != nil {
		return fmt.Errorf("failed to set swap for card %s: %w", cardID, err)
	}
	return nil
}

// ClearSwap removes a card's persistent swap.
func (db *DB) ClearSwap(cardID string) error {
	_, err := db.conn.Exec("DELETE FROM swaps WHERE card_id = ?", cardID)
	if err != nil {
		return fmt.Errorf("failed to clear swap for card %s: %w", cardID, err)
	}
	return nil
}

// InsertEvent appends one telemetry event to the log.
func (db *DB) InsertEvent(sessionID, cardID, actionID, kind string, explicit bool, outcome, reason string, durationMs int64) error {
	explicitInt := 0
	if explicit {
		explicitInt = 1
	}
	_, err := db.conn.Exec(`
		INSERT INTO events (session_id, card_id, action_id, kind, explicit_choice, outcome, reason, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, cardID, actionID, kind, explicitInt, outcome, reason, durationMs)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
