// Package storage persists the simulator's device registry, pending
// downlink-acknowledgment ledger, and per-run summaries in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite connection backing the device registry and
// command ledger.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the SQLite database at path, in WAL mode with a
// busy timeout.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Device registry: every dev-EUI seen on the medium, regardless of
	-- whether it completed a join.
	CREATE TABLE IF NOT EXISTS devices (
		dev_eui TEXT PRIMARY KEY,
		dev_addr TEXT,
		registered INTEGER NOT NULL DEFAULT 0,
		last_seen DATETIME,
		last_rssi_dbm REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Confirmed downlinks awaiting acknowledgment.
	CREATE TABLE IF NOT EXISTS pending_commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dev_eui TEXT NOT NULL,
		fcnt_down INTEGER NOT NULL,
		sent_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		acked_at DATETIME,
		retries INTEGER NOT NULL DEFAULT 0
	);

	-- One row per completed simulation run.
	CREATE TABLE IF NOT EXISTS run_summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		collisions INTEGER NOT NULL,
		deliveries INTEGER NOT NULL,
		drops INTEGER NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// UpsertDevice records that dev-EUI was seen at time t with the given RSSI,
// inserting a new row or updating the existing one.
func (s *Store) UpsertDevice(devEUI string, t time.Time, rssiDBm float64) error {
	_, err := s.conn.Exec(`
		INSERT INTO devices (dev_eui, last_seen, last_rssi_dbm)
		VALUES (?, ?, ?)
		ON CONFLICT(dev_eui) DO UPDATE SET last_seen = excluded.last_seen, last_rssi_dbm = excluded.last_rssi_dbm
	`, devEUI, t, rssiDBm)
	return err
}

// MarkRegistered sets a device's join status and optional dev-addr,
// inserting the device's row if it has not been seen yet.
func (s *Store) MarkRegistered(devEUI, devAddr string) error {
	_, err := s.conn.Exec(`
		INSERT INTO devices (dev_eui, dev_addr, registered)
		VALUES (?, ?, 1)
		ON CONFLICT(dev_eui) DO UPDATE SET registered = 1, dev_addr = excluded.dev_addr
	`, devEUI, devAddr)
	return err
}

// EnqueuePendingCommand records a confirmed downlink awaiting ack.
func (s *Store) EnqueuePendingCommand(devEUI string, fcntDown uint32) (int64, error) {
	res, err := s.conn.Exec(`
		INSERT INTO pending_commands (dev_eui, fcnt_down) VALUES (?, ?)
	`, devEUI, fcntDown)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AckPendingCommand marks a pending command acknowledged.
func (s *Store) AckPendingCommand(id int64) error {
	_, err := s.conn.Exec(`
		UPDATE pending_commands SET acked_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id)
	return err
}

// RecordRunSummary persists the aggregate counters of a completed run.
func (s *Store) RecordRunSummary(collisions, deliveries, drops int64) error {
	_, err := s.conn.Exec(`
		INSERT INTO run_summaries (collisions, deliveries, drops) VALUES (?, ?, ?)
	`, collisions, deliveries, drops)
	return err
}
