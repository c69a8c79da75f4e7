package storage

import (
	"os"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "lorasim-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp db: %v", err)
	}
	tmpFile.Close()

	s, err := Open(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.Remove(tmpFile.Name())
	}
	return s, cleanup
}

func TestUpsertDeviceThenMarkRegistered(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if err := s.UpsertDevice("0011223344556677", time.Now(), -90.5); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	if err := s.MarkRegistered("0011223344556677", "01020304"); err != nil {
		t.Fatalf("MarkRegistered: %v", err)
	}

	var registered int
	var devAddr string
	row := s.conn.QueryRow(`SELECT registered, dev_addr FROM devices WHERE dev_eui = ?`, "0011223344556677")
	if err := row.Scan(&registered, &devAddr); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if registered != 1 {
		t.Errorf("registered = %d, want 1", registered)
	}
	if devAddr != "01020304" {
		t.Errorf("devAddr = %q, want 01020304", devAddr)
	}
}

func TestUpsertDeviceIsIdempotentOnConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if err := s.UpsertDevice("aabbccddeeff0011", time.Now(), -100); err != nil {
		t.Fatalf("first UpsertDevice: %v", err)
	}
	if err := s.UpsertDevice("aabbccddeeff0011", time.Now(), -80); err != nil {
		t.Fatalf("second UpsertDevice: %v", err)
	}

	var count int
	row := s.conn.QueryRow(`SELECT COUNT(*) FROM devices WHERE dev_eui = ?`, "aabbccddeeff0011")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one row after conflicting upsert, got %d", count)
	}
}

func TestPendingCommandEnqueueAndAck(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	id, err := s.EnqueuePendingCommand("0011223344556677", 5)
	if err != nil {
		t.Fatalf("EnqueuePendingCommand: %v", err)
	}
	if err := s.AckPendingCommand(id); err != nil {
		t.Fatalf("AckPendingCommand: %v", err)
	}

	var ackedAt *time.Time
	row := s.conn.QueryRow(`SELECT acked_at FROM pending_commands WHERE id = ?`, id)
	if err := row.Scan(&ackedAt); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ackedAt == nil {
		t.Errorf("expected acked_at to be set after AckPendingCommand")
	}
}

func TestRecordRunSummary(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if err := s.RecordRunSummary(3, 100, 2); err != nil {
		t.Fatalf("RecordRunSummary: %v", err)
	}

	var collisions, deliveries, drops int64
	row := s.conn.QueryRow(`SELECT collisions, deliveries, drops FROM run_summaries LIMIT 1`)
	if err := row.Scan(&collisions, &deliveries, &drops); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if collisions != 3 || deliveries != 100 || drops != 2 {
		t.Errorf("got (%d,%d,%d), want (3,100,2)", collisions, deliveries, drops)
	}
}
