package storage

import "testing"

// fakeInnerRecorder is a minimal deviceRecorder stand-in, recording nothing
// but satisfying the interface so Recorder's delegation can be exercised.
type fakeInnerRecorder struct {
	logs []string
}

func (f *fakeInnerRecorder) RecordRTT(devEUI string, elapsedMs int64)         {}
func (f *fakeInnerRecorder) RecordResponseTime(elapsedMs int64)              {}
func (f *fakeInnerRecorder) RecordSession(sessionJSON []byte)                {}
func (f *fakeInnerRecorder) RecordConfirmedUplink(devEUI string, fcntUp uint32, acked bool) {}
func (f *fakeInnerRecorder) Logf(format string, args ...any) {
	f.logs = append(f.logs, format)
}

func TestRecorderRecordSessionMarksRegisteredOnJoin(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	r := NewRecorder(&fakeInnerRecorder{}, s)
	r.RecordSession([]byte(`{"devEui":"0011223344556677","devAddr":"01020304","joined":false}`))

	var registered int
	row := s.conn.QueryRow(`SELECT COUNT(*) FROM devices WHERE dev_eui = ? AND registered = 1`, "0011223344556677")
	if err := row.Scan(&registered); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if registered != 0 {
		t.Fatalf("expected no registered row before joined=true, got %d", registered)
	}

	r.RecordSession([]byte(`{"devEui":"0011223344556677","devAddr":"01020304","joined":true}`))
	row = s.conn.QueryRow(`SELECT COUNT(*) FROM devices WHERE dev_eui = ? AND registered = 1 AND dev_addr = ?`, "0011223344556677", "01020304")
	if err := row.Scan(&registered); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if registered != 1 {
		t.Fatalf("expected device marked registered after joined=true, got %d", registered)
	}
}

func TestRecorderRecordConfirmedUplinkEnqueuesAndAcks(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	r := NewRecorder(&fakeInnerRecorder{}, s)
	r.RecordConfirmedUplink("0011223344556677", 3, true)

	var ackedAt *string
	row := s.conn.QueryRow(`SELECT acked_at FROM pending_commands WHERE dev_eui = ? AND fcnt_down = ?`, "0011223344556677", 3)
	if err := row.Scan(&ackedAt); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ackedAt == nil {
		t.Errorf("expected acked_at set for an acked confirmed uplink")
	}
}

func TestRecorderRecordConfirmedUplinkLeavesUnackedPending(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	r := NewRecorder(&fakeInnerRecorder{}, s)
	r.RecordConfirmedUplink("0011223344556677", 4, false)

	var ackedAt *string
	row := s.conn.QueryRow(`SELECT acked_at FROM pending_commands WHERE dev_eui = ? AND fcnt_down = ?`, "0011223344556677", 4)
	if err := row.Scan(&ackedAt); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ackedAt != nil {
		t.Errorf("expected acked_at to remain unset when uplink was not acked")
	}
}
