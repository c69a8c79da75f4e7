package simidentity

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewParsesProvisioningLine(t *testing.T) {
	line := []byte(`{"devEui":"0011223344556677","devAddr":"01020304","appKey":"ignored"}`)
	id, err := New(line)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if id.DevEUI() != "0011223344556677" {
		t.Errorf("DevEUI() = %q, want 0011223344556677", id.DevEUI())
	}
}

func TestNewRejectsMalformedDevEUI(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"devEui":"","devAddr":"01020304"}`),
		[]byte(`{"devEui":"nothex","devAddr":"01020304"}`),
		[]byte(`{"devEui":"0011","devAddr":"01020304"}`),
	}
	for _, line := range cases {
		if _, err := New(line); err == nil {
			t.Errorf("New(%s) expected error, got nil", line)
		}
	}
}

func TestJoinAndEncodeUplinkRoundTrip(t *testing.T) {
	line := []byte(`{"devEui":"0011223344556677","devAddr":"01020304"}`)
	id, err := New(line)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	joinFrame, err := id.Join(context.Background())
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	var uid [devEUISize]byte
	copy(uid[:], []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77})
	key := deriveSessionKey(uid)

	plain, err := decryptFrame(key, joinFrame)
	if err != nil {
		t.Fatalf("decryptFrame(join): %v", err)
	}
	if string(plain) != string([]byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("decrypted join payload = %v, want devAddr bytes", plain)
	}

	uplinkFrame, err := id.EncodeUplink(7, []byte("hello"))
	if err != nil {
		t.Fatalf("EncodeUplink: %v", err)
	}
	plain2, err := decryptFrame(key, uplinkFrame)
	if err != nil {
		t.Fatalf("decryptFrame(uplink): %v", err)
	}
	if string(plain2) != "hello" {
		t.Errorf("decrypted uplink payload = %q, want %q", plain2, "hello")
	}
}

func TestSessionJSONReflectsJoinState(t *testing.T) {
	line := []byte(`{"devEui":"0011223344556677","devAddr":"01020304"}`)
	id, err := New(line)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before, err := id.SessionJSON()
	if err != nil {
		t.Fatalf("SessionJSON: %v", err)
	}
	var sBefore sessionState
	if err := json.Unmarshal(before, &sBefore); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sBefore.Joined {
		t.Errorf("expected joined=false before Join is called")
	}

	if _, err := id.Join(context.Background()); err != nil {
		t.Fatalf("Join: %v", err)
	}

	after, err := id.SessionJSON()
	if err != nil {
		t.Fatalf("SessionJSON: %v", err)
	}
	var sAfter sessionState
	if err := json.Unmarshal(after, &sAfter); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !sAfter.Joined {
		t.Errorf("expected joined=true after Join is called")
	}
}
