// Package simidentity is a stand-in for the external device library that
// internal/device.Identity abstracts over. It provisions a device from a
// single opaque JSON line, derives a per-device session key, and frames
// join/uplink payloads with AES-128-GCM encoding keyed on the frame
// counter. It is not a LoRaWAN-conformant MAC implementation; it exists so
// the simulator has a concrete, loadable device identity without depending
// on a real device-provisioning stack.
package simidentity

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Record is the provisioning line shape: one JSON object per line in the
// provisioning file, per spec.md §6. DevEUI and DevAddr are the only
// fields the core reads back; AppKey is parsed but unused, since the
// session key is derived from DevEUI alone.
type Record struct {
	DevEUI  string `json:"devEui"`
	DevAddr string `json:"devAddr"`
	AppKey  string `json:"appKey"`
}

// Identity implements device.Identity over a Record.
type Identity struct {
	devEUI  string
	devAddr string
	key     []byte
	joined  bool
}

// New parses one provisioning line and derives its session key.
func New(line []byte) (*Identity, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("simidentity: parse provisioning line: %w", err)
	}
	if rec.DevEUI == "" {
		return nil, fmt.Errorf("simidentity: provisioning line missing devEui")
	}

	devEUIBytes, err := hex.DecodeString(rec.DevEUI)
	if err != nil {
		return nil, fmt.Errorf("simidentity: invalid devEui hex: %w", err)
	}
	if len(devEUIBytes) != devEUISize {
		return nil, fmt.Errorf("simidentity: devEui must be %d bytes, got %d", devEUISize, len(devEUIBytes))
	}
	var uid [devEUISize]byte
	copy(uid[:], devEUIBytes)

	return &Identity{
		devEUI:  rec.DevEUI,
		devAddr: rec.DevAddr,
		key:     deriveSessionKey(uid),
	}, nil
}

// DevEUI implements device.Identity.
func (id *Identity) DevEUI() string { return id.devEUI }

// Join returns a join-request payload: the dev-addr bytes, GCM-framed
// under frame counter 0. The device core never inspects this payload; it
// only transmits it.
func (id *Identity) Join(ctx context.Context) ([]byte, error) {
	devAddrBytes, err := hex.DecodeString(id.devAddr)
	if err != nil {
		return nil, fmt.Errorf("simidentity: invalid devAddr hex: %w", err)
	}
	framed, err := encryptFrame(id.key, 0, devAddrBytes)
	if err != nil {
		return nil, fmt.Errorf("simidentity: join framing: %w", err)
	}
	id.joined = true
	return framed, nil
}

// EncodeUplink implements device.Identity, GCM-framing payload under the
// session key and frame counter.
func (id *Identity) EncodeUplink(fcntUp uint32, payload []byte) ([]byte, error) {
	framed, err := encryptFrame(id.key, fcntUp, payload)
	if err != nil {
		return nil, fmt.Errorf("simidentity: uplink framing: %w", err)
	}
	return framed, nil
}

// sessionState is the JSON shape written to node_sessions.txt on join.
type sessionState struct {
	DevEUI  string `json:"devEui"`
	DevAddr string `json:"devAddr"`
	Joined  bool   `json:"joined"`
}

// SessionJSON implements device.Identity.
func (id *Identity) SessionJSON() ([]byte, error) {
	return json.Marshal(sessionState{DevEUI: id.devEUI, DevAddr: id.devAddr, Joined: id.joined})
}
