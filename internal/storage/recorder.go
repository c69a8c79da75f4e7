package storage

import (
	"encoding/json"
	"time"
)

// deviceRecorder is the subset of device.Recorder this decorator wraps.
// Declared locally instead of imported to avoid storage depending on
// device, which already depends on storage's sibling packages.
type deviceRecorder interface {
	RecordRTT(devEUI string, elapsedMs int64)
	RecordResponseTime(elapsedMs int64)
	RecordSession(sessionJSON []byte)
	RecordConfirmedUplink(devEUI string, fcntUp uint32, acked bool)
	Logf(format string, args ...any)
}

// sessionLine mirrors the JSON shape simidentity.Identity.SessionJSON
// writes: {"devEui":..., "devAddr":..., "joined":...}.
type sessionLine struct {
	DevEUI  string `json:"devEui"`
	DevAddr string `json:"devAddr"`
	Joined  bool   `json:"joined"`
}

// Recorder decorates a device.Recorder, persisting the device registry and
// pending-command ledger alongside whatever telemetry sinks it wraps.
type Recorder struct {
	inner deviceRecorder
	store *Store
}

// NewRecorder wraps inner so every call also updates store. inner's own
// behavior is preserved; storage persistence is purely additive.
func NewRecorder(inner deviceRecorder, store *Store) *Recorder {
	return &Recorder{inner: inner, store: store}
}

// RecordRTT persists that devEUI was seen just now, then delegates to inner.
func (r *Recorder) RecordRTT(devEUI string, elapsedMs int64) {
	if err := r.store.UpsertDevice(devEUI, time.Now(), 0); err != nil {
		r.inner.Logf("storage: upsert device %s failed: %v", devEUI, err)
	}
	r.inner.RecordRTT(devEUI, elapsedMs)
}

// RecordResponseTime delegates to inner; it carries no dev-EUI to persist.
func (r *Recorder) RecordResponseTime(elapsedMs int64) {
	r.inner.RecordResponseTime(elapsedMs)
}

// RecordSession parses sessionJSON and, when it reports a successful join,
// marks the device registered with its dev-addr before delegating to inner.
func (r *Recorder) RecordSession(sessionJSON []byte) {
	var s sessionLine
	if err := json.Unmarshal(sessionJSON, &s); err == nil && s.Joined {
		if err := r.store.MarkRegistered(s.DevEUI, s.DevAddr); err != nil {
			r.inner.Logf("storage: mark registered %s failed: %v", s.DevEUI, err)
		}
	}
	r.inner.RecordSession(sessionJSON)
}

// RecordConfirmedUplink enqueues a pending command for the uplink's frame
// counter and immediately acknowledges it if acked is true, before
// delegating to inner.
func (r *Recorder) RecordConfirmedUplink(devEUI string, fcntUp uint32, acked bool) {
	id, err := r.store.EnqueuePendingCommand(devEUI, fcntUp)
	if err != nil {
		r.inner.Logf("storage: enqueue pending command for %s failed: %v", devEUI, err)
	} else if acked {
		if err := r.store.AckPendingCommand(id); err != nil {
			r.inner.Logf("storage: ack pending command %d failed: %v", id, err)
		}
	}
	r.inner.RecordConfirmedUplink(devEUI, fcntUp, acked)
}

// Logf delegates to inner; log lines are not persisted.
func (r *Recorder) Logf(format string, args ...any) {
	r.inner.Logf(format, args...)
}
