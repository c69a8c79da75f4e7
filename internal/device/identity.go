package device

import "context"

// Identity is the external device-library collaborator the core treats as
// opaque: join/MIC/encryption framing lives entirely on the other side of
// this interface. The core only needs a stable identifier and a way to turn
// application bytes into an on-air payload.
type Identity interface {
	// DevEUI returns the device's hex-encoded, lowercase EUI used in
	// telemetry and session logs.
	DevEUI() string

	// Join asks the identity to perform (or simulate) an over-the-air join
	// and returns the join-request payload to transmit. The accept/reject
	// outcome of a join is observed by the device as an ordinary received
	// downlink, not through this return value.
	Join(ctx context.Context) ([]byte, error)

	// EncodeUplink turns an application payload into the on-air bytes for
	// one uplink frame at the given frame counter.
	EncodeUplink(fcntUp uint32, payload []byte) ([]byte, error)

	// SessionJSON returns the device's current session state serialized as
	// JSON, written to node_sessions.txt on successful join.
	SessionJSON() ([]byte, error)
}

// Recorder is the telemetry sink a device writes round-trip timings and
// session/log lines to. internal/telemetry provides the concrete
// implementation; device depends only on this interface so it can be
// exercised with a fake in tests.
type Recorder interface {
	RecordRTT(devEUI string, elapsedMs int64)
	RecordResponseTime(elapsedMs int64)
	RecordSession(sessionJSON []byte)
	// RecordConfirmedUplink reports the outcome of one confirmed uplink:
	// whether the device received its ack within the uplink timeout.
	RecordConfirmedUplink(devEUI string, fcntUp uint32, acked bool)
	Logf(format string, args ...any)
}
