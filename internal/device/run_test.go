package device

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
	"github.com/lorasim/simulator/internal/radio/timing"
	"github.com/lorasim/simulator/internal/traffic"
)

// fakeIdentity is a minimal Identity stand-in that returns fixed,
// unencrypted payloads, so tests can assert on device lifecycle behavior
// without depending on
// internal/device/simidentity's crypto.
type fakeIdentity struct {
	devEUI string
}

func (f *fakeIdentity) DevEUI() string { return f.devEUI }
func (f *fakeIdentity) Join(ctx context.Context) ([]byte, error) {
	return []byte("join:" + f.devEUI), nil
}
func (f *fakeIdentity) EncodeUplink(fcntUp uint32, payload []byte) ([]byte, error) {
	return []byte("uplink"), nil
}
func (f *fakeIdentity) SessionJSON() ([]byte, error) {
	return []byte(`{"devEui":"` + f.devEUI + `"}`), nil
}

// fakeRecorder records calls without touching disk.
type fakeRecorder struct {
	mu        sync.Mutex
	rtts      []int64
	responses []int64
	sessions  [][]byte
	acks      []bool
	logs      []string
}

func (r *fakeRecorder) RecordRTT(devEUI string, elapsedMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rtts = append(r.rtts, elapsedMs)
}
func (r *fakeRecorder) RecordResponseTime(elapsedMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, elapsedMs)
}
func (r *fakeRecorder) RecordSession(sessionJSON []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionJSON)
}
func (r *fakeRecorder) RecordConfirmedUplink(devEUI string, fcntUp uint32, acked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acks = append(r.acks, acked)
}
func (r *fakeRecorder) Logf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, format)
}

// fakePublisher accepts every published transmission and optionally echoes
// a downlink back to a registered device after a short delay, simulating a
// join-accept or confirmed-uplink ack.
type fakePublisher struct {
	echoTo *Device
	echo   bool
}

func (p *fakePublisher) Publish(ctx context.Context, t radio.Transmission) error {
	if p.echo && p.echoTo != nil {
		go func() {
			p.echoTo.Deliver(radio.ReceivedTransmission{
				Transmission: radio.NewTransmission(geometry.Position{X: 1}, 0, 868_100_000, timing.BW125, timing.SF7, timing.CR4_5, 14, false, []byte("ack")),
				Arrival:      radio.ArrivalStats{TimeMs: 0, RSSIDBm: -80, SNRDB: 5},
			})
		}()
	}
	return nil
}

func newTestDevice(pub Publisher, rec Recorder) *Device {
	params := radio.Parameters{
		FrequencyHz:     868_100_000,
		Bandwidth:       timing.BW125,
		SpreadingFactor: timing.SF7,
		CodeRate:        timing.CR4_5,
	}
	cfg := radio.NewNodeConfig(geometry.Position{}, params, 14, -124)
	return New(&fakeIdentity{devEUI: "0011223344556677"}, cfg, pub, rec, 8)
}

func TestRunSucceedsOnFirstJoinAndCompletesUplinks(t *testing.T) {
	rec := &fakeRecorder{}
	pub := &fakePublisher{echo: true}
	d := newTestDevice(pub, rec)
	pub.echoTo = d

	cfg := RunConfig{
		JoinDelayModel:   traffic.NewPeriodicModel(0),
		JoinAttempts:     3,
		JoinTimeout:      200 * time.Millisecond,
		NumPackets:       2,
		PacketDelayModel: traffic.NewPeriodicModel(0),
		UplinkTimeout:    200 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Run(ctx, cfg, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.rtts) != 1 {
		t.Errorf("expected exactly one join RTT recorded, got %d", len(rec.rtts))
	}
	if len(rec.sessions) != 1 {
		t.Errorf("expected one session recorded on successful join, got %d", len(rec.sessions))
	}
	if len(rec.responses) != cfg.NumPackets {
		t.Errorf("expected %d uplink response times recorded, got %d", cfg.NumPackets, len(rec.responses))
	}
}

func TestRunEndsEarlyWhenJoinNeverAcked(t *testing.T) {
	rec := &fakeRecorder{}
	pub := &fakePublisher{echo: false}
	d := newTestDevice(pub, rec)

	cfg := RunConfig{
		JoinDelayModel:   traffic.NewPeriodicModel(0),
		JoinAttempts:     2,
		JoinTimeout:      20 * time.Millisecond,
		NumPackets:       5,
		PacketDelayModel: traffic.NewPeriodicModel(0),
		UplinkTimeout:    20 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Run(ctx, cfg, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.rtts) != cfg.JoinAttempts {
		t.Errorf("expected %d join attempts recorded, got %d", cfg.JoinAttempts, len(rec.rtts))
	}
	if len(rec.responses) != 0 {
		t.Errorf("expected no uplink responses when join never succeeds, got %d", len(rec.responses))
	}
}
