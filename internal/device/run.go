package device

import (
	"context"
	"math/rand"
	"time"

	"github.com/lorasim/simulator/internal/traffic"
)

// RunConfig parameterizes a device's join-then-uplink life-cycle. The
// delay models draw inter-arrival seconds from either a fixed/jittered
// period or a loaded empirical distribution, via the shared traffic.Model
// sampler.
type RunConfig struct {
	JoinDelayModel   traffic.Model
	JoinAttempts     int
	JoinTimeout      time.Duration
	NumPackets       int
	PacketDelayModel traffic.Model
	UplinkTimeout    time.Duration
}

// Run executes the device's full life-cycle: an initial staggered jitter,
// a join loop of up to JoinAttempts tries, and, on success, an uplink
// loop of NumPackets confirmed uplinks. It returns when the context is
// cancelled or the uplink loop completes; a failed join ends the run early
// without error (the device is simply left uninitialized, as spec.md §4.4
// describes).
func (d *Device) Run(ctx context.Context, cfg RunConfig, rng *rand.Rand) error {
	if err := sleepInterval(ctx, cfg.JoinDelayModel, rng); err != nil {
		return err
	}

	joined, err := d.join(ctx, cfg, rng)
	if err != nil {
		return err
	}
	if !joined {
		d.recorder.Logf("device %s: join failed after %d attempts, ending run", d.identity.DevEUI(), cfg.JoinAttempts)
		return nil
	}

	return d.uplinkLoop(ctx, cfg, rng)
}

// join attempts the device's over-the-air join up to cfg.JoinAttempts
// times, recording the round-trip time of each attempt. It returns true as
// soon as one attempt is accepted (a downlink is received within
// JoinTimeout).
func (d *Device) join(ctx context.Context, cfg RunConfig, rng *rand.Rand) (bool, error) {
	attempts := cfg.JoinAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		payload, err := d.identity.Join(ctx)
		if err != nil {
			d.recorder.Logf("device %s: join payload build failed: %v", d.identity.DevEUI(), err)
			continue
		}

		start := time.Now()
		if err := d.Send(ctx, payload, true); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			d.recorder.Logf("device %s: join send failed: %v", d.identity.DevEUI(), err)
			continue
		}

		_, err = d.Receive(ctx, cfg.JoinTimeout)
		elapsed := time.Since(start).Milliseconds()
		d.recorder.RecordRTT(d.identity.DevEUI(), elapsed)

		if err == nil {
			if session, sessErr := d.identity.SessionJSON(); sessErr == nil {
				d.recorder.RecordSession(session)
			}
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
	}
	return false, nil
}

// uplinkLoop emits cfg.NumPackets confirmed uplinks, sleeping an interval
// drawn from cfg.PacketDelayModel before each one, stopping early if ctx is
// cancelled.
func (d *Device) uplinkLoop(ctx context.Context, cfg RunConfig, rng *rand.Rand) error {
	for i := 0; i < cfg.NumPackets; i++ {
		if err := sleepInterval(ctx, cfg.PacketDelayModel, rng); err != nil {
			return err
		}

		d.fcntUp++
		payload, err := d.identity.EncodeUplink(d.fcntUp, []byte{})
		if err != nil {
			d.recorder.Logf("device %s: encode uplink %d failed: %v", d.identity.DevEUI(), d.fcntUp, err)
			continue
		}

		start := time.Now()
		sendErr := d.Send(ctx, payload, true)
		if sendErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.recorder.Logf("device %s: uplink %d failed: %v", d.identity.DevEUI(), d.fcntUp, sendErr)
			continue
		}

		_, recvErr := d.Receive(ctx, cfg.UplinkTimeout)
		elapsed := time.Since(start).Milliseconds()
		d.recorder.RecordResponseTime(elapsed)
		d.recorder.RecordConfirmedUplink(d.identity.DevEUI(), d.fcntUp, recvErr == nil)
		if recvErr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// sleepInterval draws an inter-arrival duration in seconds from model and
// blocks for it, or until ctx is done.
func sleepInterval(ctx context.Context, model traffic.Model, rng *rand.Rand) error {
	delay := time.Duration(model.Sample(rng) * float64(time.Second))
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
