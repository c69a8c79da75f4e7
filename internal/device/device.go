// Package device implements the per-end-device driver: radio state, the
// medium-facing send/receive contract, and the join-then-uplink life-cycle
// routine.
package device

import (
	"context"
	"fmt"
	"time"

	radioerrors "github.com/lorasim/simulator/internal/radio/errors"

	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
)

// Publisher is the medium-facing capability a device needs to emit a
// transmission. *medium.Medium satisfies it.
type Publisher interface {
	Publish(ctx context.Context, t radio.Transmission) error
}

// Device is one simulated LoRaWAN end-device. It implements radio.Entity so
// the medium can register it as a receiver.
type Device struct {
	identity Identity
	config   radio.NodeConfig
	medium   Publisher
	recorder Recorder

	fcntUp uint32
	recvCh chan radio.ReceivedTransmission
}

// New constructs a Device. recvQueueCapacity bounds the device's downlink
// delivery queue; once full, further deliveries are dropped (the medium
// logs the drop, the device never blocks on a slow consumer).
func New(identity Identity, config radio.NodeConfig, medium Publisher, recorder Recorder, recvQueueCapacity int) *Device {
	return &Device{
		identity: identity,
		config:   config,
		medium:   medium,
		recorder: recorder,
		recvCh:   make(chan radio.ReceivedTransmission, recvQueueCapacity),
	}
}

// Position implements radio.Entity.
func (d *Device) Position() geometry.Position { return d.config.Position }

// CanReceive implements radio.Entity: a device hears only downlinks,
// exactly matching its own frequency/bandwidth/spreading factor, above its
// configured sensitivity, and never from itself.
func (d *Device) CanReceive(rt radio.ReceivedTransmission) bool {
	t := rt.Transmission
	if t.Uplink() {
		return false
	}
	if t.StartPosition() == d.config.Position {
		return false
	}
	if t.FrequencyHz() != d.config.Parameters.FrequencyHz {
		return false
	}
	if t.Bandwidth() != d.config.Parameters.Bandwidth {
		return false
	}
	if t.SpreadingFactor() != d.config.Parameters.SpreadingFactor {
		return false
	}
	return float64(rt.Arrival.RSSIDBm) > d.config.ReceiverSensitivityDBm
}

// Deliver implements radio.Entity: a non-blocking enqueue onto the device's
// receive channel. Delivery fails (and the medium logs it) only when the
// queue is saturated; after the run loop has exited, deliveries still fill
// the buffer until it is full.
func (d *Device) Deliver(rt radio.ReceivedTransmission) error {
	select {
	case d.recvCh <- rt:
		return nil
	default:
		return radioerrors.Wrap(radioerrors.Send, fmt.Errorf("device %s: receive queue full", d.identity.DevEUI()))
	}
}

// Send publishes one transmission for payload, an uplink or a downlink as
// the uplink argument says, blocking for the
// frame's time-on-air before returning, exactly as if the radio were busy.
// During that suspension no further Send may be started on this device.
func (d *Device) Send(ctx context.Context, payload []byte, uplink bool) error {
	d.config.State.Set(radio.Transmitting)
	defer d.config.State.Set(radio.Idle)

	t := radio.NewTransmission(
		d.config.Position,
		time.Now().UnixMilli(),
		d.config.Parameters.FrequencyHz,
		d.config.Parameters.Bandwidth,
		d.config.Parameters.SpreadingFactor,
		d.config.Parameters.CodeRate,
		d.config.TransmissionPowerDBm,
		uplink,
		payload,
	)

	if err := d.medium.Publish(ctx, t); err != nil {
		return radioerrors.Wrap(radioerrors.ChannelClosed, err)
	}

	toa := t.TimeOnAir()
	timer := time.NewTimer(toa)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive awaits at most one reception within timeout. At most one
// reception is ever returned per call.
func (d *Device) Receive(ctx context.Context, timeout time.Duration) (radio.ReceivedTransmission, error) {
	d.config.State.Set(radio.Receiving)
	defer d.config.State.Set(radio.Idle)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rt := <-d.recvCh:
		return rt, nil
	case <-timer.C:
		return radio.ReceivedTransmission{}, radioerrors.New(radioerrors.Timeout)
	case <-ctx.Done():
		return radio.ReceivedTransmission{}, ctx.Err()
	}
}

// DevEUI returns the device's identity EUI, for logging and registry keys.
func (d *Device) DevEUI() string { return d.identity.DevEUI() }

// State returns the device's current radio state.
func (d *Device) State() radio.State { return d.config.State.Snapshot() }
