package orchestrator

import (
	"context"
	"log"
	"math/rand"

	"github.com/lorasim/simulator/internal/device"
)

// DeviceTask adapts a *device.Device life-cycle run to the Task interface.
type DeviceTask struct {
	Device *device.Device
	Config device.RunConfig
	Rng    *rand.Rand
	Logger *log.Logger
}

// Run implements Task.
func (d DeviceTask) Run(ctx context.Context) {
	if err := d.Device.Run(ctx, d.Config, d.Rng); err != nil && ctx.Err() == nil {
		d.Logger.Printf("device %s: run ended with error: %v", d.Device.DevEUI(), err)
	}
}

// BridgeRunner is satisfied by both gateway bridge variants' Run methods.
type BridgeRunner interface {
	Run(ctx context.Context)
}

// BridgeTask adapts a gateway bridge's Run loop to the Task interface. It
// exists only so bridges can be Spawned without the orchestrator importing
// the gateway packages directly (avoiding an import cycle risk as more
// bridge variants are added).
type BridgeTask struct {
	Bridge BridgeRunner
}

// Run implements Task.
func (b BridgeTask) Run(ctx context.Context) {
	b.Bridge.Run(ctx)
}
