package radio

import "github.com/lorasim/simulator/internal/radio/geometry"

// Entity is the capability set shared by everything that can receive a
// transmission off the medium: end-devices and gateway bridges alike. The
// registry holds Entity values directly rather than a tagged class
// hierarchy.
type Entity interface {
	Position() geometry.Position
	CanReceive(ReceivedTransmission) bool
	Deliver(ReceivedTransmission) error
}
