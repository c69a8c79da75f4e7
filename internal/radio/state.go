package radio

import (
	"sync"

	"github.com/lorasim/simulator/internal/radio/geometry"
)

// State is the operating state of a node's radio.
type State int32

const (
	Idle State = iota
	Sleep
	Transmitting
	Receiving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sleep:
		return "sleep"
	case Transmitting:
		return "transmitting"
	case Receiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// NodeState guards a node's State behind a mutex. The State value itself is
// never a public field: NodeConfig holds a *NodeState, and callers observe
// the state only through Snapshot and change it only through Set. No
// Entity.CanReceive implementation consults it; the medium never reads a
// node's state.
type NodeState struct {
	mu    sync.Mutex
	state State
}

// NewNodeState returns a NodeState initialized to Idle.
func NewNodeState() *NodeState {
	return &NodeState{state: Idle}
}

// Snapshot returns the current state under lock.
func (n *NodeState) Snapshot() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Set transitions to the given state unconditionally.
func (n *NodeState) Set(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// NodeConfig is the static and shared-mutable configuration of one radio
// node: its position, radio parameters, transmit power, receiver
// sensitivity threshold, and its live NodeState.
type NodeConfig struct {
	Position               geometry.Position
	Parameters             Parameters
	TransmissionPowerDBm   float64
	ReceiverSensitivityDBm float64
	State                  *NodeState
}

// NewNodeConfig constructs a NodeConfig with a fresh, Idle NodeState.
func NewNodeConfig(pos geometry.Position, params Parameters, txPowerDBm, sensitivityDBm float64) NodeConfig {
	return NodeConfig{
		Position:               pos,
		Parameters:             params,
		TransmissionPowerDBm:   txPowerDBm,
		ReceiverSensitivityDBm: sensitivityDBm,
		State:                  NewNodeState(),
	}
}
