package medium

import (
	"sync"

	"github.com/lorasim/simulator/internal/radio"
)

// registry is the medium's set of registered receivers. It is read once per
// sweep (to fan out receptions) and written rarely (device/bridge startup),
// so a plain mutex is adequate.
type registry struct {
	mu        sync.Mutex
	receivers []radio.Entity
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) add(e radio.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers = append(r.receivers, e)
}

// snapshot returns the current receiver list. Callers must not mutate the
// returned slice.
func (r *registry) snapshot() []radio.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]radio.Entity, len(r.receivers))
	copy(out, r.receivers)
	return out
}
