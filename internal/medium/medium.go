// Package medium implements the shared radio-medium engine: the
// single-writer, many-reader core that ingests concurrent transmissions,
// classifies them into ended/in-flight sets on a fixed cadence, runs the
// four-dimensional collision model with a capture-effect tiebreak, and fans
// surviving receptions out to every eligible receiver.
package medium

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
)

// Config controls the medium's sweep cadence and path-loss model.
type Config struct {
	SweepInterval  time.Duration
	PathLossModel  geometry.PathLossModel
	IngressBacklog int
}

// DefaultConfig returns the medium's default configuration: a 20ms sweep
// cadence over the free-space path-loss model.
func DefaultConfig() Config {
	return Config{
		SweepInterval:  20 * time.Millisecond,
		PathLossModel:  geometry.FreeSpace,
		IngressBacklog: 4096,
	}
}

// Medium is the shared radio medium. It must be constructed with New and
// driven by calling Run in a goroutine.
type Medium struct {
	cfg     Config
	logger  *log.Logger
	reg     *registry
	ingress chan radio.Transmission

	mu       sync.Mutex
	inFlight []radio.Transmission

	rng *rand.Rand

	collisions atomic.Int64
	deliveries atomic.Int64
	drops      atomic.Int64
}

// New constructs a Medium. logger must not be nil.
func New(cfg Config, logger *log.Logger) *Medium {
	return &Medium{
		cfg:     cfg,
		logger:  logger,
		reg:     newRegistry(),
		ingress: make(chan radio.Transmission, cfg.IngressBacklog),
		rng:     rand.New(rand.NewSource(1)),
	}
}

// Register adds a receiver to the medium's fan-out set.
func (m *Medium) Register(e radio.Entity) {
	m.reg.add(e)
}

// Publish submits a transmission to the medium. It blocks if the ingress
// backlog is saturated, unlike receiver delivery queues which drop; the
// medium itself never discards a publisher's own transmission.
func (m *Medium) Publish(ctx context.Context, t radio.Transmission) error {
	select {
	case m.ingress <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a point-in-time snapshot of the medium's run counters.
type Stats struct {
	Collisions int64
	Deliveries int64
	Drops      int64
	InFlight   int
}

// Stats returns the medium's current counters.
func (m *Medium) Stats() Stats {
	m.mu.Lock()
	inFlight := len(m.inFlight)
	m.mu.Unlock()
	return Stats{
		Collisions: m.collisions.Load(),
		Deliveries: m.deliveries.Load(),
		Drops:      m.drops.Load(),
		InFlight:   inFlight,
	}
}

// Run drives the medium's ingress drain and sweep loops until ctx is
// cancelled. It returns once both loops have exited.
func (m *Medium) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.drainLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		m.sweepLoop(ctx)
	}()
	wg.Wait()
}

func (m *Medium) drainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-m.ingress:
			m.mu.Lock()
			m.inFlight = append(m.inFlight, t)
			m.mu.Unlock()
		}
	}
}

func (m *Medium) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.sweep(now.UnixMilli())
		}
	}
}

// sweep partitions the in-flight set, classifies ended transmissions for
// collision, and fans out clean and surviving receptions. It never returns
// an error: per-receiver delivery failures are logged and skipped so that
// one bad receiver cannot abort the sweep.
func (m *Medium) sweep(nowMs int64) {
	ended := m.partitionEnded(nowMs)
	if len(ended) == 0 {
		return
	}

	collided, pairs := classify(ended)
	if len(pairs) > 0 {
		m.collisions.Add(int64(len(pairs)))
	}

	receivers := m.reg.snapshot()

	for i, t := range ended {
		if collided[i] {
			continue
		}
		m.deliverClean(t, receivers, nowMs)
	}

	m.resolveCaptures(ended, pairs, receivers, nowMs)
}

// partitionEnded removes ended transmissions from the in-flight set under
// lock and returns them.
func (m *Medium) partitionEnded(nowMs int64) []radio.Transmission {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ended, stillInFlight []radio.Transmission
	for _, t := range m.inFlight {
		if t.Ended(nowMs) {
			ended = append(ended, t)
		} else {
			stillInFlight = append(stillInFlight, t)
		}
	}
	m.inFlight = stillInFlight
	return ended
}

// classify runs the pairwise collision test over the ended set, returning
// which indices collided and the list of colliding pairs.
func classify(ended []radio.Transmission) (collided map[int]bool, pairs [][2]int) {
	collided = make(map[int]bool)
	for i := 0; i < len(ended); i++ {
		for j := i + 1; j < len(ended); j++ {
			if fullCollision(ended[i], ended[j]) {
				collided[i] = true
				collided[j] = true
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return collided, pairs
}

func (m *Medium) deliverClean(t radio.Transmission, receivers []radio.Entity, nowMs int64) {
	for _, e := range receivers {
		if e.Position() == t.StartPosition() {
			continue
		}
		rssi := m.rssiAt(t, e.Position())
		rt := radio.ReceivedTransmission{
			Transmission: t,
			Arrival:      radio.ArrivalStats{TimeMs: nowMs, RSSIDBm: float32(rssi), SNRDB: 0},
		}
		m.deliver(e, rt)
	}
}

// resolveCaptures applies the capture-effect tiebreak to every colliding
// pair and receiver, deduplicating a survivor that wins against more than
// one opponent before flushing to the receiver's queue.
func (m *Medium) resolveCaptures(ended []radio.Transmission, pairs [][2]int, receivers []radio.Entity, nowMs int64) {
	if len(pairs) == 0 {
		return
	}
	survivors := make(map[radio.Entity]map[radio.ReceivedKey]radio.ReceivedTransmission)

	for _, pair := range pairs {
		t1, t2 := ended[pair[0]], ended[pair[1]]
		for _, e := range receivers {
			rssi1 := m.rssiAt(t1, e.Position())
			rssi2 := m.rssiAt(t2, e.Position())
			survivorIdx := captureSurvivor(rssi1, rssi2)
			if survivorIdx == -1 {
				continue
			}
			var survivorT radio.Transmission
			var survivorRSSI float64
			if survivorIdx == 0 {
				survivorT, survivorRSSI = t1, rssi1
			} else {
				survivorT, survivorRSSI = t2, rssi2
			}
			if e.Position() == survivorT.StartPosition() {
				continue
			}
			rt := radio.ReceivedTransmission{
				Transmission: survivorT,
				Arrival:      radio.ArrivalStats{TimeMs: nowMs, RSSIDBm: float32(survivorRSSI), SNRDB: 0},
			}
			if survivors[e] == nil {
				survivors[e] = make(map[radio.ReceivedKey]radio.ReceivedTransmission)
			}
			survivors[e][rt.Key()] = rt
		}
	}

	for e, set := range survivors {
		for _, rt := range set {
			m.deliver(e, rt)
		}
	}
}

func (m *Medium) deliver(e radio.Entity, rt radio.ReceivedTransmission) {
	if !e.CanReceive(rt) {
		return
	}
	if err := e.Deliver(rt); err != nil {
		m.drops.Add(1)
		m.logger.Printf("medium: delivery dropped: %v", err)
		return
	}
	m.deliveries.Add(1)
}

func (m *Medium) rssiAt(t radio.Transmission, receiver geometry.Position) float64 {
	distance := t.StartPosition().Distance(receiver)
	pathLoss := geometry.PathLoss(m.cfg.PathLossModel, distance, float64(t.FrequencyHz()), m.rng)
	return geometry.RSSI(t.StartingPowerDBm(), pathLoss)
}
