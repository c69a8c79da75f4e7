// Package orchestrator wires the medium, devices, and gateway bridges
// together, drives the global run, and reports progress until shutdown.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lorasim/simulator/internal/adminapi"
	"github.com/lorasim/simulator/internal/medium"
	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/storage"
)

// Task is anything the orchestrator runs for the lifetime of the
// simulation: a device's join-then-uplink life-cycle or a gateway bridge's
// send/receive loop.
type Task interface {
	Run(ctx context.Context)
}

// Config controls the orchestrator's reporting cadence and optional
// wall-clock deadline.
type Config struct {
	ReportInterval time.Duration
	Deadline       time.Duration // 0 means run until cancelled
}

// DefaultConfig reports every 5 seconds and runs until cancelled.
func DefaultConfig() Config {
	return Config{ReportInterval: 5 * time.Second}
}

// Orchestrator owns the medium and every registered task, and reports
// aggregate progress on a timer while running.
type Orchestrator struct {
	cfg    Config
	medium *medium.Medium
	store  *storage.Store
	logger *log.Logger

	tasks []Task
	alive atomic.Int64
	wg    sync.WaitGroup
}

// New constructs an Orchestrator. store may be nil if run-summary
// persistence is not wanted.
func New(cfg Config, m *medium.Medium, store *storage.Store, logger *log.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, medium: m, store: store, logger: logger}
}

// Register registers a receiver with the medium's fan-out set.
func (o *Orchestrator) Register(e radio.Entity) {
	o.medium.Register(e)
}

// Spawn adds a task to run for the lifetime of the simulation.
func (o *Orchestrator) Spawn(t Task) {
	o.tasks = append(o.tasks, t)
}

// Run starts the medium and every spawned task, reports progress on a
// timer, and blocks until ctx is cancelled or the configured deadline
// elapses. On return, every task and the medium have stopped.
func (o *Orchestrator) Run(ctx context.Context) {
	runCtx := ctx
	var cancel context.CancelFunc
	if o.cfg.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.Deadline)
		defer cancel()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.medium.Run(runCtx)
	}()

	for _, t := range o.tasks {
		o.wg.Add(1)
		o.alive.Add(1)
		go func(t Task) {
			defer o.wg.Done()
			defer o.alive.Add(-1)
			t.Run(runCtx)
		}(t)
	}

	o.reportLoop(runCtx)

	o.wg.Wait()
	o.logSummary()
}

func (o *Orchestrator) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := o.medium.Stats()
			o.logger.Printf("orchestrator: collisions=%d deliveries=%d drops=%d in_flight=%d alive_tasks=%d",
				stats.Collisions, stats.Deliveries, stats.Drops, stats.InFlight, o.alive.Load())
		}
	}
}

func (o *Orchestrator) logSummary() {
	stats := o.medium.Stats()
	o.logger.Printf("orchestrator: run complete, collisions=%d deliveries=%d drops=%d",
		stats.Collisions, stats.Deliveries, stats.Drops)
	if o.store != nil {
		if err := o.store.RecordRunSummary(stats.Collisions, stats.Deliveries, stats.Drops); err != nil {
			o.logger.Printf("orchestrator: failed to persist run summary: %v", err)
		}
	}
}

// Stats returns the medium's current counters, exposed for the admin API.
func (o *Orchestrator) Stats() medium.Stats {
	return o.medium.Stats()
}

// AdminStatsAdapter implements adminapi.StatsSource over an Orchestrator.
// It exists as a separate type because Orchestrator.Stats already has a
// different return type (medium.Stats) used internally.
type AdminStatsAdapter struct {
	Orchestrator *Orchestrator
}

// Stats implements adminapi.StatsSource.
func (a AdminStatsAdapter) Stats() adminapi.Counters {
	s := a.Orchestrator.medium.Stats()
	return adminapi.Counters{
		Collisions: s.Collisions,
		Deliveries: s.Deliveries,
		Drops:      s.Drops,
		InFlight:   s.InFlight,
	}
}
