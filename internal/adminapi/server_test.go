package adminapi

import (
	"context"
	"io"
	"log"
	"testing"
)

type fakeStatsSource struct {
	counters Counters
}

func (f fakeStatsSource) Stats() Counters { return f.counters }

func TestGetStatsReflectsStatsSource(t *testing.T) {
	stats := fakeStatsSource{counters: Counters{Collisions: 2, Deliveries: 40, Drops: 1, InFlight: 3}}
	s := New(DefaultConfig(), stats, func() {}, log.New(io.Discard, "", 0))

	resp, err := s.GetStats(context.Background(), &GetStatsRequest{})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if resp.Collisions != 2 || resp.Deliveries != 40 || resp.Drops != 1 || resp.InFlight != 3 {
		t.Errorf("GetStats() = %+v, want {2 40 1 3}", resp)
	}
}

func TestShutdownInvokesCancel(t *testing.T) {
	called := false
	cancel := func() { called = true }
	s := New(DefaultConfig(), fakeStatsSource{}, cancel, log.New(io.Discard, "", 0))

	resp, err := s.Shutdown(context.Background(), &ShutdownRequest{})
	if err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !resp.Ok {
		t.Errorf("Shutdown response Ok = false, want true")
	}
	if !called {
		t.Errorf("expected cancel to be invoked")
	}
}
