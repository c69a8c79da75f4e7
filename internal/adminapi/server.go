// Package adminapi hosts the simulator's control-plane surface: a small
// gRPC service for live stats and graceful shutdown. The orchestrator is
// the authority devices and bridges report into, so this service is
// served, not dialed.
package adminapi

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// StatsSource is the orchestrator capability the admin API reports on.
type StatsSource interface {
	Stats() Counters
}

// Counters mirrors medium.Stats without importing the medium package
// directly, keeping adminapi's dependency surface to what it actually
// reports.
type Counters struct {
	Collisions int64
	Deliveries int64
	Drops      int64
	InFlight   int
}

// Config configures the admin gRPC server's listen address and keepalive
// parameters.
type Config struct {
	ListenAddr       string
	KeepaliveTime    int64 // seconds
	KeepaliveTimeout int64 // seconds

	DashboardAddr     string        // empty disables the websocket dashboard
	DashboardInterval time.Duration
}

// DefaultConfig returns a 30s keepalive ping every 10s timeout, and a
// dashboard push every second on :50062.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":50061",
		KeepaliveTime:     30,
		KeepaliveTimeout:  10,
		DashboardAddr:     ":50062",
		DashboardInterval: time.Second,
	}
}

// Server implements AdminServiceServer over a StatsSource and a cancel
// function that ends the simulation run on Shutdown.
type Server struct {
	stats  StatsSource
	cancel context.CancelFunc
	logger *log.Logger

	grpcServer *grpc.Server
}

// New constructs an admin API server. cancel is invoked when a Shutdown
// request is received, ending the orchestrator's run.
func New(cfg Config, stats StatsSource, cancel context.CancelFunc, logger *log.Logger) *Server {
	s := &Server{stats: stats, cancel: cancel, logger: logger}

	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    time.Duration(cfg.KeepaliveTime) * time.Second,
			Timeout: time.Duration(cfg.KeepaliveTimeout) * time.Second,
		}),
	}
	s.grpcServer = grpc.NewServer(opts...)
	s.grpcServer.RegisterService(&ServiceDesc, s)
	return s
}

// Serve binds addr and blocks serving the admin API until the
// listener is closed or Stop is called.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Printf("adminapi: listening on %s", addr)
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// GetStats implements AdminServiceServer.
func (s *Server) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	c := s.stats.Stats()
	return &GetStatsResponse{
		Collisions: c.Collisions,
		Deliveries: c.Deliveries,
		Drops:      c.Drops,
		InFlight:   int64(c.InFlight),
	}, nil
}

// Shutdown implements AdminServiceServer: it invokes the orchestrator's
// cancel function, which ends the run on the next poll of its context.
func (s *Server) Shutdown(ctx context.Context, req *ShutdownRequest) (*ShutdownResponse, error) {
	s.logger.Printf("adminapi: shutdown requested over gRPC")
	s.cancel()
	return &ShutdownResponse{Ok: true}, nil
}
