package adminapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ServeDashboard starts a websocket dashboard bound to cfg.DashboardAddr and
// returns the *http.Server so the caller can shut it down alongside the
// admin gRPC server. It returns nil, nil if cfg.DashboardAddr is empty.
func ServeDashboard(cfg Config, stats StatsSource, logger *log.Logger) (*http.Server, error) {
	if cfg.DashboardAddr == "" {
		return nil, nil
	}
	dashboard := NewDashboard(stats, cfg.DashboardInterval, logger)
	stop := make(chan struct{})
	go dashboard.Run(stop)

	mux := http.NewServeMux()
	mux.Handle("/ws/stats", dashboard)
	httpServer := &http.Server{Addr: cfg.DashboardAddr, Handler: mux}

	go func() {
		logger.Printf("adminapi: dashboard listening on %s", cfg.DashboardAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("adminapi: dashboard server error: %v", err)
		}
		close(stop)
	}()

	return httpServer, nil
}

// Dashboard serves a live-stats feed over WebSocket for an operator-facing
// view, pushing a Counters snapshot on a timer to every connected client.
// It reuses the Server's StatsSource rather than opening a second polling
// path into the orchestrator.
type Dashboard struct {
	stats    StatsSource
	logger   *log.Logger
	upgrader websocket.Upgrader
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewDashboard constructs a Dashboard that pushes stats every interval.
func NewDashboard(stats StatsSource, interval time.Duration, logger *log.Logger) *Dashboard {
	return &Dashboard{
		stats:    stats,
		logger:   logger,
		interval: interval,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and registers it for the broadcast
// loop. It satisfies http.Handler so the caller mounts it under any mux
// path (e.g. "/ws/stats").
func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Printf("dashboard: upgrade failed: %v", err)
		return
	}
	d.mu.Lock()
	d.clients[conn] = struct{}{}
	d.mu.Unlock()

	// Drain and discard client reads so the control frames (ping/pong,
	// close) are processed; the feed is one-directional otherwise.
	go func() {
		defer d.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (d *Dashboard) removeClient(conn *websocket.Conn) {
	d.mu.Lock()
	delete(d.clients, conn)
	d.mu.Unlock()
	conn.Close()
}

// Run broadcasts a stats snapshot to every connected client every interval,
// until stop is closed.
func (d *Dashboard) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.broadcast()
		}
	}
}

func (d *Dashboard) broadcast() {
	data, err := json.Marshal(d.stats.Stats())
	if err != nil {
		d.logger.Printf("dashboard: encode failed: %v", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			d.logger.Printf("dashboard: write failed, dropping client: %v", err)
			delete(d.clients, conn)
			conn.Close()
		}
	}
}
