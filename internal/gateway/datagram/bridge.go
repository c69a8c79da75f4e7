// Package datagram implements the UDP/JSON gateway bridge variant: it
// forwards received uplinks to a network-server stand-in as JSON datagrams,
// and turns JSON datagram downlinks back into Transmissions.
package datagram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"

	"github.com/lorasim/simulator/internal/device"
	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
	radioerrors "github.com/lorasim/simulator/internal/radio/errors"
)

// Config configures one datagram bridge instance.
type Config struct {
	ServerAddr        string
	OutboundBacklog   int
	RecvQueueCapacity int
}

// DefaultConfig returns sensible queue sizes for a datagram bridge.
func DefaultConfig() Config {
	return Config{OutboundBacklog: 1024, RecvQueueCapacity: 4096}
}

// Bridge is the datagram gateway bridge. It implements radio.Entity so the
// medium can register it as a receiver, and device.Publisher is satisfied
// by the medium it publishes decoded downlinks into.
type Bridge struct {
	cfg    Config
	node   radio.NodeConfig
	conn   *net.UDPConn
	medium device.Publisher
	logger *log.Logger

	outbound chan radio.ReceivedTransmission
}

// Dial opens a UDP socket bound to an ephemeral local port and connected to
// cfg.ServerAddr, following the same bind-then-connect shape as
// original_source's network_controller_bridge.
func Dial(cfg Config, node radio.NodeConfig, medium device.Publisher, logger *log.Logger) (*Bridge, error) {
	serverAddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return nil, radioerrors.NewConfigError(cfg.ServerAddr, err)
	}
	localAddr, err := net.ResolveUDPAddr("udp", "0.0.0.0:0")
	if err != nil {
		return nil, radioerrors.NewConfigError("0.0.0.0:0", err)
	}
	conn, err := net.DialUDP("udp", localAddr, serverAddr)
	if err != nil {
		return nil, radioerrors.NewIoError("dial", err)
	}
	b := &Bridge{
		cfg:      cfg,
		node:     node,
		conn:     conn,
		medium:   medium,
		logger:   logger,
		outbound: make(chan radio.ReceivedTransmission, cfg.OutboundBacklog),
	}
	return b, nil
}

// Position implements radio.Entity.
func (b *Bridge) Position() geometry.Position { return b.node.Position }

// CanReceive implements radio.Entity: only uplinks above sensitivity, never
// from itself.
func (b *Bridge) CanReceive(rt radio.ReceivedTransmission) bool {
	if !rt.Transmission.Uplink() {
		return false
	}
	if rt.Transmission.StartPosition() == b.node.Position {
		return false
	}
	return float64(rt.Arrival.RSSIDBm) > b.node.ReceiverSensitivityDBm
}

// Deliver implements radio.Entity: a non-blocking enqueue onto the bridge's
// outbound send queue, drained by Run's sender loop.
func (b *Bridge) Deliver(rt radio.ReceivedTransmission) error {
	select {
	case b.outbound <- rt:
		return nil
	default:
		return radioerrors.Wrap(radioerrors.Send, fmt.Errorf("datagram bridge: outbound queue full"))
	}
}

// Run drives the bridge's send loop (JSON-encoding queued receptions onto
// the UDP socket) and receive loop (decoding inbound datagrams into
// downlink Transmissions) until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.sendLoop(ctx)
	}()
	b.recvLoop(ctx)
	<-done
}

func (b *Bridge) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rt := <-b.outbound:
			data, err := json.Marshal(rt)
			if err != nil {
				b.logger.Printf("datagram bridge: encode failed: %v", err)
				continue
			}
			if _, err := b.conn.Write(data); err != nil {
				b.logger.Printf("datagram bridge: send failed: %v", err)
			}
		}
	}
}

func (b *Bridge) recvLoop(ctx context.Context) {
	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b.conn.SetReadDeadline(deadlineFromCtx(ctx))
		n, err := b.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			b.logger.Printf("datagram bridge: recv failed: %v", err)
			continue
		}

		var tmpl radio.Transmission
		if err := json.Unmarshal(buf[:n], &tmpl); err != nil {
			b.logger.Printf("datagram bridge: decode failed: %v", err)
			continue
		}

		downlink := radio.NewTransmission(
			b.node.Position,
			nowMs(),
			tmpl.FrequencyHz(),
			tmpl.Bandwidth(),
			tmpl.SpreadingFactor(),
			tmpl.CodeRate(),
			b.node.TransmissionPowerDBm,
			false,
			tmpl.Payload(),
		)
		if err := b.medium.Publish(ctx, downlink); err != nil {
			b.logger.Printf("datagram bridge: publish failed: %v", err)
		}
	}
}

// Close releases the bridge's UDP socket.
func (b *Bridge) Close() error {
	return b.conn.Close()
}
