// Package broker implements the MQTT gateway bridge variant: it publishes
// received uplinks as ChirpStack-style gw frames and subscribes for
// downlink commands over a publish/subscribe broker connection.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/lorasim/simulator/internal/device"
	"github.com/lorasim/simulator/internal/radio"
	"github.com/lorasim/simulator/internal/radio/geometry"
	radioerrors "github.com/lorasim/simulator/internal/radio/errors"
)

// Config configures one broker-bridge instance.
type Config struct {
	BrokerURL       string
	Region          string
	GatewayID       string
	OutboundBacklog int
}

// DefaultConfig returns a broker-bridge config for the EU868 region.
func DefaultConfig() Config {
	return Config{Region: "eu868", OutboundBacklog: 1024}
}

// Bridge is the MQTT gateway bridge. It implements radio.Entity.
type Bridge struct {
	cfg    Config
	node   radio.NodeConfig
	client mqtt.Client
	medium device.Publisher
	logger *log.Logger

	outbound chan radio.ReceivedTransmission
}

// Connect opens the MQTT connection and subscribes to the downlink command
// topic. Publishing of queued uplinks happens in Run.
func Connect(cfg Config, node radio.NodeConfig, medium device.Publisher, logger *log.Logger) (*Bridge, error) {
	b := &Bridge{
		cfg:      cfg,
		node:     node,
		medium:   medium,
		logger:   logger,
		outbound: make(chan radio.ReceivedTransmission, cfg.OutboundBacklog),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(fmt.Sprintf("lorasim-gw-%s-%s", cfg.GatewayID, uuid.NewString())).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Printf("broker bridge %s: connected", cfg.GatewayID)
			token := c.Subscribe(b.downTopic(), 2, b.handleDownlink)
			token.Wait()
			if err := token.Error(); err != nil {
				logger.Printf("broker bridge %s: subscribe failed: %v", cfg.GatewayID, err)
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Printf("broker bridge %s: disconnected: %v", cfg.GatewayID, err)
		})

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, radioerrors.NewIoError("mqtt connect", err)
	}
	return b, nil
}

func (b *Bridge) upTopic() string {
	return fmt.Sprintf("%s/gateway/%s/event/up", b.cfg.Region, b.cfg.GatewayID)
}

func (b *Bridge) downTopic() string {
	return fmt.Sprintf("%s/gateway/%s/command/down", b.cfg.Region, b.cfg.GatewayID)
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
// outbound publish queue, drained by Run.
func (b *Bridge) Deliver(rt radio.ReceivedTransmission) error {
	select {
	case b.outbound <- rt:
		return nil
	default:
		return radioerrors.Wrap(radioerrors.Send, fmt.Errorf("broker bridge: outbound queue full"))
	}
}

// Run drains the outbound queue onto the broker until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.client.Disconnect(250)
			return
		case rt := <-b.outbound:
			b.publish(rt)
		}
	}
}

func (b *Bridge) publish(rt radio.ReceivedTransmission) {
	t := rt.Transmission
	frame := UplinkFrame{
		PhyPayload: t.Payload(),
		TxInfo: UplinkTxInfo{
			Frequency: SnapEU868(t.FrequencyHz()),
			Modulation: Modulation{LoRa: &LoRaModulationInfo{
				Bandwidth:             uint32(t.Bandwidth()),
				SpreadingFactor:       uint32(t.SpreadingFactor()),
				CodeRate:              codeRate4_5,
				PolarizationInversion: false,
			}},
		},
		RxInfo: UplinkRxInfo{
			GatewayID: b.cfg.GatewayID,
			UplinkID:  rand.Uint32(),
			RSSI:      int32(rt.Arrival.RSSIDBm),
			SNR:       rt.Arrival.SNRDB,
			Channel:   1,
			RFChain:   1,
			Board:     1,
			Antenna:   1,
			Context:   []byte{1, 2, 3, 4},
			CRCStatus: 0,
		},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		b.logger.Printf("broker bridge: encode failed: %v", err)
		return
	}
	token := b.client.Publish(b.upTopic(), 2, false, data)
	token.Wait()
	if err := token.Error(); err != nil {
		b.logger.Printf("broker bridge: publish failed: %v", err)
	}
}

func (b *Bridge) handleDownlink(_ mqtt.Client, msg mqtt.Message) {
	var frame DownlinkFrame
	if err := json.Unmarshal(msg.Payload(), &frame); err != nil {
		b.logger.Printf("broker bridge: decode downlink failed: %v", err)
		return
	}
	if len(frame.Items) == 0 {
		return
	}
	item := frame.Items[0]
	lora := item.TxInfo.Modulation.LoRa
	if lora == nil {
		b.logger.Printf("broker bridge: downlink missing LoRa modulation info")
		return
	}

	downlink := radio.NewTransmission(
		b.node.Position,
		nowMs(),
		item.TxInfo.Frequency,
		timingBandwidth(lora.Bandwidth),
		timingSF(lora.SpreadingFactor),
		timingCR(lora.CodeRate),
		b.node.TransmissionPowerDBm,
		false,
		item.PhyPayload,
	)
	ctx := context.Background()
	if err := b.medium.Publish(ctx, downlink); err != nil {
		b.logger.Printf("broker bridge: publish to medium failed: %v", err)
	}
}

// Close disconnects the MQTT client.
func (b *Bridge) Close() {
	b.client.Disconnect(250)
}
