package radio

import (
	"encoding/json"

	"github.com/lorasim/simulator/internal/radio/geometry"
	"github.com/lorasim/simulator/internal/radio/timing"
)

// wireTransmission is the JSON wire shape of a Transmission, used by the
// datagram gateway bridge. Transmission's fields are unexported so that
// nothing outside this package can construct or mutate one directly;
// MarshalJSON/UnmarshalJSON are the only bridge between the two.
type wireTransmission struct {
	StartPosition    geometry.Position      `json:"start_position"`
	StartTimeMs      int64                  `json:"start_time_ms"`
	FrequencyHz      uint32                 `json:"frequency_hz"`
	Bandwidth        timing.Bandwidth       `json:"bandwidth"`
	SpreadingFactor  timing.SpreadingFactor `json:"spreading_factor"`
	CodeRate         timing.CodeRate        `json:"code_rate"`
	StartingPowerDBm float64                `json:"starting_power_dbm"`
	Uplink           bool                   `json:"uplink"`
	Payload          []byte                 `json:"payload"`
}

// MarshalJSON encodes a Transmission for the datagram bridge's wire format.
func (t Transmission) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTransmission{
		StartPosition:    t.startPosition,
		StartTimeMs:      t.startTimeMs,
		FrequencyHz:      t.frequencyHz,
		Bandwidth:        t.bandwidth,
		SpreadingFactor:  t.spreadingFactor,
		CodeRate:         t.codeRate,
		StartingPowerDBm: t.startingPowerDBm,
		Uplink:           t.uplink,
		Payload:          t.payload,
	})
}

// UnmarshalJSON decodes a Transmission from the datagram bridge's wire
// format.
func (t *Transmission) UnmarshalJSON(data []byte) error {
	var w wireTransmission
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.startPosition = w.StartPosition
	t.startTimeMs = w.StartTimeMs
	t.frequencyHz = w.FrequencyHz
	t.bandwidth = w.Bandwidth
	t.spreadingFactor = w.SpreadingFactor
	t.codeRate = w.CodeRate
	t.startingPowerDBm = w.StartingPowerDBm
	t.uplink = w.Uplink
	t.payload = append([]byte(nil), w.Payload...)
	return nil
}

// wireReceivedTransmission is the JSON wire shape of a ReceivedTransmission.
type wireReceivedTransmission struct {
	Transmission Transmission `json:"transmission"`
	Arrival      ArrivalStats `json:"arrival"`
}

// MarshalJSON encodes a ReceivedTransmission for the datagram bridge.
func (r ReceivedTransmission) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireReceivedTransmission{Transmission: r.Transmission, Arrival: r.Arrival})
}

// UnmarshalJSON decodes a ReceivedTransmission from the datagram bridge.
func (r *ReceivedTransmission) UnmarshalJSON(data []byte) error {
	var w wireReceivedTransmission
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Transmission = w.Transmission
	r.Arrival = w.Arrival
	return nil
}
