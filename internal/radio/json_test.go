package radio

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/lorasim/simulator/internal/radio/geometry"
	"github.com/lorasim/simulator/internal/radio/timing"
)

func TestTransmissionJSONRoundTrip(t *testing.T) {
	original := NewTransmission(
		geometry.Position{X: 1, Y: 2, Z: 3},
		1000,
		868_100_000,
		timing.BW125,
		timing.SF7,
		timing.CR4_5,
		14.0,
		true,
		[]byte("hello lora"),
	)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Transmission
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.StartPosition() != original.StartPosition() {
		t.Errorf("StartPosition mismatch: got %v, want %v", decoded.StartPosition(), original.StartPosition())
	}
	if decoded.StartTimeMs() != original.StartTimeMs() {
		t.Errorf("StartTimeMs mismatch: got %v, want %v", decoded.StartTimeMs(), original.StartTimeMs())
	}
	if decoded.FrequencyHz() != original.FrequencyHz() {
		t.Errorf("FrequencyHz mismatch")
	}
	if decoded.Bandwidth() != original.Bandwidth() {
		t.Errorf("Bandwidth mismatch")
	}
	if decoded.SpreadingFactor() != original.SpreadingFactor() {
		t.Errorf("SpreadingFactor mismatch")
	}
	if decoded.CodeRate() != original.CodeRate() {
		t.Errorf("CodeRate mismatch")
	}
	if decoded.StartingPowerDBm() != original.StartingPowerDBm() {
		t.Errorf("StartingPowerDBm mismatch")
	}
	if decoded.Uplink() != original.Uplink() {
		t.Errorf("Uplink mismatch")
	}
	if !bytes.Equal(decoded.Payload(), original.Payload()) {
		t.Errorf("Payload mismatch: got %v, want %v", decoded.Payload(), original.Payload())
	}
}

func TestReceivedTransmissionJSONRoundTrip(t *testing.T) {
	original := ReceivedTransmission{
		Transmission: NewTransmission(geometry.Position{}, 0, 868_100_000, timing.BW125, timing.SF7, timing.CR4_5, 14, true, []byte("x")),
		Arrival:      ArrivalStats{TimeMs: 47, RSSIDBm: -77.2, SNRDB: 8.5},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded ReceivedTransmission
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Arrival != original.Arrival {
		t.Errorf("Arrival mismatch: got %v, want %v", decoded.Arrival, original.Arrival)
	}
	if !bytes.Equal(decoded.Transmission.Payload(), original.Transmission.Payload()) {
		t.Errorf("Payload mismatch")
	}
}
