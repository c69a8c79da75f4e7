package broker

import "math"

// eu868Channels is the closed set of EU868 uplink channel centre
// frequencies, in Hz, that the broker bridge snaps outgoing frequencies to.
var eu868Channels = [8]uint32{
	868_100_000, 868_300_000, 868_500_000,
	867_100_000, 867_300_000, 867_500_000, 867_700_000, 867_900_000,
}

// snapTolerance is how close a frequency must be to a channel, in Hz, to be
// considered "on" that channel.
const snapTolerance = 1000.0

// SnapEU868 rounds freqHz to the nearest EU868 channel within 1kHz
// tolerance, or the first channel (868.1MHz) if none matches. Applying it
// twice is idempotent: snap(snap(x)) == snap(x).
func SnapEU868(freqHz uint32) uint32 {
	for _, ch := range eu868Channels {
		if math.Abs(float64(freqHz)-float64(ch)) < snapTolerance {
			return ch
		}
	}
	return eu868Channels[0]
}
