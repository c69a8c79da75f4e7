package broker

// UplinkFrame is the gateway-bridge uplink wire frame published to
// <region>/gateway/<gwid>/event/up, modeled on the ChirpStack gateway
// bridge protocol.
type UplinkFrame struct {
	PhyPayload []byte        `json:"phyPayload"`
	TxInfo     UplinkTxInfo  `json:"txInfo"`
	RxInfo     UplinkRxInfo  `json:"rxInfo"`
}

// UplinkTxInfo carries the transmit-side channel parameters of a received
// frame.
type UplinkTxInfo struct {
	Frequency  uint32     `json:"frequency"`
	Modulation Modulation `json:"modulation"`
}

// UplinkRxInfo carries the gateway-observed reception metadata.
type UplinkRxInfo struct {
	GatewayID string  `json:"gatewayId"`
	UplinkID  uint32  `json:"uplinkId"`
	RSSI      int32   `json:"rssi"`
	SNR       float32 `json:"snr"`
	Channel   uint32  `json:"channel"`
	RFChain   uint32  `json:"rfChain"`
	Board     uint32  `json:"board"`
	Antenna   uint32  `json:"antenna"`
	Context   []byte  `json:"context"`
	CRCStatus int32   `json:"crcStatus"`
}

// Modulation carries the LoRa modulation parameters. FSK is never produced
// by this simulator, so the upstream FSK variant has no field here.
type Modulation struct {
	LoRa *LoRaModulationInfo `json:"lora,omitempty"`
}

// LoRaModulationInfo describes the LoRa channel parameters of one frame.
type LoRaModulationInfo struct {
	Bandwidth             uint32 `json:"bandwidth"`
	SpreadingFactor       uint32 `json:"spreadingFactor"`
	CodeRate              int32  `json:"codeRate"`
	PolarizationInversion bool   `json:"polarizationInversion"`
}

// DownlinkFrame is the wire frame received on
// <region>/gateway/<gwid>/command/down. Only the first item is decoded into
// a Transmission, per spec.md §6.
type DownlinkFrame struct {
	DownlinkID uint32              `json:"downlinkId"`
	GatewayID  string              `json:"gatewayId"`
	Items      []DownlinkFrameItem `json:"items"`
}

// DownlinkFrameItem is a single downlink transmission opportunity.
type DownlinkFrameItem struct {
	PhyPayload []byte         `json:"phyPayload"`
	TxInfo     DownlinkTxInfo `json:"txInfo"`
}

// DownlinkTxInfo carries the transmit parameters for a downlink item.
type DownlinkTxInfo struct {
	Frequency  uint32     `json:"frequency"`
	Modulation Modulation `json:"modulation"`
}

// codeRate4_5 is the fixed code rate the broker bridge always reports for
// uplinks, per spec.md §9: whether to propagate the transmission's actual
// code rate is left open, and this simulator always emits 4/5.
const codeRate4_5 = 1
