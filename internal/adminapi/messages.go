package adminapi

// Message types for the admin gRPC service, hand-authored in the shape
// protoc-gen-go would produce from an adminapi.proto service definition.
// They carry no protobuf struct tags because the service is served over a
// JSON wire codec (see codec.go) rather than binary protobuf; see
// DESIGN.md for why a hand-authored binary protobuf codec was not
// attempted.

// GetStatsRequest takes no fields.
type GetStatsRequest struct{}

// GetStatsResponse reports the medium's live run counters.
type GetStatsResponse struct {
	Collisions int64 `json:"collisions"`
	Deliveries int64 `json:"deliveries"`
	Drops      int64 `json:"drops"`
	InFlight   int64 `json:"inFlight"`
}

// ShutdownRequest takes no fields.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Ok bool `json:"ok"`
}
