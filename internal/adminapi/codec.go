package adminapi

import "encoding/json"

// jsonCodec is a grpc.Codec substitute: it carries admin API messages as
// JSON rather than protobuf wire bytes. A genuine protobuf codec needs
// descriptor-backed proto.Message implementations, which protoc generates
// and which this repository has no protoc invocation to produce (see
// DESIGN.md). Using grpc's codec extension point keeps the real
// google.golang.org/grpc server/client/ServiceDesc machinery in play
// without fabricating generated protobuf code by hand.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return "json" }
