package broadcast

import (
	"encoding/json"
	"fmt"
)

// jsonCodec implements google.golang.org/grpc/encoding.Codec, replacing the
// default protobuf wire format with plain JSON. This lets BookMerger use
// real gRPC/HTTP2 transport and server-streaming semantics without a
// protoc-gen-go code generation step: request and response types are plain
// Go structs (pkg/rpcpb.Empty, pkg/types.Summary) rather than
// proto.Message implementations.
type jsonCodec struct{}

const codecName = "json"

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("broadcast: marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("broadcast: unmarshal into %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return codecName
}
