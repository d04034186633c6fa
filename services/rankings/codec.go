package rankings

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec lets connect carry plain go structs, it replaces the protobuf json
// codec registered by default.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// WithJSON is required by both handlers and clients of this service.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
