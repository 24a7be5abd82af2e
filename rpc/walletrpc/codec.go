// Package walletrpc defines the messages and gRPC service descriptions of
// the descriptor wallet RPC API. Messages travel as JSON using the codec
// registered under CodecName.
package walletrpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of the API.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CallOption makes a client call use the JSON codec.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
