// Package jsoncodec registers a JSON gRPC codec so services can exchange
// plain Go structs without generated protobuf types. Protobuf messages, such
// as the health service's, are encoded with protojson so they can share the
// same content-subtype.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Name is the content-subtype selected by clients ("application/grpc+json").
const Name = "json"

// Codec marshals gRPC messages as JSON.
type Codec struct{}

var unmarshalProto = protojson.UnmarshalOptions{DiscardUnknown: true}

func init() {
	encoding.RegisterCodec(Codec{})
}

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if msg, ok := v.(proto.Message); ok {
		data, err = protojson.Marshal(msg)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	var err error
	if msg, ok := v.(proto.Message); ok {
		err = unmarshalProto.Unmarshal(data, msg)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}

// Name implements encoding.Codec.
func (Codec) Name() string {
	return Name
}
