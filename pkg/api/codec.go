package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CodecName is the Connect codec name; requests use Content-Type
// application/json.
const CodecName = "json"

// JSONCodec encodes the plain Go messages of this package with
// encoding/json. It replaces Connect's protobuf JSON codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
