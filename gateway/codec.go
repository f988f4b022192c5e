package gateway

import "encoding/json"

// codecName stays "json" so the handler negotiates the standard
// application/json content type.
const codecName = "json"

// jsonCodec is a connect.Codec over encoding/json. The event contract is
// schema-less JSON, which the default protobuf JSON codec cannot carry.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return codecName
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}
