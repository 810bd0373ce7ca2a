package connector

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes v into the opaque blob format that ConfigLoader and
// Tasker store through every Connector. encoding/gob is this module's
// self-describing wire format for stored task results and config values.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("connector: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a blob produced by Encode into v, which must be a
// pointer to a type gob-compatible with whatever was encoded.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("connector: decode: %w", err)
	}
	return nil
}
