package ir

import (
	"bytes"
	"encoding/json"
)

// MarshalWire encodes v the way records go on the wire: compact JSON with
// '<', '>', '&', U+2028 and U+2029 written literally, so strings written by
// other clients come back with the bytes they were sent with.
func MarshalWire(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}
