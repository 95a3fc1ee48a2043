package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Unwrap decodes the payload of an API envelope into out. The payload is data[key] when
// that value is present and truthy, otherwise data, otherwise the body itself.
func Unwrap(body json.RawMessage, key string, out any) error {
	payload := Data(body)
	if key != "" {
		var fields map[string]json.RawMessage
		if json.Unmarshal(payload, &fields) == nil {
			if v, ok := fields[key]; ok && truthy(v) {
				payload = v
			}
		}
	}
	if len(payload) == 0 || !truthy(payload) {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("[remote Unwrap] decode %q: %w", key, err)
	}
	return nil
}

// Data returns body's "data" member, or body when it has none.
func Data(body json.RawMessage) json.RawMessage {
	var env map[string]json.RawMessage
	if json.Unmarshal(body, &env) == nil {
		if d, ok := env["data"]; ok {
			return d
		}
	}
	return body
}

// truthy follows script truthiness for a JSON value.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", "0", `""`, "-0":
		return false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f != 0
	}
	return true
}
