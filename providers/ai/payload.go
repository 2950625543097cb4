package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// StreamingPayload re-encodes payload as a JSON object and sets the given
// top-level fields, leaving every other field untouched. Adapters use it to
// turn on the vendor's streaming flag without owning the request schema.
// payload may be a struct, a map, json.RawMessage or []byte holding JSON.
func StreamingPayload(payload any, fields map[string]any) (map[string]any, error) {
	var raw []byte
	switch value := payload.(type) {
	case nil:
		raw = []byte("{}")
	case json.RawMessage:
		raw = value
	case []byte:
		raw = value
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error marshaling payload: %w", err)
		}
		raw = encoded
	}

	// Numbers stay json.Number so large integers such as seeds survive.
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	body := map[string]any{}
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("payload must be a single JSON object")
	}
	for key, value := range fields {
		body[key] = value
	}
	return body, nil
}
