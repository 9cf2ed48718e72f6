package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
)

// applyPatch merges a partial JSON update into base. Keys that do not exist
// on base are rejected, as are values whose type does not match the field.
func applyPatch[T any](base T, patch map[string]json.RawMessage, typeMsg string) (T, error) {
	var zero T

	raw, err := json.Marshal(base)
	if err != nil {
		return zero, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return zero, err
	}

	for k, v := range patch {
		if _, ok := m[k]; !ok {
			return zero, errors.New("Invalid update key")
		}
		m[k] = v
	}

	merged, err := json.Marshal(m)
	if err != nil {
		return zero, err
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return zero, errors.New(typeMsg)
	}
	return out, nil
}
