package threatapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the {success, data} wrapper used by newer upstream endpoints
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// DecodeList normalises a list response. It checks, in order, the named
// array field, a {success:true, data:[...]} envelope, the body as a bare
// array, and finally yields an empty slice. Only a body that is not valid
// JSON is an error.
func DecodeList[T any](body []byte, field string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if !json.Valid(trimmed) {
		return nil, ErrMalformedResponse
	}

	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if raw, ok := fields[field]; ok && isArray(raw) {
			return unmarshalList[T](raw, field)
		}
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Success && isArray(env.Data) {
			return unmarshalList[T](env.Data, "data")
		}
	case '[':
		return unmarshalList[T](trimmed, "body")
	}
	return []T{}, nil
}

// DecodeOne normalises a single-object response with the same ordering as
// DecodeList. A bare object only counts when it carries an "id".
func DecodeOne[T any](body []byte, field string) (*T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyResponse
	}
	if !json.Valid(trimmed) {
		return nil, ErrMalformedResponse
	}
	if trimmed[0] != '{' {
		return nil, ErrEmptyResponse
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw, ok := fields[field]; ok && isObject(raw) {
		return unmarshalOne[T](raw, field)
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err == nil && env.Success && isObject(env.Data) {
		return unmarshalOne[T](env.Data, "data")
	}
	if _, ok := fields["id"]; ok {
		return unmarshalOne[T](trimmed, "body")
	}
	return nil, ErrEmptyResponse
}

// DecodeRaw unwraps a {success:true, data:...} envelope and otherwise returns
// the body unchanged. Used for free-form statistics payloads.
func DecodeRaw(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(trimmed) {
		return nil, ErrMalformedResponse
	}
	var env envelope
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Success && len(env.Data) > 0 {
			return env.Data, nil
		}
	}
	return json.RawMessage(trimmed), nil
}

func unmarshalList[T any](raw json.RawMessage, where string) ([]T, error) {
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", where, err)
	}
	return out, nil
}

func unmarshalOne[T any](raw json.RawMessage, where string) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", where, err)
	}
	return &out, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
