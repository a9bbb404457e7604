package models

import (
	"bytes"
	"encoding/json"
)

// Result holds either a parsed tool result or the reason it is unavailable.
// A tool that is missing, fails to start or prints something unparsable
// yields an Unavailable result instead of an error, so every report field
// always has a well-typed value.
type Result[T any] struct {
	value  T
	reason string
	ok     bool
}

// Ok wraps a successfully parsed value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Unavailable marks a result as missing with a human-readable reason.
func Unavailable[T any](reason string) Result[T] {
	if reason == "" {
		reason = "unavailable"
	}
	return Result[T]{reason: reason}
}

// OK reports whether the result carries a value.
func (r Result[T]) OK() bool {
	return r.ok
}

// Get returns the value and whether it is present.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// ValueOr returns the value, or def when the result is unavailable.
func (r Result[T]) ValueOr(def T) T {
	if !r.ok {
		return def
	}
	return r.value
}

// Reason returns why the result is unavailable. Empty for Ok results.
func (r Result[T]) Reason() string {
	if r.ok {
		return ""
	}
	if r.reason == "" {
		return "unavailable"
	}
	return r.reason
}

type unavailableJSON struct {
	Error string `json:"error"`
}

// MarshalJSON encodes Ok results as the bare value and Unavailable results
// as {"error": reason}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(r.value)
	}
	return json.Marshal(unavailableJSON{Error: r.Reason()})
}

// UnmarshalJSON reverses MarshalJSON. An object whose only key is "error"
// with a string value decodes as Unavailable.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	if reason, ok := errorMarker(data); ok {
		*r = Unavailable[T](reason)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ok(v)
	return nil
}

func errorMarker(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || len(fields) != 1 {
		return "", false
	}
	raw, ok := fields["error"]
	if !ok {
		return "", false
	}
	var reason string
	if err := json.Unmarshal(raw, &reason); err != nil {
		return "", false
	}
	return reason, true
}
