// Package jsonutil provides shared helpers for decoding JSON payloads that
// cross the process boundary: error wrapping, strict decoding and
// null-tolerant slice decoding.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v interface{}, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// DecodeStrict decodes a single JSON value from r into v, rejecting unknown
// fields and trailing data.
func DecodeStrict(r io.Reader, v interface{}, context string) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	if dec.More() {
		return fmt.Errorf("%s: unexpected data after JSON value", context)
	}
	return nil
}

// IsNull reports whether data is empty or the JSON literal null.
func IsNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// UnmarshalArrayAllowEmpty unmarshals JSON data into a slice.
// A null or empty payload yields an empty, non-nil slice.
func UnmarshalArrayAllowEmpty[T any](data []byte, context string) ([]T, error) {
	entries := []T{}
	if IsNull(data) {
		return entries, nil
	}
	if err := UnmarshalWithContext(data, &entries, context); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []T{}
	}
	return entries, nil
}

// UnmarshalOptional unmarshals data into a new T. A null payload yields nil.
func UnmarshalOptional[T any](data []byte, context string) (*T, error) {
	if IsNull(data) {
		return nil, nil
	}
	var v T
	if err := UnmarshalWithContext(data, &v, context); err != nil {
		return nil, err
	}
	return &v, nil
}
