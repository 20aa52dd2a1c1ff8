package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// -----------------------------------------------------------------------------

// OrderedMap is a string-keyed map that preserves key insertion order. The
// analytics payload keys its aggregates chronologically in the source JSON
// objects, and the derivation rules depend on that order surviving decode.
type OrderedMap[T any] struct {
	keys   []string
	values map[string]T
}

// -----------------------------------------------------------------------------

func NewOrderedMap[T any]() *OrderedMap[T] {
	return &OrderedMap[T]{values: make(map[string]T)}
}

// -----------------------------------------------------------------------------

// Set appends the key on first write; later writes replace the value in place.
func (m *OrderedMap[T]) Set(key string, value T) {
	if m.values == nil {
		m.values = make(map[string]T)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// -----------------------------------------------------------------------------

func (m *OrderedMap[T]) Get(key string) (T, bool) {
	if m == nil || m.values == nil {
		var zero T
		return zero, false
	}
	v, ok := m.values[key]
	return v, ok
}

// -----------------------------------------------------------------------------

// Keys returns the keys in insertion order. The slice is shared, callers must
// not mutate it.
func (m *OrderedMap[T]) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// -----------------------------------------------------------------------------

func (m *OrderedMap[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// -----------------------------------------------------------------------------

// LastKey returns the final key in insertion order, or "" when empty.
func (m *OrderedMap[T]) LastKey() string {
	if m == nil || len(m.keys) == 0 {
		return ""
	}
	return m.keys[len(m.keys)-1]
}

// -----------------------------------------------------------------------------

// UnmarshalJSON decodes a JSON object one key at a time so the source key
// order is retained.
func (m *OrderedMap[T]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("ordered map: expected object, got %v", tok)
	}

	m.keys = nil
	m.values = make(map[string]T)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var value T
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("ordered map: key %q: %w", key, err)
		}
		m.Set(key, value)
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// MarshalJSON emits the entries in insertion order.
func (m *OrderedMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
