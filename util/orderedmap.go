package util

import (
	"encoding/json"
	"fmt"
)

// OrderedMap is a string-keyed map that remembers insertion order.
// Keys and Values iterate in the order keys were first set, which is
// significant when the map carries per-agent data: actions are matched
// back to agents by the key order of the previous result.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{
		keys: make([]string, 0),
		vals: make(map[string]V),
	}
}

// Set inserts or updates a key. A new key is appended to the order,
// updating an existing key keeps its position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in insertion order.
func (m *OrderedMap[V]) Values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.vals[k])
	}
	return out
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// At returns the key and value at position i in insertion order.
func (m *OrderedMap[V]) At(i int) (string, V) {
	k := m.keys[i]
	return k, m.vals[k]
}

type orderedMapJSON[V any] struct {
	Keys   []string `json:"keys"`
	Values []V      `json:"values"`
}

func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderedMapJSON[V]{Keys: m.Keys(), Values: m.Values()})
}

func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	aux := orderedMapJSON[V]{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Keys) != len(aux.Values) {
		return fmt.Errorf("util: ordered map with %d keys but %d values", len(aux.Keys), len(aux.Values))
	}
	m.keys = make([]string, 0, len(aux.Keys))
	m.vals = make(map[string]V, len(aux.Keys))
	for i, k := range aux.Keys {
		m.Set(k, aux.Values[i])
	}
	return nil
}
