package rota

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawRow is an ordered mapping of column name to cell text.
// The zero value is an empty row ready to use.
type RawRow struct {
	keys   []string
	values map[string]string
}

// NewRawRow builds a row from alternating key/value pairs.
// It panics on an odd number of arguments; intended for fixtures and tests.
func NewRawRow(pairs ...string) RawRow {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("rota.NewRawRow: odd number of arguments (%d)", len(pairs)))
	}
	var r RawRow
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Set stores value under key. A new key is appended to the column order;
// an existing key keeps its position and has its value replaced.
func (r *RawRow) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether it was present.
func (r RawRow) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or "" when the column is absent.
func (r RawRow) Value(key string) string {
	return r.values[key]
}

// Delete removes key from the row. Missing keys are ignored.
func (r *RawRow) Delete(key string) {
	if _, exists := r.values[key]; !exists {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the column names in insertion order.
func (r RawRow) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of columns.
func (r RawRow) Len() int {
	return len(r.keys)
}

// Clone returns a deep copy of the row.
func (r RawRow) Clone() RawRow {
	c := RawRow{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]string, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Equal reports whether both rows hold exactly the same columns with the same
// values. Column order is not significant.
func (r RawRow) Equal(other RawRow) bool {
	if len(r.values) != len(other.values) {
		return false
	}
	for k, v := range r.values {
		ov, ok := other.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as a flat JSON object in column order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", k, err)
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding value for %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dedup returns rows with later exact duplicates removed. The first occurrence of
// each distinct row is kept and the relative order of survivors is preserved.
func Dedup(rows []RawRow) []RawRow {
	unique := make([]RawRow, 0, len(rows))
	for _, row := range rows {
		duplicate := false
		for _, kept := range unique {
			if kept.Equal(row) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, row)
		}
	}
	return unique
}
