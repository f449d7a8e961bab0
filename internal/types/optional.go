package types

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a JSON field that was omitted from one that was
// sent. encoding/json only calls UnmarshalJSON for keys that are present,
// so Set stays false for an absent key.
type Optional[T any] struct {
	Value T
	Set   bool
	// Null is true when the key was present with a JSON null.
	Null bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether a non-null value was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON implements json.Marshaler. An unset or null Optional is
// encoded as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if v, ok := o.Get(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}
