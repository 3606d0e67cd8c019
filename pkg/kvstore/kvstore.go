// Package kvstore provides the embedded key-value persistence used by the
// watcher to checkpoint per-contract polling positions.
package kvstore

import (
	"encoding/json"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyEmpty    = errors.New("key is empty")
)

// KVPair is a single stored entry as returned by List.
type KVPair struct {
	Key   string
	Value []byte
}

// Store is the storage contract cursor stores run on. Values are encoded
// through the store's codec.
type Store interface {
	Set(k string, v any) error
	Get(k string, v any) (found bool, err error)
	List(prefix string) ([]*KVPair, error)
	Delete(k string) error
	Close() error
}

// Codec encodes/decodes Go values to/from slices of bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default codec.
var JSON = JSONCodec{}

// JSONCodec encodes/decodes Go values to/from JSON.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
