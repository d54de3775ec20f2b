package kv

import (
	"encoding/json"
	"fmt"
)

// Codec converts typed values to and from the bytes stored in a segment.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// JSONCodec wraps values in a versioned, self-describing JSON envelope.
// Encoded envelopes larger than MaxSize bytes are rejected with ErrValueTooLarge.
type JSONCodec[V any] struct {
	Kind    string
	Version int
	MaxSize int
}

type envelope struct {
	Kind    string          `json:"kind"`
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// Encode marshals v inside an envelope tagged with the codec kind.
func (c JSONCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Kind, err)
	}
	out, err := json.Marshal(envelope{Kind: c.Kind, Version: c.Version, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Kind, err)
	}
	if c.MaxSize > 0 && len(out) > c.MaxSize {
		return nil, fmt.Errorf("%w: %s record is %d bytes, limit %d", ErrValueTooLarge, c.Kind, len(out), c.MaxSize)
	}
	return out, nil
}

// Decode unmarshals an envelope produced by Encode. Any mismatch is ErrCorruptRecord.
func (c JSONCodec[V]) Decode(raw []byte) (V, error) {
	var zero V
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, c.Kind, err)
	}
	if env.Kind != c.Kind {
		return zero, fmt.Errorf("%w: expected kind %q, found %q", ErrCorruptRecord, c.Kind, env.Kind)
	}
	if env.Version > c.Version {
		return zero, fmt.Errorf("%w: %s version %d is newer than %d", ErrCorruptRecord, c.Kind, env.Version, c.Version)
	}
	var v V
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, c.Kind, err)
	}
	return v, nil
}
