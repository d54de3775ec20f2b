package kv

import (
	"encoding/binary"
	"fmt"
)

const counterKey uint64 = 0

// Counter is a persisted scalar holding the next identifier to hand out.
// It lives under key 0 of its own segment and starts at 1.
type Counter struct {
	Segment Segment
}

// Next returns the current value and persists its successor in the same transaction.
func (c Counter) Next(tx Tx) (uint64, error) {
	current, err := c.Peek(tx)
	if err != nil {
		return 0, err
	}
	if current > MaxKey {
		return 0, fmt.Errorf("%w: %d", ErrCounterExhausted, current)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, current+1)
	if _, _, err := tx.Put(c.Segment, counterKey, buf); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCounterPersist, err)
	}
	return current, nil
}

// Peek returns the value Next would hand out without advancing it.
func (c Counter) Peek(tx Tx) (uint64, error) {
	raw, ok, err := tx.Get(c.Segment, counterKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCounterPersist, err)
	}
	if !ok {
		return 1, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("%w: counter %s holds %d bytes", ErrCorruptRecord, c.Segment, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}
