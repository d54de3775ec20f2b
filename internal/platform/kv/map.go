package kv

// Map is a typed view over one segment.
type Map[V any] struct {
	Segment Segment
	Codec   Codec[V]
}

// Get returns the value under key and whether it was present.
func (m Map[V]) Get(tx Tx, key uint64) (V, bool, error) {
	var zero V
	raw, ok, err := tx.Get(m.Segment, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := m.Codec.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Insert stores v under key, returning the value it replaced.
// Nothing is written when v cannot be encoded.
func (m Map[V]) Insert(tx Tx, key uint64, v V) (V, bool, error) {
	var zero V
	raw, err := m.Codec.Encode(v)
	if err != nil {
		return zero, false, err
	}
	prevRaw, existed, err := tx.Put(m.Segment, key, raw)
	if err != nil || !existed {
		return zero, false, err
	}
	prev, err := m.Codec.Decode(prevRaw)
	if err != nil {
		return zero, false, err
	}
	return prev, true, nil
}

// Remove deletes key, returning the value it held.
func (m Map[V]) Remove(tx Tx, key uint64) (V, bool, error) {
	var zero V
	prevRaw, existed, err := tx.Delete(m.Segment, key)
	if err != nil || !existed {
		return zero, false, err
	}
	prev, err := m.Codec.Decode(prevRaw)
	if err != nil {
		return zero, false, err
	}
	return prev, true, nil
}

// Ascend visits every value in ascending key order until fn returns false.
// A value that fails to decode aborts the walk with that error.
func (m Map[V]) Ascend(tx Tx, fn func(key uint64, v V) bool) error {
	var decodeErr error
	err := tx.Ascend(m.Segment, func(key uint64, raw []byte) bool {
		v, err := m.Codec.Decode(raw)
		if err != nil {
			decodeErr = err
			return false
		}
		return fn(key, v)
	})
	if err != nil {
		return err
	}
	return decodeErr
}

// Len returns the number of entries in the segment.
func (m Map[V]) Len(tx Tx) (int, error) {
	return tx.Len(m.Segment)
}
