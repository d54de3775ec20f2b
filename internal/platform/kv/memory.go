package kv

import (
	"context"
	"slices"
	"sync"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps segments in process memory. Writes of an Update are
// staged and applied only when the transaction function returns nil.
type MemoryBackend struct {
	mu       sync.RWMutex
	known    map[Segment]struct{}
	segments map[Segment]map[uint64][]byte
	closed   bool
}

// NewMemory constructs an empty in-memory backend holding the given segments.
func NewMemory(segments ...Segment) (*MemoryBackend, error) {
	known, err := validateSegments(segments)
	if err != nil {
		return nil, err
	}
	data := make(map[Segment]map[uint64][]byte, len(known))
	for seg := range known {
		data[seg] = map[uint64][]byte{}
	}
	return &MemoryBackend{known: known, segments: data}, nil
}

// View runs fn against a read-only snapshot.
func (b *MemoryBackend) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return fn(&memoryTx{backend: b, readOnly: true})
}

// Update runs fn with exclusive write access and commits its staged writes on success.
func (b *MemoryBackend) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	tx := &memoryTx{backend: b, staged: map[Segment]map[uint64]stagedValue{}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for seg, writes := range tx.staged {
		target := b.segments[seg]
		for key, w := range writes {
			if w.deleted {
				delete(target, key)
				continue
			}
			target[key] = w.value
		}
	}
	return nil
}

// Close releases the stored data.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.segments = nil
	return nil
}

type stagedValue struct {
	value   []byte
	deleted bool
}

type memoryTx struct {
	backend  *MemoryBackend
	readOnly bool
	staged   map[Segment]map[uint64]stagedValue
}

func (t *memoryTx) lookup(seg Segment, key uint64) ([]byte, bool) {
	if writes, ok := t.staged[seg]; ok {
		if w, ok := writes[key]; ok {
			if w.deleted {
				return nil, false
			}
			return w.value, true
		}
	}
	v, ok := t.backend.segments[seg][key]
	return v, ok
}

func (t *memoryTx) stage(seg Segment, key uint64, w stagedValue) {
	writes, ok := t.staged[seg]
	if !ok {
		writes = map[uint64]stagedValue{}
		t.staged[seg] = writes
	}
	writes[key] = w
}

func (t *memoryTx) Get(seg Segment, key uint64) ([]byte, bool, error) {
	if err := checkSegment(t.backend.known, seg); err != nil {
		return nil, false, err
	}
	v, ok := t.lookup(seg, key)
	return cloneBytes(v), ok, nil
}

func (t *memoryTx) Put(seg Segment, key uint64, value []byte) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, ErrReadOnly
	}
	if err := checkSegment(t.backend.known, seg); err != nil {
		return nil, false, err
	}
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	prev, existed := t.lookup(seg, key)
	t.stage(seg, key, stagedValue{value: cloneBytes(value)})
	return cloneBytes(prev), existed, nil
}

func (t *memoryTx) Delete(seg Segment, key uint64) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, ErrReadOnly
	}
	if err := checkSegment(t.backend.known, seg); err != nil {
		return nil, false, err
	}
	prev, existed := t.lookup(seg, key)
	if existed {
		t.stage(seg, key, stagedValue{deleted: true})
	}
	return cloneBytes(prev), existed, nil
}

func (t *memoryTx) Ascend(seg Segment, fn func(uint64, []byte) bool) error {
	if err := checkSegment(t.backend.known, seg); err != nil {
		return err
	}
	type entry struct {
		key   uint64
		value []byte
	}
	keys := t.keys(seg)
	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		if v, ok := t.lookup(seg, key); ok {
			entries = append(entries, entry{key: key, value: cloneBytes(v)})
		}
	}
	for _, e := range entries {
		if !fn(e.key, e.value) {
			return nil
		}
	}
	return nil
}

func (t *memoryTx) Len(seg Segment) (int, error) {
	if err := checkSegment(t.backend.known, seg); err != nil {
		return 0, err
	}
	n := 0
	for _, key := range t.keys(seg) {
		if _, ok := t.lookup(seg, key); ok {
			n++
		}
	}
	return n, nil
}

// keys returns the union of committed and staged keys in ascending order.
func (t *memoryTx) keys(seg Segment) []uint64 {
	base := t.backend.segments[seg]
	keys := make([]uint64, 0, len(base)+len(t.staged[seg]))
	for key := range base {
		keys = append(keys, key)
	}
	for key := range t.staged[seg] {
		if _, ok := base[key]; !ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}
