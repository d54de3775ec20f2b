// Package kv provides a segmented, transactional key-value store keyed by
// unsigned 64-bit integers. Each segment is an independent keyspace; values
// are opaque byte slices that typed wrappers (Map, Counter) encode and decode.
package kv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
)

// MaxKey is the largest key every backend can store. SQL backends persist
// keys in signed BIGINT columns.
const MaxKey uint64 = math.MaxInt64

var (
	ErrUnknownSegment   = errors.New("kvstore: unknown segment")
	ErrInvalidSegment   = errors.New("kvstore: invalid segment name")
	ErrKeyOutOfRange    = errors.New("kvstore: key exceeds supported range")
	ErrReadOnly         = errors.New("kvstore: write attempted in read-only transaction")
	ErrClosed           = errors.New("kvstore: backend closed")
	ErrCorruptRecord    = errors.New("kvstore: corrupt record")
	ErrValueTooLarge    = errors.New("kvstore: encoded value exceeds segment bound")
	ErrCounterPersist   = errors.New("kvstore: counter could not be persisted")
	ErrCounterExhausted = errors.New("kvstore: counter exhausted")
)

var segmentPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,47}$`)

// Segment names an independent keyspace inside a backend.
type Segment string

// Validate reports whether the segment name can be used as a storage table suffix.
func (s Segment) Validate() error {
	if !segmentPattern.MatchString(string(s)) {
		return fmt.Errorf("%w: %q", ErrInvalidSegment, string(s))
	}
	return nil
}

func (s Segment) table() string {
	return "kv_" + string(s)
}

// Tx is a view of every segment of a backend inside one transaction.
// Byte slices passed in or returned are never retained or shared.
type Tx interface {
	// Get returns the value stored under key and whether it existed.
	Get(seg Segment, key uint64) ([]byte, bool, error)
	// Put stores value under key and returns the value it replaced, if any.
	Put(seg Segment, key uint64, value []byte) ([]byte, bool, error)
	// Delete removes key and returns the value it held, if any.
	Delete(seg Segment, key uint64) ([]byte, bool, error)
	// Ascend calls fn for every entry in ascending key order until fn returns false.
	// The entries are those present when Ascend was called; fn may use the transaction.
	Ascend(seg Segment, fn func(key uint64, value []byte) bool) error
	// Len returns the number of entries in the segment.
	Len(seg Segment) (int, error)
}

// Backend is a durable (or, for tests, in-memory) home for a fixed set of segments.
// Update transactions are serialized; View transactions may run concurrently.
// All writes made by a successful Update become visible together; a failed
// Update leaves no trace.
type Backend interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

func validateSegments(segments []Segment) (map[Segment]struct{}, error) {
	known := make(map[Segment]struct{}, len(segments))
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, err
		}
		known[seg] = struct{}{}
	}
	return known, nil
}

func checkSegment(known map[Segment]struct{}, seg Segment) error {
	if _, ok := known[seg]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSegment, string(seg))
	}
	return nil
}

func checkKey(key uint64) error {
	if key > MaxKey {
		return fmt.Errorf("%w: %d", ErrKeyOutOfRange, key)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
