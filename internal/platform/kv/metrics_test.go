package kv

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_ReportsSegmentEntries(t *testing.T) {
	b, err := NewMemory(segAlpha, segBeta)
	require.NoError(t, err)
	require.NoError(t, b.Update(context.Background(), func(tx Tx) error {
		for key := uint64(1); key <= 3; key++ {
			if _, _, err := tx.Put(segAlpha, key, []byte("v")); err != nil {
				return err
			}
		}
		return nil
	}))

	collector := NewCollector("petfinder", b, segAlpha, segBeta)
	expected := `
# HELP petfinder_kv_segment_entries Number of entries stored in a key-value segment.
# TYPE petfinder_kv_segment_entries gauge
petfinder_kv_segment_entries{segment="alpha"} 3
petfinder_kv_segment_entries{segment="beta"} 0
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}
