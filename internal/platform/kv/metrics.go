package kv

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*Collector)(nil)

// Collector exports the number of entries held by each segment.
type Collector struct {
	backend  Backend
	segments []Segment
	timeout  time.Duration
	entries  *prometheus.Desc
}

// NewCollector builds a collector reading segment sizes from backend on every scrape.
func NewCollector(namespace string, backend Backend, segments ...Segment) *Collector {
	return &Collector{
		backend:  backend,
		segments: append([]Segment(nil), segments...),
		timeout:  2 * time.Second,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "kv", "segment_entries"),
			"Number of entries stored in a key-value segment.",
			[]string{"segment"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	err := c.backend.View(ctx, func(tx Tx) error {
		for _, seg := range c.segments {
			n, err := tx.Len(seg)
			if err != nil {
				return err
			}
			ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(n), string(seg))
		}
		return nil
	})
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.entries, err)
	}
}
