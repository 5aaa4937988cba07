// Package metrics wraps a SegmentPool's observable counters as Prometheus
// collectors. Wiring is optional: a pool functions identically whether or
// not its Collectors are registered with a prometheus.Registerer.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups the pool metrics a caller may register.
type Collectors struct {
	PooledBytes prometheus.GaugeFunc
	Allocations prometheus.Counter
	Hits        prometheus.Counter
	Drops       prometheus.Counter
}

// New builds a Collectors set. pooledBytes is sampled on every scrape.
func New(pooledBytes func() float64) *Collectors {
	return &Collectors{
		PooledBytes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "segbuf",
			Name:      "pooled_bytes",
			Help:      "Bytes currently held idle across the pool's global and per-P tiers.",
		}, pooledBytes),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "segbuf",
			Name:      "segments_allocated_total",
			Help:      "Fresh segment allocations that missed both pool tiers.",
		}),
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "segbuf",
			Name:      "pool_hits_total",
			Help:      "Take calls satisfied from the per-P cache or the global free list.",
		}),
		Drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "segbuf",
			Name:      "segments_dropped_total",
			Help:      "Recycle calls that abandoned a segment to the allocator (shared, or both tiers full).",
		}),
	}
}

// Collectors returns the individual collectors for registration, e.g.
// registry.MustRegister(c.Collectors()...).
func (c *Collectors) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.PooledBytes, c.Allocations, c.Hits, c.Drops}
}
