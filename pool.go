// pool.go: two-level segment pool, the only cross-goroutine-shared state in the core
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package segbuf

import (
	"sync"
	"sync/atomic"

	"github.com/agilira/segbuf/metrics"
)

// SegmentPool is a free-list of recyclable segments shared across buffer
// owners. It tolerates concurrent Take/Recycle from independent goroutines
// and never blocks.
//
// Two levels, per the spec: a per-P fast cache (Go's sync.Pool already is
// exactly "a second-level cache keyed by calling scheduler identity" - no
// userspace code can address a P directly, so the runtime's own per-P pool
// is the idiomatic stand-in), and a capacity-bounded global free list
// beneath it, modeled on SafeBufferPool's channel-backed design.
type SegmentPool struct {
	global chan *Segment

	local sync.Pool

	globalMaxBytes    int64
	perThreadMaxBytes int64

	pooledGlobalBytes int64 // atomic, exact
	pooledLocalBytes  int64 // atomic, best-effort (sync.Pool may reclaim silently)

	allocated uint64 // atomic
	hits      uint64 // atomic
	drops     uint64 // atomic

	metrics *metrics.Collectors
}

// NewSegmentPool builds a pool sized by cfg.
func NewSegmentPool(cfg PoolConfig) *SegmentPool {
	globalMaxBytes, perThreadMaxBytes, err := cfg.resolve()
	if err != nil {
		// Fall back to the documented defaults rather than propagating a
		// config error through every caller that only wants NewSegmentPool().
		globalMaxBytes, perThreadMaxBytes, _ = DefaultPoolConfig().resolve()
	}

	capacity := int(globalMaxBytes / SegmentSize)
	if capacity < 1 {
		capacity = 1
	}

	p := &SegmentPool{
		global:            make(chan *Segment, capacity),
		globalMaxBytes:    globalMaxBytes,
		perThreadMaxBytes: perThreadMaxBytes,
	}
	p.local.New = func() any { return nil }
	return p
}

// Metrics lazily builds and returns the pool's Prometheus collectors. The
// caller is responsible for registering them; the pool works the same
// whether or not they ever are.
func (p *SegmentPool) Metrics() *metrics.Collectors {
	if p.metrics == nil {
		p.metrics = metrics.New(func() float64 { return float64(p.PooledBytes()) })
	}
	return p.metrics
}

// Take returns a fresh, unshared, owner segment: pos = limit = 0, a clean
// SegmentSize block, next/prev nil. It never blocks.
func (p *SegmentPool) Take() *Segment {
	if v := p.local.Get(); v != nil {
		atomic.AddInt64(&p.pooledLocalBytes, -SegmentSize)
		p.recordHit()
		return v.(*Segment)
	}

	select {
	case seg := <-p.global:
		atomic.AddInt64(&p.pooledGlobalBytes, -SegmentSize)
		p.recordHit()
		return seg
	default:
	}

	atomic.AddUint64(&p.allocated, 1)
	if p.metrics != nil {
		p.metrics.Allocations.Inc()
	}
	return &Segment{data: make([]byte, SegmentSize), owner: true}
}

// Recycle returns seg to the pool. Segments with shared == true are
// silently dropped: a shared block must never be reused while another
// reader may still observe it. Cursors and links are reset before the
// segment is offered to either tier; local is tried first, overflow spills
// to global, further overflow is abandoned to the allocator.
func (p *SegmentPool) Recycle(seg *Segment) {
	if seg.shared {
		p.recordDrop()
		return
	}

	seg.pos = 0
	seg.limit = 0
	seg.owner = true
	seg.next = nil
	seg.prev = nil

	if atomic.LoadInt64(&p.pooledLocalBytes) < p.perThreadMaxBytes {
		p.local.Put(seg)
		atomic.AddInt64(&p.pooledLocalBytes, SegmentSize)
		return
	}

	select {
	case p.global <- seg:
		atomic.AddInt64(&p.pooledGlobalBytes, SegmentSize)
	default:
		p.recordDrop()
	}
}

func (p *SegmentPool) recordHit() {
	atomic.AddUint64(&p.hits, 1)
	if p.metrics != nil {
		p.metrics.Hits.Inc()
	}
}

func (p *SegmentPool) recordDrop() {
	atomic.AddUint64(&p.drops, 1)
	if p.metrics != nil {
		p.metrics.Drops.Inc()
	}
}

// PooledBytes reports the bytes currently held idle across both tiers. The
// global component is exact; the local (per-P) component is a best-effort
// estimate since sync.Pool may reclaim entries between GC cycles without
// notice, consistent with the spec's allowance that shared-tier reclamation
// may rely on the host allocator.
func (p *SegmentPool) PooledBytes() int64 {
	return atomic.LoadInt64(&p.pooledGlobalBytes) + atomic.LoadInt64(&p.pooledLocalBytes)
}

// Stats is a point-in-time snapshot of pool counters, useful for the
// segbufctl diagnostic CLI.
type Stats struct {
	PooledBytes int64
	Allocated   uint64
	Hits        uint64
	Drops       uint64
}

// Stats returns a snapshot of the pool's counters.
func (p *SegmentPool) Stats() Stats {
	return Stats{
		PooledBytes: p.PooledBytes(),
		Allocated:   atomic.LoadUint64(&p.allocated),
		Hits:        atomic.LoadUint64(&p.hits),
		Drops:       atomic.LoadUint64(&p.drops),
	}
}
