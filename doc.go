// Package segbuf provides a segmented, pooled, zero-copy byte buffer: the
// shared data structure behind streaming sources and sinks.
//
// segbuf is the core fragment underneath higher-level facades (synchronous
// and asynchronous readers/writers, line and number decoders) that this
// package does not implement. It owns four things: the fixed-capacity
// Segment, the concurrent SegmentPool that recycles them, the Buffer FIFO
// chain that links them, and the immutable ByteString snapshot that shares
// them.
//
// # Quick Start
//
//	pool := segbuf.NewSegmentPool(segbuf.DefaultPoolConfig())
//	buf := segbuf.NewBuffer(pool)
//
//	buf.Write([]byte("hello "))
//	buf.WriteInt(42)
//
//	b, _ := buf.ReadByte()
//	n, _ := buf.ReadInt()
//
// # Zero-copy transfer
//
// Moving bytes between buffers prefers relinking segments over copying:
//
//	sink := segbuf.NewBuffer(pool)
//	sink.TransferFrom(buf, buf.Size())
//
// A transfer splices whole segments directly onto the destination's tail,
// attempting a tail-absorb compaction first so a sink drained in small
// pieces doesn't accumulate a long chain of short segments; only the
// trailing partial segment of a transfer is ever split, using
// Segment.split's share-or-copy threshold (ShareMinimum).
//
// # Snapshots
//
// Buffer.Peek returns an independent Buffer sharing the same underlying
// blocks (appends to it go to fresh segments, never into the shared bytes),
// and Buffer.Snapshot returns an immutable ByteString over a prefix of the
// buffer's bytes. Peek marks every segment of the buffer shared; Snapshot
// marks the segments it covers shared when the prefix is at least
// ShareMinimum bytes, and copies shorter prefixes without marking anything.
// A shared tail makes subsequent writes to the original buffer allocate a
// fresh segment rather than silently extending bytes the snapshot pinned.
//
// # Concurrency
//
// A Buffer is single-owner: it is not safe for concurrent mutation, though
// ownership may be handed off across goroutines given external
// synchronization. SegmentPool is the one data structure in this package
// safe for concurrent use from independent buffer owners.
//
// # Pool diagnostics
//
// SegmentPool.Stats returns a point-in-time snapshot of pool counters for
// ad-hoc inspection; SegmentPool.Metrics wraps the same counters as
// Prometheus collectors for a host process that wants to register and
// scrape them.
package segbuf
