// bytestring.go: immutable shared projection over a buffer's bytes
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package segbuf

import "github.com/cespare/xxhash/v2"

// ByteString is an immutable view over a contiguous run of bytes taken from
// a Buffer. Short snapshots are flattened into one freshly allocated slice;
// longer ones take shared copies of the covering segments so no bytes are
// copied. A shared snapshot pins the underlying blocks: the source buffer's
// covered segments remain marked shared until the snapshot's references are
// dropped and the host allocator reclaims them. A flattened snapshot holds
// no segment and marks nothing shared.
type ByteString struct {
	flat   []byte
	segs   []*Segment
	length int64
}

// Len returns the number of bytes the snapshot covers.
func (bs *ByteString) Len() int64 {
	return bs.length
}

// Snapshot takes an immutable view of the first length bytes of b's
// current readable range, without consuming them. Ranges shorter than
// ShareMinimum are flattened into a single owned allocation; longer ranges
// share the covering segments (sub-sliced to exactly the requested range)
// and mark them shared in b's own chain, per the buffer's snapshot
// contract.
func (b *Buffer) Snapshot(length int64) (*ByteString, error) {
	if length < 0 || length > b.size {
		return nil, &BoundsError{Op: "snapshot", Requested: length, Available: b.size}
	}
	if length == 0 {
		return &ByteString{}, nil
	}

	if length < ShareMinimum {
		buf := make([]byte, length)
		off := int64(0)
		for seg := b.head; off < length; seg = seg.next {
			n := int64(seg.size())
			if off+n > length {
				n = length - off
			}
			copy(buf[off:off+n], seg.data[seg.pos:seg.pos+int(n)])
			off += n
		}
		return &ByteString{flat: buf, length: length}, nil
	}

	var segs []*Segment
	remaining := length
	seg := b.head
	localPos := seg.pos
	for remaining > 0 {
		avail := int64(seg.limit - localPos)
		take := avail
		if take > remaining {
			take = remaining
		}
		sc := seg.sharedCopy()
		sc.pos = localPos
		sc.limit = localPos + int(take)
		segs = append(segs, sc)
		remaining -= take
		seg = seg.next
		if seg != nil {
			localPos = seg.pos
		}
	}
	return &ByteString{segs: segs, length: length}, nil
}

// Bytes materializes the snapshot into a single newly allocated slice.
func (bs *ByteString) Bytes() []byte {
	if bs.flat != nil {
		out := make([]byte, len(bs.flat))
		copy(out, bs.flat)
		return out
	}
	out := make([]byte, bs.length)
	off := 0
	for _, seg := range bs.segs {
		off += copy(out[off:], seg.data[seg.pos:seg.limit])
	}
	return out
}

// Fingerprint computes a 64-bit xxhash digest of the snapshot's bytes,
// streaming across segments rather than flattening first.
func (bs *ByteString) Fingerprint() uint64 {
	if bs.flat != nil {
		return xxhash.Sum64(bs.flat)
	}
	d := xxhash.New()
	for _, seg := range bs.segs {
		d.Write(seg.data[seg.pos:seg.limit])
	}
	return d.Sum64()
}

// Release drops the snapshot's references to its segments. Shared blocks
// are never returned to the pool (SegmentPool.Recycle drops them), so the
// host allocator reclaims the underlying block once every other reference
// — including the source buffer's, if it too has moved on — is gone. A
// ByteString must not be used after Release.
func (bs *ByteString) Release() {
	bs.segs = nil
	bs.flat = nil
}
