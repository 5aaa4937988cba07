// buffer.go: doubly-linked chain of segments forming a single-owner FIFO byte queue
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package segbuf

// Buffer is a FIFO byte queue backed by a chain of pooled segments. It is
// not safe for concurrent mutation: a Buffer has exactly one owner at a
// time, though ownership may be handed off across goroutines given an
// external happens-before edge.
type Buffer struct {
	pool *SegmentPool
	head *Segment
	tail *Segment
	size int64
}

// NewBuffer returns an empty buffer drawing segments from pool.
func NewBuffer(pool *SegmentPool) *Buffer {
	return &Buffer{pool: pool}
}

// Size returns the total number of currently readable bytes.
func (b *Buffer) Size() int64 {
	return b.size
}

// appendSegment links seg as the new tail.
func (b *Buffer) appendSegment(seg *Segment) {
	seg.prev = b.tail
	seg.next = nil
	if b.tail == nil {
		b.head = seg
	} else {
		b.tail.next = seg
	}
	b.tail = seg
}

// popHead unlinks b's current head (which must be seg) and recycles it if
// it is not shared.
func (b *Buffer) popHead(seg *Segment) {
	b.head = seg.next
	if b.head == nil {
		b.tail = nil
	} else {
		b.head.prev = nil
	}
	seg.next = nil
	seg.prev = nil
	b.pool.Recycle(seg)
}

// ensureWritableTail returns a tail segment with at least minCapacity free
// bytes, allocating a fresh one from the pool if the current tail is nil,
// shared, not owned, or too full.
func (b *Buffer) ensureWritableTail(minCapacity int) *Segment {
	if b.tail == nil || b.tail.shared || !b.tail.owner || b.tail.writableRoom() < minCapacity {
		seg := b.pool.Take()
		b.appendSegment(seg)
	}
	return b.tail
}

// Write appends all of p to the buffer, spanning as many segments as
// needed.
func (b *Buffer) Write(p []byte) (int, error) {
	remaining := p
	for len(remaining) > 0 {
		tail := b.ensureWritableTail(1)
		n := tail.writableRoom()
		if n > len(remaining) {
			n = len(remaining)
		}
		copy(tail.data[tail.limit:tail.limit+n], remaining[:n])
		tail.limit += n
		b.size += int64(n)
		remaining = remaining[n:]
	}
	return len(p), nil
}

// WriteByte appends a single byte. Primitives never straddle a segment
// boundary: if the tail lacks room for the whole value, a fresh segment is
// taken instead of splitting the write.
func (b *Buffer) WriteByte(v byte) error {
	tail := b.ensureWritableTail(1)
	if err := tail.writeByte(v); err != nil {
		return err
	}
	b.size++
	return nil
}

// WriteShort appends a big-endian int16.
func (b *Buffer) WriteShort(v int16) error {
	tail := b.ensureWritableTail(2)
	if err := tail.writeShort(v); err != nil {
		return err
	}
	b.size += 2
	return nil
}

// WriteInt appends a big-endian int32.
func (b *Buffer) WriteInt(v int32) error {
	tail := b.ensureWritableTail(4)
	if err := tail.writeInt(v); err != nil {
		return err
	}
	b.size += 4
	return nil
}

// WriteLong appends a big-endian int64.
func (b *Buffer) WriteLong(v int64) error {
	tail := b.ensureWritableTail(8)
	if err := tail.writeLong(v); err != nil {
		return err
	}
	b.size += 8
	return nil
}

// readFully fills dst completely from the head of the buffer, recycling
// any segment it exhausts along the way. Fails without consuming anything
// if the buffer does not hold len(dst) bytes.
func (b *Buffer) readFully(dst []byte) error {
	need := len(dst)
	if int64(need) > b.size {
		return &BoundsError{Op: "read", Requested: int64(need), Available: b.size}
	}

	off := 0
	for off < need {
		seg := b.head
		n := seg.size()
		if n > need-off {
			n = need - off
		}
		copy(dst[off:off+n], seg.data[seg.pos:seg.pos+n])
		seg.pos += n
		off += n
		b.size -= int64(n)
		if seg.pos == seg.limit {
			b.popHead(seg)
		}
	}
	return nil
}

// ReadTo fills dst completely from the buffer's head.
func (b *Buffer) ReadTo(dst []byte) error {
	return b.readFully(dst)
}

// ReadByte consumes and returns a single byte.
func (b *Buffer) ReadByte() (byte, error) {
	var buf [1]byte
	if err := b.readFully(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadShort consumes a big-endian int16.
func (b *Buffer) ReadShort() (int16, error) {
	var buf [2]byte
	if err := b.readFully(buf[:]); err != nil {
		return 0, err
	}
	return int16(buf[0])<<8 | int16(buf[1]), nil
}

// ReadInt consumes a big-endian int32.
func (b *Buffer) ReadInt() (int32, error) {
	var buf [4]byte
	if err := b.readFully(buf[:]); err != nil {
		return 0, err
	}
	return int32(buf[0])<<24 | int32(buf[1])<<16 | int32(buf[2])<<8 | int32(buf[3]), nil
}

// ReadLong consumes a big-endian int64.
func (b *Buffer) ReadLong() (int64, error) {
	var buf [8]byte
	if err := b.readFully(buf[:]); err != nil {
		return 0, err
	}
	var v int64
	for _, x := range buf {
		v = v<<8 | int64(x)
	}
	return v, nil
}

// Skip advances the read cursor by n bytes without returning them,
// recycling any segment it exhausts. Fails without consuming anything if
// n exceeds Size.
func (b *Buffer) Skip(n int64) error {
	if n < 0 || n > b.size {
		return &BoundsError{Op: "skip", Requested: n, Available: b.size}
	}
	for n > 0 {
		seg := b.head
		take := int64(seg.size())
		if take > n {
			take = n
		}
		seg.pos += int(take)
		b.size -= take
		n -= take
		if seg.pos == seg.limit {
			b.popHead(seg)
		}
	}
	return nil
}

// Clear discards all readable bytes, recycling every segment.
func (b *Buffer) Clear() {
	for b.head != nil {
		b.popHead(b.head)
	}
	b.size = 0
}

// tryAbsorb attempts tail-absorb compaction of s into b's tail, returning
// true if it succeeded. This is tried before splicing a whole source
// segment so a sink that drains in small pieces doesn't accumulate a long
// chain of short segments.
func (b *Buffer) tryAbsorb(s *Segment) bool {
	if b.tail == nil || !canCompact(b.tail, s) {
		return false
	}
	absorb(b.tail, s)
	return true
}

// TransferFrom moves n bytes from the head of src into b, preferring
// pointer splicing over copying. Whole segments are relinked directly
// (after a tail-absorb compaction attempt); a final partial segment is
// split using Segment.split's share/copy policy. Fails without mutating
// either buffer if n exceeds src.Size.
func (b *Buffer) TransferFrom(src *Buffer, n int64) error {
	if n < 0 || n > src.size {
		return &BoundsError{Op: "transferFrom", Requested: n, Available: src.size}
	}

	for n > 0 {
		s := src.head
		sSize := int64(s.size())

		if n >= sSize {
			if b.tryAbsorb(s) {
				src.popHead(s)
			} else {
				src.head = s.next
				if src.head == nil {
					src.tail = nil
				} else {
					src.head.prev = nil
				}
				s.next = nil
				s.prev = nil
				b.appendSegment(s)
			}
			src.size -= sSize
			b.size += sSize
			n -= sSize
			continue
		}

		prefix := s.split(b.pool, int(n))
		src.size -= n
		b.appendSegment(prefix)
		b.size += n
		n = 0
	}
	return nil
}

// Peek returns a new Buffer sharing every segment of b's current readable
// range: reading from the result does not consume b, and writes to the
// result never touch the shared bytes, because every segment it holds is
// shared and an append therefore goes to a freshly taken segment. Taking
// this snapshot marks each of b's current segments
// shared, so b's own subsequent appends allocate a fresh tail instead of
// silently extending bytes the snapshot pinned.
func (b *Buffer) Peek() *Buffer {
	cp := &Buffer{pool: b.pool}
	for s := b.head; s != nil; s = s.next {
		sc := s.sharedCopy()
		cp.appendSegment(sc)
		cp.size += int64(sc.size())
	}
	return cp
}

// WithContainedTail obtains a tail segment with at least minCapacity free
// bytes and passes its writable window to fill, which must return the
// number of bytes it actually wrote (0 <= n <= len(window)). The buffer
// commits exactly that many bytes. Used to bridge to external readers that
// fill a raw byte slice directly.
func (b *Buffer) WithContainedTail(minCapacity int, fill func(window []byte) (int, error)) (int, error) {
	seg := b.ensureWritableTail(minCapacity)
	window := seg.data[seg.limit:SegmentSize]
	n, err := fill(window)
	if n < 0 || n > len(window) {
		return 0, &BoundsError{Op: "withContainedTail", Requested: int64(n), Available: int64(len(window))}
	}
	seg.limit += n
	b.size += int64(n)
	return n, err
}

// IndexOfByte returns the absolute offset of the first occurrence of c in
// the buffer's readable range, or -1.
func (b *Buffer) IndexOfByte(c byte) int64 {
	var off int64
	for seg := b.head; seg != nil; seg = seg.next {
		n := seg.size()
		if rel := seg.indexOf(c, 0, n); rel >= 0 {
			return off + int64(rel)
		}
		off += int64(n)
	}
	return -1
}

// IndexOfBytes returns the absolute offset of the first occurrence of
// pattern in the buffer's readable range, or -1. The search is a naive scan
// that may straddle segment boundaries via Segment.indexOfBytesOutbound.
func (b *Buffer) IndexOfBytes(pattern []byte) int64 {
	if len(pattern) == 0 {
		return 0
	}
	var off int64
	for seg := b.head; seg != nil; seg = seg.next {
		n := seg.size()
		if rel := seg.indexOfBytesOutbound(pattern, 0); rel >= 0 {
			return off + int64(rel)
		}
		off += int64(n)
	}
	return -1
}
