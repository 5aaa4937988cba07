// segment.go: fixed-capacity byte block with cursors, sharing, and sibling links
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package segbuf

import "bytes"

// SegmentSize is the fixed capacity of every segment's backing block.
const SegmentSize = 8192

// ShareMinimum is the minimum split size at which Segment.split shares the
// underlying block instead of copying. Below this threshold a fresh copy is
// cheaper to hold than a long-lived shared fragment.
const ShareMinimum = 1024

// Segment is a fixed-size byte block with a read cursor (pos), a write
// cursor (limit), and sibling links for the doubly-linked chain a Buffer
// maintains. A freshly allocated segment owns its block and may extend
// limit; a shared copy may only advance pos.
//
// Invariant: 0 <= pos <= limit <= SegmentSize.
type Segment struct {
	data   []byte // len(data) == SegmentSize always
	pos    int
	limit  int
	shared bool
	owner  bool
	next   *Segment
	prev   *Segment
}

// size returns the number of currently readable bytes.
func (s *Segment) size() int {
	return s.limit - s.pos
}

// sharedCopy marks s shared and returns a new segment aliasing the same
// block with identical pos/limit. The original retains owner; the copy does
// not and may never acquire it.
func (s *Segment) sharedCopy() *Segment {
	s.shared = true
	return &Segment{
		data:   s.data,
		pos:    s.pos,
		limit:  s.limit,
		shared: true,
		owner:  false,
	}
}

// split divides the readable range into a prefix [pos, pos+n) and a suffix
// [pos+n, limit). The prefix is returned as a new segment; s retains the
// suffix. When n >= ShareMinimum the prefix aliases this segment's block
// (no bytes copied); otherwise n bytes are copied into a freshly taken pool
// segment.
func (s *Segment) split(pool *SegmentPool, n int) *Segment {
	if n <= 0 || n > s.size() {
		panic("segbuf: split size out of range")
	}

	if n >= ShareMinimum {
		prefix := s.sharedCopy()
		prefix.limit = prefix.pos + n
		s.pos += n
		return prefix
	}

	prefix := pool.Take()
	copy(prefix.data[:n], s.data[s.pos:s.pos+n])
	prefix.limit = n
	s.pos += n
	return prefix
}

// shiftToZero slides the readable range down to offset 0, reclaiming the
// space already consumed at the front of the block. No-op on a shared
// segment's view since that would mutate bytes another reader may hold; it
// is therefore only called on owner, non-shared segments.
func (s *Segment) shiftToZero() {
	if s.pos == 0 || s.shared {
		return
	}
	n := copy(s.data[0:s.size()], s.data[s.pos:s.limit])
	s.pos = 0
	s.limit = n
}

// compactRoom returns the free bytes available at the end of s, counting
// bytes reclaimable at the front when s is not shared (shiftToZero could
// recover them).
func compactRoom(s *Segment) int {
	room := SegmentSize - s.limit
	if !s.shared {
		room += s.pos
	}
	return room
}

// canCompact reports whether cur may be absorbed into prev in place.
func canCompact(prev, cur *Segment) bool {
	return prev.owner && !prev.shared && compactRoom(prev) >= cur.size()
}

// absorb copies cur's readable bytes onto the end of prev, shifting prev to
// zero first if that is needed to make room. Caller must have checked
// canCompact and is responsible for unlinking/recycling cur afterward.
func absorb(prev, cur *Segment) {
	if compactRoom(prev) < cur.size() {
		panic("segbuf: absorb without room")
	}
	if SegmentSize-prev.limit < cur.size() {
		prev.shiftToZero()
	}
	n := copy(prev.data[prev.limit:], cur.data[cur.pos:cur.limit])
	prev.limit += n
}

// writeTo copies n bytes from s's readable range onto the end of sink's
// block, shifting sink to zero first if needed. sink must be the owner of
// its block and not shared. Both cursors advance by n.
func (s *Segment) writeTo(sink *Segment, n int) error {
	if !sink.owner || sink.shared {
		return &SharingError{Op: "writeTo"}
	}
	if n < 0 || n > s.size() {
		return &BoundsError{Op: "writeTo", Requested: int64(n), Available: int64(s.size())}
	}
	if SegmentSize-sink.limit < n {
		sink.shiftToZero()
	}
	if SegmentSize-sink.limit < n {
		return &BoundsError{Op: "writeTo", Requested: int64(n), Available: int64(SegmentSize - sink.limit)}
	}
	copy(sink.data[sink.limit:sink.limit+n], s.data[s.pos:s.pos+n])
	sink.limit += n
	s.pos += n
	return nil
}

// writableRoom reports how many more bytes may be appended without
// allocating a new segment.
func (s *Segment) writableRoom() int {
	return SegmentSize - s.limit
}

func (s *Segment) requireWritable(op string, k int) error {
	if !s.owner || s.shared {
		return &SharingError{Op: op}
	}
	if s.writableRoom() < k {
		return &BoundsError{Op: op, Requested: int64(k), Available: int64(s.writableRoom())}
	}
	return nil
}

func (s *Segment) writeByte(b byte) error {
	if err := s.requireWritable("writeByte", 1); err != nil {
		return err
	}
	s.data[s.limit] = b
	s.limit++
	return nil
}

func (s *Segment) writeShort(v int16) error {
	if err := s.requireWritable("writeShort", 2); err != nil {
		return err
	}
	s.data[s.limit] = byte(v >> 8)
	s.data[s.limit+1] = byte(v)
	s.limit += 2
	return nil
}

func (s *Segment) writeInt(v int32) error {
	if err := s.requireWritable("writeInt", 4); err != nil {
		return err
	}
	s.data[s.limit] = byte(v >> 24)
	s.data[s.limit+1] = byte(v >> 16)
	s.data[s.limit+2] = byte(v >> 8)
	s.data[s.limit+3] = byte(v)
	s.limit += 4
	return nil
}

func (s *Segment) writeLong(v int64) error {
	if err := s.requireWritable("writeLong", 8); err != nil {
		return err
	}
	for i := 0; i < 8; i++ {
		s.data[s.limit+i] = byte(v >> uint(56-8*i))
	}
	s.limit += 8
	return nil
}

func (s *Segment) requireReadable(op string, k int) error {
	if s.size() < k {
		return &BoundsError{Op: op, Requested: int64(k), Available: int64(s.size())}
	}
	return nil
}

func (s *Segment) readByte() (byte, error) {
	if err := s.requireReadable("readByte", 1); err != nil {
		return 0, err
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *Segment) readShort() (int16, error) {
	if err := s.requireReadable("readShort", 2); err != nil {
		return 0, err
	}
	v := int16(s.data[s.pos])<<8 | int16(s.data[s.pos+1])
	s.pos += 2
	return v, nil
}

func (s *Segment) readInt() (int32, error) {
	if err := s.requireReadable("readInt", 4); err != nil {
		return 0, err
	}
	v := int32(s.data[s.pos])<<24 | int32(s.data[s.pos+1])<<16 | int32(s.data[s.pos+2])<<8 | int32(s.data[s.pos+3])
	s.pos += 4
	return v, nil
}

func (s *Segment) readLong() (int64, error) {
	if err := s.requireReadable("readLong", 8); err != nil {
		return 0, err
	}
	var v int64
	for i := 0; i < 8; i++ {
		v = v<<8 | int64(s.data[s.pos+i])
	}
	s.pos += 8
	return v, nil
}

// indexOf returns the relative offset of the first occurrence of b within
// [pos+startOffset, pos+endOffset), or -1.
func (s *Segment) indexOf(b byte, startOffset, endOffset int) int {
	i := bytes.IndexByte(s.data[s.pos+startOffset:s.pos+endOffset], b)
	if i < 0 {
		return -1
	}
	return startOffset + i
}

// indexOfBytesInbound searches for pattern entirely inside this segment's
// readable range, starting at relative offset startOffset. Returns -1 if
// the pattern does not fit or does not match within the segment.
func (s *Segment) indexOfBytesInbound(pattern []byte, startOffset int) int {
	n, m := s.size(), len(pattern)
	if startOffset < 0 || startOffset+m > n {
		return -1
	}
	i := bytes.Index(s.data[s.pos+startOffset:s.pos+n], pattern)
	if i < 0 {
		return -1
	}
	return startOffset + i
}

// indexOfBytesOutbound searches for pattern starting within this segment's
// readable range, allowed to straddle into successor segments via next. It
// does not wrap and terminates once the candidate start exceeds this
// segment's range. Returns the relative offset (within this segment) of a
// match's first byte, or -1.
func (s *Segment) indexOfBytesOutbound(pattern []byte, startOffset int) int {
	n := s.size()
	if len(pattern) == 0 {
		return startOffset
	}
	for i := startOffset; i < n; i++ {
		if s.matchFrom(i, pattern) {
			return i
		}
	}
	return -1
}

// matchFrom reports whether pattern matches starting at relative offset i
// within s, following next across segment boundaries.
func (s *Segment) matchFrom(i int, pattern []byte) bool {
	seg := s
	at := seg.pos + i
	for _, want := range pattern {
		for at == seg.limit {
			seg = seg.next
			if seg == nil {
				return false
			}
			at = seg.pos
		}
		if seg.data[at] != want {
			return false
		}
		at++
	}
	return true
}
