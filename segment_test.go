// segment_test.go: unit tests for Segment's cursor, sharing, and search operations
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package segbuf

import "testing"

func freshSegment() *Segment {
	return &Segment{data: make([]byte, SegmentSize), owner: true}
}

func TestSegmentWriteReadRoundTrip(t *testing.T) {
	s := freshSegment()

	if err := s.writeByte(0x7f); err != nil {
		t.Fatalf("writeByte: %v", err)
	}
	if err := s.writeShort(-1); err != nil {
		t.Fatalf("writeShort: %v", err)
	}
	if err := s.writeInt(123456789); err != nil {
		t.Fatalf("writeInt: %v", err)
	}
	if err := s.writeLong(-9_000_000_000); err != nil {
		t.Fatalf("writeLong: %v", err)
	}

	if b, err := s.readByte(); err != nil || b != 0x7f {
		t.Fatalf("readByte = %v, %v; want 0x7f, nil", b, err)
	}
	if v, err := s.readShort(); err != nil || v != -1 {
		t.Fatalf("readShort = %v, %v; want -1, nil", v, err)
	}
	if v, err := s.readInt(); err != nil || v != 123456789 {
		t.Fatalf("readInt = %v, %v; want 123456789, nil", v, err)
	}
	if v, err := s.readLong(); err != nil || v != -9_000_000_000 {
		t.Fatalf("readLong = %v, %v; want -9000000000, nil", v, err)
	}
	if s.size() != 0 {
		t.Fatalf("size after full read = %d, want 0", s.size())
	}
}

func TestSegmentRequireReadableBounds(t *testing.T) {
	s := freshSegment()
	s.writeByte(1)

	if _, err := s.readShort(); err == nil {
		t.Fatal("readShort on a 1-byte segment should fail")
	}
}

func TestSegmentRequireWritableOnShared(t *testing.T) {
	s := freshSegment()
	s.writeByte(1)
	sc := s.sharedCopy()

	err := sc.writeByte(2)
	if err == nil {
		t.Fatal("writeByte on a shared segment should fail")
	}
	if _, ok := err.(*SharingError); !ok {
		t.Fatalf("writeByte error type = %T, want *SharingError", err)
	}
}

func TestSegmentSplitSharesAboveThreshold(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	s := freshSegment()
	payload := make([]byte, 2000)
	copy(s.data, payload)
	s.limit = len(payload)

	prefix := s.split(pool, 1500)

	if !s.shared {
		t.Fatal("splitting >= ShareMinimum should mark the source shared")
	}
	if &prefix.data[0] != &s.data[0] {
		t.Fatal("split >= ShareMinimum should alias the same backing array")
	}
	if prefix.size() != 1500 {
		t.Fatalf("prefix size = %d, want 1500", prefix.size())
	}
	if s.size() != 500 {
		t.Fatalf("suffix size = %d, want 500", s.size())
	}
}

func TestSegmentSplitCopiesBelowThreshold(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	s := freshSegment()
	s.limit = 2000

	prefix := s.split(pool, 500)

	if s.shared {
		t.Fatal("splitting < ShareMinimum should not mark the source shared")
	}
	if &prefix.data[0] == &s.data[0] {
		t.Fatal("split < ShareMinimum should copy into a distinct backing array")
	}
	if prefix.size() != 500 {
		t.Fatalf("prefix size = %d, want 500", prefix.size())
	}
	if s.size() != 1500 {
		t.Fatalf("suffix size = %d, want 1500", s.size())
	}
}

func TestCanCompactRespectsRoom(t *testing.T) {
	prev := freshSegment()
	prev.limit = SegmentSize - 10

	cur := freshSegment()
	cur.limit = 20

	if canCompact(prev, cur) {
		t.Fatal("canCompact should be false when neither trailing nor shiftable room suffices")
	}

	prev.pos = 15
	if !canCompact(prev, cur) {
		t.Fatal("canCompact should account for shiftToZero-reclaimable room on a non-shared segment")
	}
}

func TestIndexOfBytesOutboundStraddles(t *testing.T) {
	a := freshSegment()
	copy(a.data, []byte("hello wo"))
	a.limit = 8

	b := freshSegment()
	copy(b.data, []byte("rld"))
	b.limit = 3
	a.next = b

	if i := a.indexOfBytesOutbound([]byte("world"), 0); i != 6 {
		t.Fatalf("indexOfBytesOutbound = %d, want 6", i)
	}
	if i := a.indexOfBytesInbound([]byte("world"), 0); i != -1 {
		t.Fatalf("indexOfBytesInbound should not find a pattern crossing the boundary, got %d", i)
	}
}

func TestIndexOfBytesInboundWithinOneSegment(t *testing.T) {
	s := freshSegment()
	copy(s.data, []byte("the quick brown fox"))
	s.limit = len("the quick brown fox")

	if i := s.indexOfBytesInbound([]byte("brown"), 0); i != 10 {
		t.Fatalf("indexOfBytesInbound = %d, want 10", i)
	}
	if i := s.indexOfBytesInbound([]byte("missing"), 0); i != -1 {
		t.Fatalf("indexOfBytesInbound = %d, want -1", i)
	}
}
