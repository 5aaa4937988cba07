// bytestring_test.go: unit tests for ByteString snapshot semantics
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package segbuf

import (
	"bytes"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestSnapshotFlattensShortRanges(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	buf.Write([]byte("hello world"))

	snap, err := buf.Snapshot(11)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.flat == nil {
		t.Fatal("short snapshot should flatten into owned bytes")
	}
	if got := snap.Bytes(); !bytes.Equal(got, []byte("hello world")) {
		t.Fatalf("Bytes() = %q", got)
	}
}

func TestSnapshotSharesLongRanges(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	payload := bytes.Repeat([]byte{0x5a}, 4000)
	buf.Write(payload)

	snap, err := buf.Snapshot(int64(len(payload)))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.segs == nil {
		t.Fatal("long snapshot should share covering segments, not flatten")
	}
	if !buf.head.shared {
		t.Fatal("taking a long snapshot should mark the buffer's head segment shared")
	}
	if got := snap.Bytes(); !bytes.Equal(got, payload) {
		t.Fatal("shared snapshot bytes mismatch")
	}
}

func TestSnapshotPinsTailAgainstFurtherWrites(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	buf.Write(bytes.Repeat([]byte{1}, 2000))

	tailBefore := buf.tail
	if _, err := buf.Snapshot(2000); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	buf.Write([]byte("more"))
	if buf.tail == tailBefore {
		t.Fatal("a write after a snapshot pins the old tail and must allocate a fresh one")
	}
}

func TestSnapshotOutOfBoundsFails(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	buf.Write([]byte("abc"))

	if _, err := buf.Snapshot(10); err == nil {
		t.Fatal("Snapshot beyond buffer Size should fail")
	}
}

func TestFingerprintMatchesXxhashDirect(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	payload := []byte("the quick brown fox jumps over the lazy dog")
	buf.Write(payload)

	snap, err := buf.Snapshot(int64(len(payload)))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	want := xxhash.Sum64(payload)
	if got := snap.Fingerprint(); got != want {
		t.Fatalf("Fingerprint = %x, want %x", got, want)
	}
}

func TestFingerprintStreamsAcrossSharedSegments(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	payload := bytes.Repeat([]byte{0x11}, SegmentSize+500)
	buf.Write(payload)

	snap, err := buf.Snapshot(int64(len(payload)))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.segs) < 2 {
		t.Fatalf("expected a multi-segment snapshot, got %d segments", len(snap.segs))
	}

	want := xxhash.Sum64(payload)
	if got := snap.Fingerprint(); got != want {
		t.Fatalf("Fingerprint = %x, want %x", got, want)
	}
}

func TestReleaseClearsReferences(t *testing.T) {
	pool := NewSegmentPool(DefaultPoolConfig())
	buf := NewBuffer(pool)
	buf.Write(bytes.Repeat([]byte{1}, 4000))

	snap, err := buf.Snapshot(4000)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	snap.Release()

	if snap.flat != nil || snap.segs != nil {
		t.Fatal("Release should clear both internal representations")
	}
}
