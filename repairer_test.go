// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "testing"

func storeHeader(offset uint64, recordType uint32, next uint64) *StoreBlockHeader {
	return &StoreBlockHeader{
		VSSID: Signature, Version: 1, RecordType: recordType,
		CurrentBlockOffset: offset, NextBlockOffset: next,
	}
}

func TestRepairChainsNoGap(t *testing.T) {
	index := BlockIndex{
		0x2000: storeHeader(0x2000, RecordTypeBlockList, 0x6000),
		0x6000: storeHeader(0x6000, RecordTypeBlockList, 0),
	}
	head := storeHeader(0x1000, RecordTypeBlockList, 0x2000)
	chunk := &Chunk{Head: head, Successors: []uint64{0x2000}}

	set := &SnapshotSet{BlockList: chunk, Header: &Chunk{Head: &StoreBlockHeader{}}, Range: &Chunk{Head: &StoreBlockHeader{}}, CurBitmap: &Chunk{Head: &StoreBlockHeader{}}, PrevBitmap: &Chunk{Head: &StoreBlockHeader{}}}
	RepairChains(index, []*SnapshotSet{set})

	want := []uint64{0x2000, 0x6000}
	if len(chunk.Successors) != len(want) {
		t.Fatalf("successors = %v, want %v", chunk.Successors, want)
	}
	for i, v := range want {
		if chunk.Successors[i] != v {
			t.Fatalf("successors[%d] = %#x, want %#x", i, chunk.Successors[i], v)
		}
	}
	if index[0x6000].NextBlockOffset != 0 {
		t.Fatalf("tail next_block_offset = %#x, want 0", index[0x6000].NextBlockOffset)
	}
}

// TestRepairChainsBridgesGap covers a block-list chunk whose
// next_block_offset points to a missing offset X while a real block-list
// block is indexed two strides further on, at X+0x8000.
func TestRepairChainsBridgesGap(t *testing.T) {
	const gapStart = 0x10000
	const realBlock = gapStart + 2*BlockSize

	index := BlockIndex{
		realBlock: storeHeader(realBlock, RecordTypeBlockList, 0),
	}
	head := storeHeader(0x1000, RecordTypeBlockList, gapStart)
	chunk := &Chunk{Head: head, Successors: []uint64{gapStart}}
	set := &SnapshotSet{BlockList: chunk, Header: &Chunk{Head: &StoreBlockHeader{}}, Range: &Chunk{Head: &StoreBlockHeader{}}, CurBitmap: &Chunk{Head: &StoreBlockHeader{}}, PrevBitmap: &Chunk{Head: &StoreBlockHeader{}}}

	RepairChains(index, []*SnapshotSet{set})

	want := []uint64{gapStart, gapStart + BlockSize}
	if len(chunk.Successors) != len(want) {
		t.Fatalf("successors = %v, want %v", chunk.Successors, want)
	}
	for i, v := range want {
		if chunk.Successors[i] != v {
			t.Fatalf("successors[%d] = %#x, want %#x", i, chunk.Successors[i], v)
		}
	}
	for _, off := range chunk.Successors {
		h, ok := index[off]
		if !ok || !h.Dummy {
			t.Fatalf("offset %#x should be a fabricated dummy", off)
		}
	}
	// The chain must not dangle into the real block it was bridging to:
	// the terminator invariant requires the last successor's own
	// next_block_offset to be 0.
	last := index[chunk.Successors[len(chunk.Successors)-1]]
	if last.NextBlockOffset != 0 {
		t.Fatalf("last dummy's next_block_offset = %#x, want 0", last.NextBlockOffset)
	}
	// The real block beyond the bridge is untouched.
	if index[realBlock].NextBlockOffset != 0 {
		t.Fatal("bridging must not mutate the block it bridged to")
	}
}

func TestRepairChainsUnresolvableGapTruncates(t *testing.T) {
	index := BlockIndex{}
	head := storeHeader(0x1000, RecordTypeBlockList, 0x90000)
	chunk := &Chunk{Head: head, Successors: []uint64{0x90000}}
	set := &SnapshotSet{BlockList: chunk, Header: &Chunk{Head: &StoreBlockHeader{}}, Range: &Chunk{Head: &StoreBlockHeader{}}, CurBitmap: &Chunk{Head: &StoreBlockHeader{}}, PrevBitmap: &Chunk{Head: &StoreBlockHeader{}}}

	RepairChains(index, []*SnapshotSet{set})

	want := []uint64{0x90000, 0}
	if len(chunk.Successors) != len(want) || chunk.Successors[1] != 0 {
		t.Fatalf("successors = %v, want %v", chunk.Successors, want)
	}
	// With nothing to bridge to, the head is the chain's only emittable
	// block, so its own next_block_offset must be clipped.
	if head.NextBlockOffset != 0 {
		t.Fatalf("head next_block_offset = %#x, want 0", head.NextBlockOffset)
	}
}

func TestRepairChainsClipsTruncatedTail(t *testing.T) {
	// 0x2000's successor 0x6000 names 0x9000, which the sweep never found:
	// the chain is truncated at 0x6000 and 0x6000 must stop claiming a
	// successor.
	index := BlockIndex{
		0x2000: storeHeader(0x2000, RecordTypeBlockList, 0x6000),
		0x6000: storeHeader(0x6000, RecordTypeBlockList, 0x9000),
	}
	head := storeHeader(0x1000, RecordTypeBlockList, 0x2000)
	chunk := &Chunk{Head: head, Successors: []uint64{0x2000}}
	set := &SnapshotSet{BlockList: chunk, Header: &Chunk{Head: &StoreBlockHeader{}}, Range: &Chunk{Head: &StoreBlockHeader{}}, CurBitmap: &Chunk{Head: &StoreBlockHeader{}}, PrevBitmap: &Chunk{Head: &StoreBlockHeader{}}}

	RepairChains(index, []*SnapshotSet{set})

	want := []uint64{0x2000, 0x6000, 0}
	if len(chunk.Successors) != len(want) {
		t.Fatalf("successors = %v, want %v", chunk.Successors, want)
	}
	for i, v := range want {
		if chunk.Successors[i] != v {
			t.Fatalf("successors[%d] = %#x, want %#x", i, chunk.Successors[i], v)
		}
	}
	if index[0x6000].NextBlockOffset != 0 {
		t.Fatalf("truncated tail's next_block_offset = %#x, want 0", index[0x6000].NextBlockOffset)
	}
}
