// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "testing"

// Chunks in these fixtures never start at relative offset 0: the carver
// uses 0 as its "no chunk open" sentinel, so a chunk head that happens to
// sit at offset 0 is indistinguishable from no chunk being open. That never
// occurs in real volumes (offset 0 is the NTFS boot sector, never a store
// block), so tests sidestep it too.

func TestCarveBlocksSingleChunk(t *testing.T) {
	img := newFakeImage(4 * BlockSize)
	img.putStoreBlock(BlockSize, RecordTypeStoreHeader, BlockSize, 0)

	blk := NewBlockBackend(img, 0)
	index, chunks := CarveBlocks(blk, int64(len(img.data)))

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].HeadOffset() != BlockSize {
		t.Fatalf("head offset = %#x, want %#x", chunks[0].HeadOffset(), BlockSize)
	}
	if _, ok := index[BlockSize]; !ok {
		t.Fatal("block missing from index")
	}
}

func TestCarveBlocksIgnoresUnqualifiedNoise(t *testing.T) {
	img := newFakeImage(2 * BlockSize)
	// Leave the image as zeroed garbage: no signature anywhere.

	blk := NewBlockBackend(img, 0)
	index, chunks := CarveBlocks(blk, int64(len(img.data)))

	if len(chunks) != 0 {
		t.Fatalf("got %d chunks, want 0", len(chunks))
	}
	if len(index) != 0 {
		t.Fatalf("got %d index entries, want 0", len(index))
	}
}

func TestCarveBlocksSplitsOnRecordTypeMismatch(t *testing.T) {
	img := newFakeImage(4 * BlockSize)
	img.putStoreBlock(BlockSize, RecordTypeStoreHeader, BlockSize, 2*BlockSize)
	img.putStoreBlock(2*BlockSize, RecordTypeRange, 2*BlockSize, 0)
	img.putStoreBlock(3*BlockSize, RecordTypeBitmap, 3*BlockSize, 0)

	blk := NewBlockBackend(img, 0)
	index, chunks := CarveBlocks(blk, int64(len(img.data)))

	// The mismatched block (Range) closes the open StoreHeader chunk without
	// becoming a head of its own: a new chunk only opens from the
	// no-chunk-open branch, which is checked before the record-type-mismatch
	// branch. The third block (Bitmap), reached with no chunk open, does
	// start its own chunk.
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (mismatched block closes the first chunk without opening its own; the following block starts fresh)", len(chunks))
	}
	if chunks[0].HeadOffset() != BlockSize {
		t.Fatalf("first chunk head = %#x, want %#x", chunks[0].HeadOffset(), BlockSize)
	}
	if chunks[1].HeadOffset() != 3*BlockSize {
		t.Fatalf("second chunk head = %#x, want %#x", chunks[1].HeadOffset(), 3*BlockSize)
	}
	if _, ok := index[2*BlockSize]; !ok {
		t.Fatal("mismatched block should still be recorded in the block index")
	}
}

func TestCarveBlocksFollowsChain(t *testing.T) {
	img := newFakeImage(4 * BlockSize)
	img.putStoreBlock(BlockSize, RecordTypeBlockList, BlockSize, 2*BlockSize)
	img.putStoreBlock(2*BlockSize, RecordTypeBlockList, 2*BlockSize, 3*BlockSize)
	img.putStoreBlock(3*BlockSize, RecordTypeBlockList, 3*BlockSize, 0)

	blk := NewBlockBackend(img, 0)
	_, chunks := CarveBlocks(blk, int64(len(img.data)))

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 contiguous chunk", len(chunks))
	}
}
