// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

// SnapshotSet is the five-chunk tuple a carved snapshot is made of: store
// header, block-list, range, current bitmap, and an optional previous
// bitmap. PrevBitmap is never nil: when the snapshot carried no previous
// bitmap, it is an empty sentinel chunk whose head offset is 0.
type SnapshotSet struct {
	Header     *Chunk
	BlockList  *Chunk
	Range      *Chunk
	CurBitmap  *Chunk
	PrevBitmap *Chunk
}

// roles returns the set's five chunks in fixed sub-chain order, the order
// the Emitter writes them in.
func (s *SnapshotSet) roles() []*Chunk {
	return []*Chunk{s.Header, s.BlockList, s.Range, s.CurBitmap, s.PrevBitmap}
}

func emptyBitmapChunk() *Chunk {
	return &Chunk{Head: &StoreBlockHeader{}}
}

// GroupSnapshotSets folds a chronological chunk list into snapshot sets
// using the canonical five-role sequence (header, block-list, range,
// current-bitmap, previous-bitmap). The previous-bitmap role is optional:
// its absence is inferred whenever a second chunk of the same record type
// never follows the current bitmap.
func GroupSnapshotSets(chunks []*Chunk) []*SnapshotSet {
	var sets []*SnapshotSet
	idx := 0
	pendingCommit := false
	cur := &SnapshotSet{}

	reset := func() {
		cur = &SnapshotSet{}
		idx = 0
		pendingCommit = false
	}

	for _, chunk := range chunks {
		rt := chunk.RecordType()

		switch {
		case rt == snapshotStoreOrder[idx]:
			switch idx {
			case 0:
				cur.Header = chunk
				idx = 1
			case 1:
				cur.BlockList = chunk
				idx = 2
			case 2:
				cur.Range = chunk
				idx = 3
			case 3:
				cur.CurBitmap = chunk
				cur.PrevBitmap = emptyBitmapChunk()
				idx = 4
				pendingCommit = true
			case 4:
				cur.PrevBitmap = chunk
				sets = append(sets, cur)
				reset()
			}

		case rt == RecordTypeStoreHeader && idx == 4:
			sets = append(sets, cur)
			cur = &SnapshotSet{Header: chunk}
			idx = 1
			pendingCommit = false

		default:
			if pendingCommit {
				sets = append(sets, cur)
			}
			reset()
		}
	}

	if pendingCommit {
		sets = append(sets, cur)
	}

	return sets
}
