// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

// DeduplicateSnapshotSets discards every carved snapshot set whose header
// chunk's current_block_offset equals a live catalog type-3 entry's
// store_header_offset. Pure filter over in-memory lists.
func DeduplicateSnapshotSets(live []*CatalogPair, carved []*SnapshotSet) []*SnapshotSet {
	liveHeaderOffsets := map[uint64]struct{}{}
	for _, pair := range live {
		if pair.Type3 == nil {
			continue
		}
		liveHeaderOffsets[pair.Type3.StoreHeaderOffset] = struct{}{}
	}

	kept := carved[:0:0]
	for _, set := range carved {
		if set.Header == nil {
			continue
		}
		if _, dup := liveHeaderOffsets[set.Header.HeadOffset()]; dup {
			continue
		}
		kept = append(kept, set)
	}
	return kept
}
