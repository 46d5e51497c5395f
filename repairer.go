// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "k8s.io/klog/v2"

// maxGapStrides bounds how far the chain repair will search past a broken
// next_block_offset for a real block-list block to bridge to: 1 MiB of
// volume, or 64 block strides.
const maxGapStrides = 0x100000 / BlockSize

// RepairChains materializes every chunk's full successor list by chasing
// next_block_offset through the block index, fabricating dummy block-list
// entries to bridge gaps. The walk is iterative: long chains can run for
// thousands of blocks, too deep to trust to recursion.
func RepairChains(index BlockIndex, sets []*SnapshotSet) {
	for _, set := range sets {
		for _, chunk := range set.roles() {
			repairChunk(index, chunk)
		}
	}
}

func repairChunk(index BlockIndex, chunk *Chunk) {
	if chunk.Head.NextBlockOffset == 0 {
		return
	}

	cur := chunk.Head.NextBlockOffset
	for {
		h, ok := index[cur]
		if !ok {
			if bridged := bridgeGap(index, chunk, cur); !bridged {
				chunk.Successors = append(chunk.Successors, 0)
			}
			break
		}

		next := h.NextBlockOffset
		if next == 0 {
			break
		}
		if _, ok := index[next]; !ok {
			klog.V(1).Infof("repair: %#x: successor %#x not indexed, truncating chain", cur, next)
			chunk.Successors = append(chunk.Successors, 0)
			break
		}
		chunk.Successors = append(chunk.Successors, next)
		cur = next
	}

	clipDanglingTail(index, chunk)
}

// bridgeGap searches forward from a missing offset for a real block-list
// block within maxGapStrides, and if found fabricates the intervening dummy
// blocks linked tip-to-tail. It returns false if nothing was found in range.
func bridgeGap(index BlockIndex, chunk *Chunk, start uint64) bool {
	for k := 1; k < maxGapStrides; k++ {
		target := start + uint64(k)*BlockSize
		anchor, ok := index[target]
		if !ok || anchor.RecordType != RecordTypeBlockList {
			continue
		}

		klog.V(1).Infof("repair: bridging gap at %#x with %d dummy block(s) to reach %#x", start, k, target)
		for i := 0; i < k; i++ {
			offset := start + uint64(i)*BlockSize
			next := start + uint64(i+1)*BlockSize
			index[offset] = newDummyStoreBlockHeader(offset, next)
			if i > 0 {
				chunk.Successors = append(chunk.Successors, offset)
			}
		}
		return true
	}
	return false
}

// clipDanglingTail forces the resolved chain's final block to carry a
// next_block_offset of 0 when it still points past the chain's end. That
// happens after a successful gap bridge (the final dummy legitimately
// points at the real block-list block it was bridging to, which belongs to
// a different chunk), after a mid-chain truncation (the last indexed block
// names a successor the sweep never found), and when the head's own
// successor was unresolvable. The final block is the last entry of the
// head-plus-successors sequence before the first 0 or unindexed offset,
// the same prefix the emitter writes.
func clipDanglingTail(index BlockIndex, chunk *Chunk) {
	last := chunk.Head
	for _, off := range chunk.Successors {
		h, ok := index[off]
		if off == 0 || !ok {
			break
		}
		last = h
	}
	last.NextBlockOffset = 0
}
