// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "k8s.io/klog/v2"

// BlockIndex maps an on-disk store block offset to the header found there.
// The Chain Repairer may add fabricated entries flagged Dummy; it is the
// single owner every later stage reads through.
type BlockIndex map[uint64]*StoreBlockHeader

// Chunk is a run of same-record-type store blocks discovered during the
// sweep: the head header plus the successor offsets collected by chasing
// next_block_offset. At carve time the list holds only the head's own
// next_block_offset; the Chain Repairer fills in the rest.
type Chunk struct {
	Head       *StoreBlockHeader
	Successors []uint64
}

// HeadOffset is the chunk's defining current_block_offset.
func (c *Chunk) HeadOffset() uint64 { return c.Head.CurrentBlockOffset }

// RecordType is the record type shared by every block in the chunk.
func (c *Chunk) RecordType() uint32 { return c.Head.RecordType }

func newChunk(head *StoreBlockHeader) *Chunk {
	return &Chunk{Head: head, Successors: []uint64{head.NextBlockOffset}}
}

// CarveBlocks performs a linear 16KiB-aligned sweep of the volume: it
// classifies every block by signature and record type, builds the block
// index, and folds consecutive same-typed blocks into chronological
// chunks.
//
// size is the number of bytes to sweep starting at the volume's offset 0.
// Run passes the probed volume size, so image bytes past the end of the
// volume are not swept. The sweep also stops at the first failed read.
func CarveBlocks(blk *BlockBackend, size int64) (BlockIndex, []*Chunk) {
	index := BlockIndex{}
	var chunks []*Chunk

	var chunkHeadOffset uint64
	var chunkHeadRecordType uint32
	chunkContinue := false

	header := make([]byte, RecordSize)
	for pos := int64(0); pos+RecordSize <= size; pos += BlockSize {
		if err := blk.ReadAt(header, pos); err != nil {
			klog.V(1).Infof("carve: stopping sweep at %#x: %v", pos, err)
			break
		}
		h := DecodeStoreBlockHeader(header)

		if !h.Qualifies() {
			if !chunkContinue {
				chunkHeadOffset, chunkHeadRecordType = 0, 0
			}
			continue
		}

		index[h.CurrentBlockOffset] = h

		if chunkHeadOffset == 0 {
			chunkHeadOffset = h.CurrentBlockOffset
			chunkHeadRecordType = h.RecordType
			chunks = append(chunks, newChunk(h))
		}

		if chunkHeadRecordType != h.RecordType {
			klog.V(1).Infof("carve: %#x: record type %d/%d mismatch, closing as corrupt", h.CurrentBlockOffset, chunkHeadRecordType, h.RecordType)
			chunkHeadOffset, chunkHeadRecordType = 0, 0
			chunkContinue = false
			continue
		}

		delta := int64(h.NextBlockOffset) - int64(h.CurrentBlockOffset)
		switch {
		case delta > BlockSize || delta < 0:
			klog.V(1).Infof("carve: %#x: next-offset gap (next=%#x), closing chunk", h.CurrentBlockOffset, h.NextBlockOffset)
			chunkHeadOffset, chunkHeadRecordType = 0, 0
			chunkContinue = true
		case h.NextBlockOffset == 0:
			chunkHeadOffset, chunkHeadRecordType = 0, 0
			chunkContinue = false
		default:
			chunkContinue = true
		}
	}

	return index, chunks
}
