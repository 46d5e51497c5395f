// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import (
	"io"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// StoreEmitter writes the rebuilt store file: a live catalog pass followed
// by a carved pass, five sub-chains per entry in fixed role order, every
// offset rewritten relative to the output file.
type StoreEmitter struct {
	blk    *BlockBackend
	index  BlockIndex
	out    io.Writer
	offset uint64
}

func NewStoreEmitter(blk *BlockBackend, index BlockIndex, out io.Writer) *StoreEmitter {
	return &StoreEmitter{blk: blk, index: index, out: out}
}

// EmitLive rewrites one live type-3 descriptor's five sub-chains in place.
// Live chains are walked straight off the image bytes; none of them get
// dummy repair.
func (e *StoreEmitter) EmitLive(entry *CatalogEntry3) error {
	heads := []*uint64{
		&entry.StoreHeaderOffset,
		&entry.StoreBlockListOffset,
		&entry.StoreBlockRangeOffset,
		&entry.StoreCurrentBitmapOffset,
	}
	for _, head := range heads {
		newOffset, err := e.emitLiveChain(*head)
		if err != nil {
			return err
		}
		*head = newOffset
	}
	if entry.StorePreviousBitmapOffset != 0 {
		newOffset, err := e.emitLiveChain(entry.StorePreviousBitmapOffset)
		if err != nil {
			return err
		}
		entry.StorePreviousBitmapOffset = newOffset
	}
	return nil
}

// EmitCarved writes one carved snapshot set's five sub-chains and returns a
// fresh type-3 descriptor pointing into the output file. StoreGUID is left
// zero; the Catalog Emitter back-propagates it once one is assigned.
func (e *StoreEmitter) EmitCarved(set *SnapshotSet) (*CatalogEntry3, error) {
	entry := &CatalogEntry3{}

	offset, err := e.emitCarvedSubChain(set.Header)
	if err != nil {
		return nil, err
	}
	entry.StoreHeaderOffset = offset

	if offset, err = e.emitCarvedSubChain(set.BlockList); err != nil {
		return nil, err
	}
	entry.StoreBlockListOffset = offset

	if offset, err = e.emitCarvedSubChain(set.Range); err != nil {
		return nil, err
	}
	entry.StoreBlockRangeOffset = offset

	if offset, err = e.emitCarvedSubChain(set.CurBitmap); err != nil {
		return nil, err
	}
	entry.StoreCurrentBitmapOffset = offset

	if set.PrevBitmap.HeadOffset() != 0 {
		if offset, err = e.emitCarvedSubChain(set.PrevBitmap); err != nil {
			return nil, err
		}
		entry.StorePreviousBitmapOffset = offset
	}

	return entry, nil
}

// emitLiveChain walks a chain straight off the image bytes, following each
// block's own next_block_offset the way the live VSS driver linked it, and
// writes every block it visits. It returns the output offset of the chain's
// first block, or 0 if head is 0 (role absent). A chain that loops back on
// itself is truncated at the revisit rather than walked forever.
func (e *StoreEmitter) emitLiveChain(head uint64) (uint64, error) {
	if head == 0 {
		return 0, nil
	}

	var chain []*StoreBlockHeader
	visited := map[uint64]struct{}{}
	hdr := make([]byte, RecordSize)
	for cur := head; ; {
		if _, seen := visited[cur]; seen {
			klog.V(1).Infof("emit: live chain loops back to %#x, truncating", cur)
			break
		}
		visited[cur] = struct{}{}
		if err := e.blk.ReadAt(hdr, int64(cur)); err != nil {
			return 0, err
		}
		h := DecodeStoreBlockHeader(hdr)
		h.CurrentBlockOffset = cur
		chain = append(chain, h)
		if h.NextBlockOffset == 0 {
			break
		}
		cur = h.NextBlockOffset
	}

	first := e.offset
	for i, h := range chain {
		if err := e.writeOne(h, i == len(chain)-1); err != nil {
			return 0, err
		}
	}
	return first, nil
}

// emitCarvedSubChain writes a carved chunk's head followed by its repaired
// successor list (which may include fabricated dummy entries) and returns
// the output offset of the head. The successor list's 0 terminator, and
// anything past an offset the index has no block for, is not emitted.
func (e *StoreEmitter) emitCarvedSubChain(chunk *Chunk) (uint64, error) {
	offsets := []uint64{chunk.HeadOffset()}
	for _, off := range chunk.Successors {
		if off == 0 {
			break
		}
		if _, ok := e.index[off]; !ok {
			break
		}
		offsets = append(offsets, off)
	}
	return e.emitOffsets(offsets)
}

func (e *StoreEmitter) emitOffsets(offsets []uint64) (uint64, error) {
	first := e.offset
	for i, off := range offsets {
		h, ok := e.index[off]
		if !ok {
			return 0, errors.Errorf("emit: offset %#x missing from block index", off)
		}
		if err := e.writeOne(h, i == len(offsets)-1); err != nil {
			return 0, err
		}
	}
	return first, nil
}

// writeOne writes a single 16 KiB block at the emitter's current output
// offset: a dummy's payload is synthesized fresh (the unallocated sentinel
// pattern), a real block's is read verbatim from the image. Either way the
// header's relative/current offsets become the output offset, and
// next_block_offset becomes output_offset+0x4000, or 0 when this is the
// chain's last block.
func (e *StoreEmitter) writeOne(h *StoreBlockHeader, last bool) error {
	var raw []byte
	if h.Dummy {
		raw = dummyStoreBlock(0, 0)
	} else {
		var err error
		if raw, err = e.blk.ReadBlock(int64(h.CurrentBlockOffset)); err != nil {
			return err
		}
	}

	var outNext uint64
	if !last {
		outNext = e.offset + BlockSize
	}
	patchStoreBlockHeader(raw, e.offset, e.offset, outNext)

	if _, err := e.out.Write(raw); err != nil {
		return wrapIo(err, int64(e.offset), "write store block")
	}
	e.offset += BlockSize
	return nil
}
