// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// filetimeHour is one hour expressed in Windows FILETIME's 100ns ticks.
const filetimeHour = 60 * 60 * 10_000_000

// catalogBlockOffsets are the four fixed positions of the emitted catalog.
var catalogBlockOffsets = [4]uint64{0x0, 0x4000, 0x8000, 0xC000}

// CatalogEmitter writes the rebuilt catalog file: exactly four 16 KiB
// blocks, filled with live pairs, then carved pairs, then type-0 padding.
type CatalogEmitter struct {
	out io.Writer
}

func NewCatalogEmitter(out io.Writer) *CatalogEmitter {
	return &CatalogEmitter{out: out}
}

// catalogPair is a resolved (type-2, type-3) slot pair ready to encode.
type catalogPair struct {
	type2 *CatalogEntry2
	type3 *CatalogEntry3
}

// Emit assigns carved type-2 descriptors (sequence numbers, creation times,
// and fresh store GUIDs, back-propagated into the matching type-3
// descriptors already written by the Store Emitter) and writes the merged
// live+carved catalog.
func (c *CatalogEmitter) Emit(volumeSize uint64, live []*CatalogPair, carvedType3 []*CatalogEntry3) error {
	var pairs []catalogPair
	for _, p := range live {
		if p.Type2 == nil || p.Type3 == nil {
			continue
		}
		pairs = append(pairs, catalogPair{p.Type2, p.Type3})
	}
	pairs = append(pairs, assignCarvedDescriptors(volumeSize, live, carvedType3)...)

	idx := 0
	for blockIdx, blockOffset := range catalogBlockOffsets {
		next := blockOffset + BlockSize
		if blockIdx == len(catalogBlockOffsets)-1 {
			next = 0
		}

		block := make([]byte, 0, CatalogBlockSize)
		block = append(block, NewCatalogBlockHeader(blockOffset, next).Encode()...)

		for len(block)+2*RecordSize <= CatalogBlockSize && idx < len(pairs) {
			block = append(block, pairs[idx].type2.Encode()...)
			block = append(block, pairs[idx].type3.Encode()...)
			idx++
		}
		for len(block)+RecordSize <= CatalogBlockSize {
			block = append(block, emptyCatalogEntry()...)
		}

		if _, err := c.out.Write(block); err != nil {
			return wrapIo(err, int64(blockOffset), "write catalog block")
		}
	}
	return nil
}

// assignCarvedDescriptors builds a fresh type-2 descriptor for each carved
// type-3 entry: sequence numbers and creation time derive from the last
// live entry when one exists, else count down from
// len(carved) with a creation time of now. Each successive entry is offset
// by one sequence number and one hour earlier. The fresh GUID is
// back-propagated into the type-3 descriptor it pairs with.
func assignCarvedDescriptors(volumeSize uint64, live []*CatalogPair, carvedType3 []*CatalogEntry3) []catalogPair {
	if len(carvedType3) == 0 {
		return nil
	}

	var baseSequence, baseCreation uint64
	if last := lastLiveType2(live); last != nil {
		baseSequence = last.SequenceNumber
		baseCreation = last.CreationTime
	} else {
		// With no live entry to count down from, the oldest (last) carved
		// entry should land on sequence 1, so the base is one past the
		// count: baseSequence - len(carvedType3) == 1.
		baseSequence = uint64(len(carvedType3)) + 1
		baseCreation = FiletimeEpochOffset + uint64(time.Now().Unix())*10_000_000
	}

	out := make([]catalogPair, len(carvedType3))
	for i, entry := range carvedType3 {
		k := uint64(i + 1)

		var guid [16]byte
		if id, err := uuid.NewUUID(); err == nil {
			copy(guid[:], id[:])
		}
		entry.StoreGUID = guid

		out[i] = catalogPair{
			type2: &CatalogEntry2{
				VolumeSize:     volumeSize,
				StoreGUID:      guid,
				SequenceNumber: baseSequence - k,
				CreationTime:   baseCreation - k*filetimeHour,
			},
			type3: entry,
		}
	}
	return out
}

func lastLiveType2(live []*CatalogPair) *CatalogEntry2 {
	for i := len(live) - 1; i >= 0; i-- {
		if live[i].Type2 != nil {
			return live[i].Type2
		}
	}
	return nil
}
