// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "github.com/pkg/errors"

// CatalogPair is a (type-2, type-3) descriptor pair for one live snapshot,
// keyed by store GUID. Either half may be nil while the walk is still
// resolving a half-filled pair; a lone type-3 entry (seen before its type-2
// counterpart, or never followed by one) stays in Type3 with Type2 nil.
type CatalogPair struct {
	Type2 *CatalogEntry2
	Type3 *CatalogEntry3
}

// ReadLiveCatalog walks the on-disk catalog linked list starting at
// catalogOffset, emitting (type-2, type-3) pairs grouped by store GUID in
// first-seen order. It fails with ErrMalformedCatalog if the walk revisits
// a catalog block offset.
func ReadLiveCatalog(blk *BlockBackend, catalogOffset uint64) ([]*CatalogPair, error) {
	var pairs []*CatalogPair
	byGUID := map[[16]byte]*CatalogPair{}
	visited := map[uint64]struct{}{}

	offset := catalogOffset
	for {
		if _, seen := visited[offset]; seen {
			return nil, errors.Wrapf(ErrMalformedCatalog, "catalog block at %#x revisited", offset)
		}
		visited[offset] = struct{}{}

		block := make([]byte, CatalogBlockSize)
		if err := blk.ReadAt(block, int64(offset)); err != nil {
			return nil, err
		}
		blockHeader := DecodeCatalogBlockHeader(block[:RecordSize])

		for slotOff := RecordSize; slotOff+RecordSize <= CatalogBlockSize; slotOff += RecordSize {
			slot := block[slotOff : slotOff+RecordSize]
			switch peekCatalogEntryType(slot) {
			case CatalogEntryTypeSnapshot:
				e2 := DecodeCatalogEntry2(slot)
				pair := resolvePair(byGUID, &pairs, e2.StoreGUID)
				pair.Type2 = e2
			case CatalogEntryTypeStore:
				e3 := DecodeCatalogEntry3(slot)
				pair := resolvePair(byGUID, &pairs, e3.StoreGUID)
				pair.Type3 = e3
			default:
				// Empty (0) and sentinel (1) slots carry no snapshot data.
			}
		}

		if blockHeader.NextCatalogOffset == 0 {
			break
		}
		offset = blockHeader.NextCatalogOffset
	}

	return pairs, nil
}

// resolvePair returns the pair for guid, creating and appending a new
// (empty) one in first-seen order if this is the first time guid appears.
func resolvePair(byGUID map[[16]byte]*CatalogPair, pairs *[]*CatalogPair, guid [16]byte) *CatalogPair {
	if pair, ok := byGUID[guid]; ok {
		return pair
	}
	pair := &CatalogPair{}
	byGUID[guid] = pair
	*pairs = append(*pairs, pair)
	return pair
}
