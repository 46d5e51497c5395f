// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "github.com/pkg/errors"

// Signature is the 16-byte VSS GUID that marks a volume header, a catalog
// block, or a store block as belonging to this VSS version. It is the only
// version this package understands; anything else is rejected as NotVSS.
var Signature = [16]byte{
	0x6B, 0x87, 0x08, 0x38, 0x76, 0xC1, 0x48, 0x4E,
	0xB7, 0xAE, 0x04, 0x04, 0x6E, 0x6C, 0xC7, 0x52,
}

// On-disk sizes, fixed by the VSS wire format.
const (
	BlockSize   = 0x4000 // stride of the linear sweep and of every store block
	RecordSize  = 128    // catalog entry / store block header size
	PayloadSize = BlockSize - RecordSize

	VolumeHeaderSize = 512
	CatalogBlockSize = BlockSize
)

// Store block record types (StoreBlockHeader.RecordType).
const (
	RecordTypeVolumeHeader = 1
	RecordTypeStoreList    = 2
	RecordTypeBlockList    = 3
	RecordTypeStoreHeader  = 4
	RecordTypeRange        = 5
	RecordTypeBitmap       = 6
)

// Catalog entry type tags (leading u64 of every 128-byte catalog slot).
const (
	CatalogEntryTypeEmpty    = 0
	CatalogEntryTypeSentinel = 1
	CatalogEntryTypeSnapshot = 2
	CatalogEntryTypeStore    = 3
)

// FiletimeEpochOffset is the number of 100ns intervals between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const FiletimeEpochOffset = 116444736000000000

// snapshotStoreOrder is the canonical five-role sequence a snapshot's store
// chunks are carved in. The trailing 6 is duplicated on purpose: a snapshot
// always has a current bitmap, and may or may not have a previous one.
var snapshotStoreOrder = [5]uint32{
	RecordTypeStoreHeader,
	RecordTypeBlockList,
	RecordTypeRange,
	RecordTypeBitmap,
	RecordTypeBitmap,
}

// VolumeHeader is the 512-byte VSS volume header at volume-offset 0x1E00.
//
//	   0 -  15: vssid
//	  16 -  19: version
//	  20 -  23: record_type (always 1)
//	  24 -  31: current_offset
//	  32 -  39: unknown1
//	  40 -  47: unknown2
//	  48 -  55: catalog_offset
//	  56 -  63: maximum_size
//	  64 -  79: volume_id
//	  80 -  95: shadow_storage_id
//	  96 -  99: unknown3
//	 100 - 511: reserved
type VolumeHeader struct {
	VSSID           [16]byte
	Version         uint32
	RecordType      uint32
	CurrentOffset   uint64
	unknown1        uint64
	unknown2        uint64
	CatalogOffset   uint64
	MaximumSize     uint64
	VolumeID        [16]byte
	ShadowStorageID [16]byte
	unknown3        uint32
}

// DecodeVolumeHeader parses the 512-byte volume header at the start of buf.
func DecodeVolumeHeader(buf []byte) (*VolumeHeader, error) {
	if len(buf) < VolumeHeaderSize {
		return nil, errors.Errorf("volume header: short buffer (%d bytes)", len(buf))
	}
	h := &VolumeHeader{}
	copy(h.VSSID[:], buf[0:16])
	h.Version = leUint32(buf[16:20])
	h.RecordType = leUint32(buf[20:24])
	h.CurrentOffset = leUint64(buf[24:32])
	h.unknown1 = leUint64(buf[32:40])
	h.unknown2 = leUint64(buf[40:48])
	h.CatalogOffset = leUint64(buf[48:56])
	h.MaximumSize = leUint64(buf[56:64])
	copy(h.VolumeID[:], buf[64:80])
	copy(h.ShadowStorageID[:], buf[80:96])
	h.unknown3 = leUint32(buf[96:100])
	return h, nil
}

// HasSignature reports whether the header carries the VSS GUID signature.
func (h *VolumeHeader) HasSignature() bool {
	return h.VSSID == Signature
}

// CatalogBlockHeader is the 128-byte header that precedes every 16KiB
// catalog block.
//
//	 0 - 15: vssid
//	16 - 19: version (always 1)
//	20 - 23: record_type (always 2)
//	24 - 31: relative_catalog_offset
//	32 - 39: current_catalog_offset
//	40 - 47: next_catalog_offset
//	48 -127: reserved
type CatalogBlockHeader struct {
	VSSID                 [16]byte
	Version               uint32
	RecordType            uint32
	RelativeCatalogOffset uint64
	CurrentCatalogOffset  uint64
	NextCatalogOffset     uint64
}

// DecodeCatalogBlockHeader parses a 128-byte catalog block header.
func DecodeCatalogBlockHeader(buf []byte) *CatalogBlockHeader {
	h := &CatalogBlockHeader{}
	copy(h.VSSID[:], buf[0:16])
	h.Version = leUint32(buf[16:20])
	h.RecordType = leUint32(buf[20:24])
	h.RelativeCatalogOffset = leUint64(buf[24:32])
	h.CurrentCatalogOffset = leUint64(buf[32:40])
	h.NextCatalogOffset = leUint64(buf[40:48])
	return h
}

// Encode renders the catalog block header as 128 little-endian bytes.
func (h *CatalogBlockHeader) Encode() []byte {
	buf := make([]byte, RecordSize)
	copy(buf[0:16], Signature[:])
	putLEUint32(buf[16:20], 1)
	putLEUint32(buf[20:24], RecordTypeStoreList)
	putLEUint64(buf[24:32], h.RelativeCatalogOffset)
	putLEUint64(buf[32:40], h.CurrentCatalogOffset)
	putLEUint64(buf[40:48], h.NextCatalogOffset)
	return buf
}

// NewCatalogBlockHeader builds a catalog block header for offset current,
// linked forward to next (0 if this is the last block).
func NewCatalogBlockHeader(current, next uint64) *CatalogBlockHeader {
	return &CatalogBlockHeader{
		VSSID:                 Signature,
		Version:               1,
		RecordType:            RecordTypeStoreList,
		RelativeCatalogOffset: current,
		CurrentCatalogOffset:  current,
		NextCatalogOffset:     next,
	}
}

// peekCatalogEntryType reads the leading u64 type tag of a 128-byte catalog
// slot without otherwise interpreting it.
func peekCatalogEntryType(buf []byte) uint64 {
	return leUint64(buf[0:8])
}

// CatalogEntry2 is a type-2 ("snapshot descriptor") catalog slot.
//
//	 0 -  7: catalog_entry_type (always 2)
//	 8 - 15: volume_size
//	16 - 31: store_guid
//	32 - 39: sequence_number
//	40 - 47: flags
//	48 - 55: shadow_copy_creation_time (Windows FILETIME)
//	56 -127: reserved
type CatalogEntry2 struct {
	VolumeSize     uint64
	StoreGUID      [16]byte
	SequenceNumber uint64
	Flags          uint64
	CreationTime   uint64
}

// DecodeCatalogEntry2 parses a type-2 catalog slot. Callers must first peek
// the type tag via peekCatalogEntryType.
func DecodeCatalogEntry2(buf []byte) *CatalogEntry2 {
	e := &CatalogEntry2{}
	e.VolumeSize = leUint64(buf[8:16])
	copy(e.StoreGUID[:], buf[16:32])
	e.SequenceNumber = leUint64(buf[32:40])
	e.Flags = leUint64(buf[40:48])
	e.CreationTime = leUint64(buf[48:56])
	return e
}

// Encode renders the type-2 slot as 128 little-endian bytes.
func (e *CatalogEntry2) Encode() []byte {
	buf := make([]byte, RecordSize)
	putLEUint64(buf[0:8], CatalogEntryTypeSnapshot)
	putLEUint64(buf[8:16], e.VolumeSize)
	copy(buf[16:32], e.StoreGUID[:])
	putLEUint64(buf[32:40], e.SequenceNumber)
	putLEUint64(buf[40:48], e.Flags)
	putLEUint64(buf[48:56], e.CreationTime)
	return buf
}

// CatalogEntry3 is a type-3 ("store descriptor") catalog slot.
//
//	 0 -  7: catalog_entry_type (always 3)
//	 8 - 15: store_block_list_offset
//	16 - 31: store_guid
//	32 - 39: store_header_offset
//	40 - 47: store_block_range_offset
//	48 - 55: store_current_bitmap_offset
//	56 - 63: ntfs_file_reference
//	64 - 71: allocated_size
//	72 - 79: store_previous_bitmap_offset
//	80 - 87: unknown
//	88 -127: reserved
type CatalogEntry3 struct {
	StoreBlockListOffset      uint64
	StoreGUID                 [16]byte
	StoreHeaderOffset         uint64
	StoreBlockRangeOffset     uint64
	StoreCurrentBitmapOffset  uint64
	NTFSFileReference         uint64
	AllocatedSize             uint64
	StorePreviousBitmapOffset uint64
	unknown                   uint64
}

// DecodeCatalogEntry3 parses a type-3 catalog slot.
func DecodeCatalogEntry3(buf []byte) *CatalogEntry3 {
	e := &CatalogEntry3{}
	e.StoreBlockListOffset = leUint64(buf[8:16])
	copy(e.StoreGUID[:], buf[16:32])
	e.StoreHeaderOffset = leUint64(buf[32:40])
	e.StoreBlockRangeOffset = leUint64(buf[40:48])
	e.StoreCurrentBitmapOffset = leUint64(buf[48:56])
	e.NTFSFileReference = leUint64(buf[56:64])
	e.AllocatedSize = leUint64(buf[64:72])
	e.StorePreviousBitmapOffset = leUint64(buf[72:80])
	e.unknown = leUint64(buf[80:88])
	return e
}

// Encode renders the type-3 slot as 128 little-endian bytes.
func (e *CatalogEntry3) Encode() []byte {
	buf := make([]byte, RecordSize)
	putLEUint64(buf[0:8], CatalogEntryTypeStore)
	putLEUint64(buf[8:16], e.StoreBlockListOffset)
	copy(buf[16:32], e.StoreGUID[:])
	putLEUint64(buf[32:40], e.StoreHeaderOffset)
	putLEUint64(buf[40:48], e.StoreBlockRangeOffset)
	putLEUint64(buf[48:56], e.StoreCurrentBitmapOffset)
	putLEUint64(buf[56:64], e.NTFSFileReference)
	putLEUint64(buf[64:72], e.AllocatedSize)
	putLEUint64(buf[72:80], e.StorePreviousBitmapOffset)
	putLEUint64(buf[80:88], e.unknown)
	return buf
}

// emptyCatalogEntry renders a type-0 filler slot.
func emptyCatalogEntry() []byte {
	buf := make([]byte, RecordSize)
	putLEUint64(buf[0:8], CatalogEntryTypeEmpty)
	return buf
}

// StoreBlockHeader is the 128-byte header that precedes every 16256-byte
// store block payload.
//
//	 0 - 15: vssid
//	16 - 19: version (always 1)
//	20 - 23: record_type (2..6)
//	24 - 31: relative_block_offset
//	32 - 39: current_block_offset
//	40 - 47: next_block_offset
//	48 - 55: size_info
//	56 -127: reserved
type StoreBlockHeader struct {
	VSSID               [16]byte
	Version             uint32
	RecordType          uint32
	RelativeBlockOffset uint64
	CurrentBlockOffset  uint64
	NextBlockOffset     uint64
	SizeInfo            uint64

	// Dummy marks a header fabricated by the Chain Repairer to bridge a gap;
	// it never came from the image.
	Dummy bool
}

// DecodeStoreBlockHeader parses the 128-byte header of a store block.
func DecodeStoreBlockHeader(buf []byte) *StoreBlockHeader {
	h := &StoreBlockHeader{}
	copy(h.VSSID[:], buf[0:16])
	h.Version = leUint32(buf[16:20])
	h.RecordType = leUint32(buf[20:24])
	h.RelativeBlockOffset = leUint64(buf[24:32])
	h.CurrentBlockOffset = leUint64(buf[32:40])
	h.NextBlockOffset = leUint64(buf[40:48])
	h.SizeInfo = leUint64(buf[48:56])
	return h
}

// Qualifies reports whether a scanned header is a genuine VSS store block of
// a role the carver understands.
func (h *StoreBlockHeader) Qualifies() bool {
	if h.VSSID != Signature || h.Version != 1 {
		return false
	}
	switch h.RecordType {
	case RecordTypeStoreList, RecordTypeBlockList, RecordTypeStoreHeader, RecordTypeRange, RecordTypeBitmap:
		return true
	default:
		return false
	}
}

// patchStoreBlockHeader rewrites the relative/current/next offset fields of
// a full 16384-byte store block in place, leaving vssid/version/record_type
// and the payload untouched.
func patchStoreBlockHeader(block []byte, relative, current, next uint64) {
	putLEUint64(block[24:32], relative)
	putLEUint64(block[32:40], current)
	putLEUint64(block[40:48], next)
}

// dummyStoreBlock fabricates a full 16384-byte type-3 block-list block for
// chain repair: a header with no usable payload, immediately followed by
// `(0x4000-128)/32` repetitions of the 32-byte unallocated sentinel record
// (three 0xFFFFFFFFFFFFFFFF offsets, zero flags, zero allocation bitmap).
func dummyStoreBlock(current, next uint64) []byte {
	block := make([]byte, BlockSize)
	copy(block[0:16], Signature[:])
	putLEUint32(block[16:20], 1)
	putLEUint32(block[20:24], RecordTypeBlockList)
	patchStoreBlockHeader(block, current, current, next)

	sentinel := make([]byte, 32)
	for i := 0; i < 24; i++ {
		sentinel[i] = 0xFF
	}
	for off := RecordSize; off+32 <= BlockSize; off += 32 {
		copy(block[off:off+32], sentinel)
	}
	return block
}

// newDummyStoreBlockHeader builds the in-memory header for a fabricated
// block-list block at offset, chained forward to next. Used by the Chain
// Repairer to register a bridge block in the BlockIndex before any bytes
// are ever materialized; dummyStoreBlock produces the matching on-disk
// bytes at emission time.
func newDummyStoreBlockHeader(offset, next uint64) *StoreBlockHeader {
	return &StoreBlockHeader{
		VSSID:               Signature,
		Version:             1,
		RecordType:          RecordTypeBlockList,
		RelativeBlockOffset: offset,
		CurrentBlockOffset:  offset,
		NextBlockOffset:     next,
		Dummy:               true,
	}
}
