// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

// VolumeInfo is the result of probing an NTFS volume for VSS: where its live
// catalog begins (0 if VSS is enabled but every snapshot was deleted) and
// the volume's total size in bytes.
type VolumeInfo struct {
	CatalogOffset uint64
	VolumeSize    uint64
}

// ProbeVolume reads the NTFS bytes-per-sector and total-sectors fields and
// the VSS volume header at volume-offset 0x1E00. It returns ErrNotVSS if
// the header doesn't carry the VSS signature.
func ProbeVolume(blk *BlockBackend) (*VolumeInfo, error) {
	var sectorSizeBuf [2]byte
	if err := blk.ReadAt(sectorSizeBuf[:], 0x0B); err != nil {
		return nil, err
	}
	bytesPerSector := uint64(leUint16(sectorSizeBuf[:]))

	var totalSectorsBuf [8]byte
	if err := blk.ReadAt(totalSectorsBuf[:], 0x28); err != nil {
		return nil, err
	}
	totalSectors := leUint64(totalSectorsBuf[:])

	volumeSize := bytesPerSector*totalSectors + 0x200

	headerBuf := make([]byte, VolumeHeaderSize)
	if err := blk.ReadAt(headerBuf, 0x1E00); err != nil {
		return nil, err
	}
	header, err := DecodeVolumeHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	if !header.HasSignature() {
		return nil, ErrNotVSS
	}

	return &VolumeInfo{
		CatalogOffset: header.CatalogOffset,
		VolumeSize:    volumeSize,
	}, nil
}
