// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "bytes"

// fakeImage is an in-memory ImageReader backed by a byte slice, grown to
// size on construction so ReadAt never falls off the end.
type fakeImage struct {
	data []byte
}

func newFakeImage(size int) *fakeImage {
	return &fakeImage{data: make([]byte, size)}
}

func (f *fakeImage) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, bytes.ErrTooLarge
	}
	return n, nil
}

// putStoreBlock writes a full 16384-byte store block header (payload left
// zero) at offset into the image.
func (f *fakeImage) putStoreBlock(offset int64, recordType uint32, current, next uint64) {
	block := make([]byte, BlockSize)
	copy(block[0:16], Signature[:])
	putLEUint32(block[16:20], 1)
	putLEUint32(block[20:24], recordType)
	putLEUint64(block[24:32], current)
	putLEUint64(block[32:40], current)
	putLEUint64(block[40:48], next)
	copy(f.data[offset:], block)
}

// putVolumeHeader writes a minimal valid VSS volume header at volume-offset
// 0x1E00.
func (f *fakeImage) putVolumeHeader(catalogOffset uint64) {
	buf := make([]byte, VolumeHeaderSize)
	copy(buf[0:16], Signature[:])
	putLEUint32(buf[16:20], 1)
	putLEUint32(buf[20:24], RecordTypeVolumeHeader)
	putLEUint64(buf[48:56], catalogOffset)
	copy(f.data[0x1E00:], buf)
}

// putNTFSBootFields writes just enough of the NTFS boot sector for
// ProbeVolume's bytes-per-sector and total-sectors reads.
func (f *fakeImage) putNTFSBootFields(bytesPerSector uint16, totalSectors uint64) {
	var b2 [2]byte
	b2[0] = byte(bytesPerSector)
	b2[1] = byte(bytesPerSector >> 8)
	copy(f.data[0x0B:], b2[:])

	var b8 [8]byte
	putLEUint64(b8[:], totalSectors)
	copy(f.data[0x28:], b8[:])
}
