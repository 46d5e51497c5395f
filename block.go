// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "io"

// ImageReader is the positioned-read contract every stage uses to pull
// bytes from the disk image. *os.File already satisfies it; tests satisfy
// it with bytes.Reader via io.NewSectionReader or a small in-memory stub.
type ImageReader interface {
	io.ReaderAt
}

// BlockBackend wraps an ImageReader with the fixed-size positional reads the
// carving stages need: every read is relative to volumeOffset, the byte
// offset within the disk image at which the NTFS volume starts.
type BlockBackend struct {
	img          ImageReader
	volumeOffset int64
}

// NewBlockBackend returns a backend reading volume-relative offsets out of
// img, where the volume starts at volumeOffset bytes into the image.
func NewBlockBackend(img ImageReader, volumeOffset int64) *BlockBackend {
	return &BlockBackend{img: img, volumeOffset: volumeOffset}
}

// ReadAt reads exactly len(buf) bytes at volume-relative offset off.
func (blk *BlockBackend) ReadAt(buf []byte, off int64) error {
	n, err := blk.img.ReadAt(buf, blk.volumeOffset+off)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return wrapIo(err, off, "read")
	}
	return nil
}

// ReadBlock reads one full BlockSize-byte store block at volume-relative
// offset off.
func (blk *BlockBackend) ReadBlock(off int64) ([]byte, error) {
	buf := make([]byte, BlockSize)
	if err := blk.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}
