// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import "encoding/binary"

// leUint16 reads a little-endian uint16 from the front of buf.
func leUint16(buf []byte) uint16 {
	return binary.LittleEndian.Uint16(buf)
}

// leUint32 reads a little-endian uint32 from the front of buf.
func leUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// leUint64 reads a little-endian uint64 from the front of buf.
func leUint64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// putLEUint32 writes v as a little-endian uint32 into the front of buf.
func putLEUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// putLEUint64 writes v as a little-endian uint64 into the front of buf.
func putLEUint64(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}
