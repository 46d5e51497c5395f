// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vss

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the taxonomy in the carving design: Io, NotVSS,
// MalformedCatalog and InvalidArgument. Stages return these directly or
// with positional context attached (errors.Wrapf, or wrapIo for I/O
// failures), so callers can still errors.Is their way back to the taxonomy.
// The internal consistency errors for a short volume-header buffer and a
// block missing from the index are plain errors.Errorf values outside it.
var (
	// ErrIo marks a positional read or write failure against the image or
	// an output file. Fatal.
	ErrIo = errors.New("io failure")

	// ErrNotVSS marks the absence of the VSS signature at volume-offset
	// 0x1E00. Fatal.
	ErrNotVSS = errors.New("not found VSS volume header")

	// ErrMalformedCatalog marks a cycle or unreadable block encountered
	// while walking the live catalog linked list. Fatal.
	ErrMalformedCatalog = errors.New("malformed catalog")

	// ErrInvalidArgument marks a missing required CLI flag. Fatal.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ioError annotates a positional I/O failure with the offset it occurred at
// while still satisfying errors.Is(err, ErrIo).
type ioError struct {
	cause  error
	what   string
	offset int64
}

func (e *ioError) Error() string {
	return fmt.Sprintf("%s at offset %#x: %v", e.what, e.offset, e.cause)
}

func (e *ioError) Unwrap() error { return e.cause }

func (e *ioError) Is(target error) bool { return target == ErrIo }

// wrapIo annotates a positional I/O failure with the offset it occurred at.
func wrapIo(err error, offset int64, what string) error {
	return &ioError{cause: err, what: what, offset: offset}
}
