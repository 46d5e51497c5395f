// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command vss-carver rebuilds a Volume Shadow Copy Service catalog and
// store from a raw NTFS volume image.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/qraux/vss-carver"
)

func main() {
	klog.InitFlags(nil)

	var (
		imagePath    = flag.String("i", "", "path to raw disk image (required)")
		volumeOffset = flag.Int64("o", 0, "byte offset in the image to the start of the NTFS volume")
		catalogPath  = flag.String("c", "", "output catalog file path (required)")
		storePath    = flag.String("s", "", "output store file path (required)")
		debug        = flag.Bool("debug", false, "enable diagnostic tracing to stdout")
	)
	flag.Parse()

	if *debug {
		flag.Set("v", "1")
		flag.Set("logtostderr", "false")
		klog.SetOutput(os.Stdout)
	}

	if err := run(*imagePath, *volumeOffset, *catalogPath, *storePath); err != nil {
		fmt.Fprintln(os.Stderr, reason(err))
		os.Exit(1)
	}
}

func run(imagePath string, volumeOffset int64, catalogPath, storePath string) error {
	if imagePath == "" || catalogPath == "" || storePath == "" {
		return errors.Wrap(vss.ErrInvalidArgument, "too few arguments")
	}

	image, err := os.Open(imagePath)
	if err != nil {
		return err
	}
	defer image.Close()

	catalogFile, err := os.OpenFile(catalogPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer catalogFile.Close()

	storeFile, err := os.OpenFile(storePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		os.Remove(catalogPath)
		return err
	}
	defer storeFile.Close()

	result, err := vss.Run(image, vss.Options{VolumeOffset: volumeOffset}, catalogFile, storeFile)
	if err != nil {
		// A failed run must not leave partial output files behind.
		os.Remove(catalogPath)
		os.Remove(storePath)
		return err
	}

	klog.Infof("volume size %d bytes: %d live snapshot(s), %d carved", result.VolumeSize, result.LiveCount, result.CarvedCount)
	if result.LiveCount == 0 {
		klog.Info("all snapshots on this volume have been deleted")
	}
	return nil
}

// reason renders err as the single-line message the CLI contract requires,
// preferring the known error taxonomy's own text over Go's default
// multi-line wrapping.
func reason(err error) string {
	switch {
	case errors.Is(err, vss.ErrNotVSS):
		return "Not found VSS volume header."
	case errors.Is(err, vss.ErrInvalidArgument):
		return "too few arguments"
	default:
		return err.Error()
	}
}
