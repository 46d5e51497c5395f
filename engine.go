// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vss rebuilds a Volume Shadow Copy Service catalog and store from
// a raw NTFS volume image, recovering snapshot metadata that Windows has
// deleted but not yet overwritten.
package vss

import (
	"io"

	"k8s.io/klog/v2"
)

// Options configures a single carving run.
type Options struct {
	// VolumeOffset is the byte offset within img where the NTFS volume
	// begins.
	VolumeOffset int64
}

// Result summarizes a completed run for CLI reporting.
type Result struct {
	VolumeSize  uint64
	LiveCount   int
	CarvedCount int
}

// Run executes the full recovery pipeline against img: probe the volume,
// read the live catalog, carve store blocks, group them into snapshot
// sets, repair broken chains, deduplicate against the live catalog, then
// emit the store and catalog files. It returns ErrNotVSS if the volume
// carries no VSS signature.
func Run(img ImageReader, opts Options, catalogOut, storeOut io.Writer) (*Result, error) {
	blk := NewBlockBackend(img, opts.VolumeOffset)

	klog.V(1).Info("stage: probing volume")
	vol, err := ProbeVolume(blk)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("volume size %d bytes, catalog offset %#x", vol.VolumeSize, vol.CatalogOffset)

	var live []*CatalogPair
	if vol.CatalogOffset != 0 {
		klog.V(1).Info("stage: reading live catalog")
		live, err = ReadLiveCatalog(blk, vol.CatalogOffset)
		if err != nil {
			return nil, err
		}
	} else {
		klog.V(1).Info("no live catalog: every snapshot has been deleted")
	}

	klog.V(1).Info("stage: carving store blocks")
	index, chunks := CarveBlocks(blk, int64(vol.VolumeSize))
	klog.V(1).Infof("carved %d block run(s)", len(chunks))

	klog.V(1).Info("stage: grouping snapshot sets")
	sets := GroupSnapshotSets(chunks)
	klog.V(1).Infof("grouped %d candidate snapshot set(s)", len(sets))

	klog.V(1).Info("stage: repairing chains")
	RepairChains(index, sets)

	klog.V(1).Info("stage: deduplicating against live catalog")
	sets = DeduplicateSnapshotSets(live, sets)
	klog.V(1).Infof("%d carved snapshot set(s) survive deduplication", len(sets))

	klog.V(1).Info("stage: emitting store file")
	storeEmitter := NewStoreEmitter(blk, index, storeOut)
	for _, pair := range live {
		if pair.Type3 == nil {
			continue
		}
		if err := storeEmitter.EmitLive(pair.Type3); err != nil {
			return nil, err
		}
	}

	carvedType3 := make([]*CatalogEntry3, 0, len(sets))
	for _, set := range sets {
		entry, err := storeEmitter.EmitCarved(set)
		if err != nil {
			return nil, err
		}
		carvedType3 = append(carvedType3, entry)
	}

	klog.V(1).Info("stage: emitting catalog file")
	if err := NewCatalogEmitter(catalogOut).Emit(vol.VolumeSize, live, carvedType3); err != nil {
		return nil, err
	}

	return &Result{
		VolumeSize:  vol.VolumeSize,
		LiveCount:   len(live),
		CarvedCount: len(sets),
	}, nil
}
