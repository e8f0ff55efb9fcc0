package rxvm

import (
	"golang.org/x/sync/errgroup"
)

// DatasetBlockCount is the number of 64-byte lines in a fully materialized
// dataset: 4 GiB / 64 (spec §6).
const DatasetBlockCount = 67_108_864

// Dataset is the resident 4 GiB table of dataset lines (spec §4.F, full
// mode). Once built it is immutable and safe to share by reference across
// worker goroutines.
type Dataset struct {
	data []byte // DatasetBlockCount * CacheLineSize bytes
}

// NewDataset materializes the entire dataset from cache by partitioning
// [0, DatasetBlockCount) into disjoint slices, one per worker, grounded on
// the teacher's parallel-construction pattern in
// internal/statetransition/state_transition.go (a golang.org/x/sync/errgroup
// group fanning out over independent slices with no synchronization beyond
// the join, since the slices never overlap).
func NewDataset(cache *Cache, workers int) (*Dataset, error) {
	if workers < 1 {
		workers = 1
	}
	size := uint64(DatasetBlockCount) * CacheLineSize
	d := &Dataset{data: make([]byte, size)}
	if uint64(len(d.data)) != size {
		return nil, &ErrAllocation{Component: "dataset", Bytes: size}
	}

	var g errgroup.Group
	blocksPerWorker := (DatasetBlockCount + workers - 1) / workers
	for w := 0; w < workers; w++ {
		w := w
		start := uint64(w * blocksPerWorker)
		end := start + uint64(blocksPerWorker)
		if end > DatasetBlockCount {
			end = DatasetBlockCount
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			for idx := start; idx < end; idx++ {
				cache.GetLine(idx, d.data[idx*CacheLineSize:idx*CacheLineSize+CacheLineSize])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &ErrWorker{Err: err}
	}
	return d, nil
}

// GetLine returns the dataset line at blockIndex without copying.
func (d *Dataset) GetLine(blockIndex uint64) []byte {
	off := blockIndex * CacheLineSize
	return d.data[off : off+CacheLineSize]
}

// BlockSource is the contract the per-nonce loop consumes: given a
// 64-byte-aligned address, produce the 64-byte line at address/64 (spec
// §4.F). datasetSource (full mode) and lightSource (light mode, inline
// Cache.GetLine calls) implement it; in ModeLightAsync the VM takes lines
// from its asyncWorker instead.
type BlockSource interface {
	Line(blockIndex uint64) []byte
}

// datasetSource adapts *Dataset to BlockSource.
type datasetSource struct{ d *Dataset }

func (s datasetSource) Line(blockIndex uint64) []byte { return s.d.GetLine(blockIndex) }

// lightSource adapts a *Cache to BlockSource by recomputing every line on
// demand via Cache.GetLine (spec §4.F, light mode without the async
// worker).
type lightSource struct {
	cache *Cache
	buf   [CacheLineSize]byte
}

func (s *lightSource) Line(blockIndex uint64) []byte {
	s.cache.GetLine(blockIndex, s.buf[:])
	return s.buf[:]
}
