// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vqf

import "fmt"

// checkInvariants is a no-op unless built with -tags vqf_invariants. It
// walks every block and re-derives occupancy, run contiguity, and run
// ordering from scratch, panicking on the first contradiction rather than
// returning an error -- an invariant violation means the codec has a bug,
// not that the caller did something wrong.
func (f *Filter) checkInvariants() {
	if !invariants {
		return
	}
	for i := range f.blocks {
		f.blocks[i].checkInvariants(i)
	}
}

func (b *block) checkInvariants(blockIdx int) {
	usable := b.usable()

	ones := popcount64(usable)
	if ones < BucketsPerBlock-1 {
		panic(fmt.Sprintf("block %d: usable window has %d set bits, want at least %d",
			blockIdx, ones, BucketsPerBlock-1))
	}
	free := b.freeSpace()
	if free < 0 || free > SlotsPerBlock {
		panic(fmt.Sprintf("block %d: freeSpace()=%d out of range [0,%d]", blockIdx, free, SlotsPerBlock))
	}
	occ := b.occupancy()
	if occ < 0 || occ > SlotsPerBlock {
		panic(fmt.Sprintf("block %d: occupancy()=%d out of range [0,%d]", blockIdx, occ, SlotsPerBlock))
	}
	if occ+free != SlotsPerBlock {
		panic(fmt.Sprintf("block %d: occupancy %d + freeSpace %d != %d", blockIdx, occ, free, SlotsPerBlock))
	}

	// Every bucket's run must be contiguous, non-overlapping with its
	// neighbors, and monotonically non-decreasing in both start and end
	// as offset increases -- run i's end is run i+1's start.
	prevEnd := 0
	for offset := 0; offset < BucketsPerBlock; offset++ {
		start, end := b.runBounds(offset)
		if start != prevEnd {
			panic(fmt.Sprintf("block %d: bucket %d starts at %d, want %d (previous bucket's end)",
				blockIdx, offset, start, prevEnd))
		}
		if end < start {
			panic(fmt.Sprintf("block %d: bucket %d has end %d before start %d", blockIdx, offset, end, start))
		}
		if end > SlotsPerBlock {
			panic(fmt.Sprintf("block %d: bucket %d ends at %d beyond %d slots", blockIdx, offset, end, SlotsPerBlock))
		}
		prevEnd = end
	}
	if prevEnd != occ {
		panic(fmt.Sprintf("block %d: last bucket ends at slot %d, want occupancy %d", blockIdx, prevEnd, occ))
	}

	// While the block has free space, the window's top bit, excluding the
	// lock bit, is either the 36th bucket's implicit terminator or a '1'
	// waiting to be consumed by the next extend -- either way it must be
	// set. A full block has no such spare '1' (see bucketEnd), so its top
	// bit is clear whenever the last bucket holds any tags.
	if free > 0 && usable&(uint64(1)<<(mdWindowBits-1)) == 0 {
		panic(fmt.Sprintf("block %d: top bit of usable window is unexpectedly clear", blockIdx))
	}
}
