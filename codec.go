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

import "math/bits"

// This file is the metadata codec: the rank/select machinery that finds
// bucket boundaries in a block's 64-bit metadata word and mutates them on
// insert/remove. The reference C implementation this is ported from used
// BMI2's pdep/pext/tzcnt directly; we keep the same algorithmic shape with
// portable software equivalents (pdep64/pext64 below) since Go has no
// portable pdep/pext intrinsic. The contract is bit-exact output
// equivalence with the hardware form, not a particular instruction
// sequence.

// popcount64 returns the number of set bits in v.
func popcount64(v uint64) int {
	return bits.OnesCount64(v)
}

// pdep64 deposits the low popcount(mask) bits of src into the positions of
// mask that are set, in order from the least significant set bit of mask
// upward. It is the software form of the x86 PDEP instruction.
func pdep64(src, mask uint64) uint64 {
	var res uint64
	for bb := uint64(1); mask != 0; bb <<= 1 {
		lsb := mask & (-mask)
		if src&bb != 0 {
			res |= lsb
		}
		mask &= mask - 1
	}
	return res
}

// pext64 extracts the bits of src selected by mask, compacting them into
// the low bits of the result in order from the least significant set bit
// of mask upward. It is the software form of the x86 PEXT instruction.
func pext64(src, mask uint64) uint64 {
	var res uint64
	for bb := uint64(1); mask != 0; bb <<= 1 {
		lsb := mask & (-mask)
		if src&lsb != 0 {
			res |= bb
		}
		mask &= mask - 1
	}
	return res
}

// selectBit returns the bit position of the rank-th set bit (rank=0 is the
// first) in v. It returns 64 if v has fewer than rank+1 set bits.
func selectBit(v uint64, rank int) int {
	return bits.TrailingZeros64(pdep64(uint64(1)<<uint(rank), v))
}

// bucketEnd returns the metadata bit position of the '1' that terminates
// bucket offset's run, and the corresponding tag-array slot index one past
// the last tag in that run ("select(i) - i", the classic quotient-filter
// identity: among the bits before a bucket's terminating '1', the number
// of '0's is exactly the number of tags in buckets [0,offset]).
//
// The usable window only has BucketsPerBlock-1 explicit terminator bits;
// the last bucket's terminator is implicit at the window's top edge (see
// DESIGN.md). Once the block is full there's no spare '1' left to act as
// that edge, so selectBit returns its not-found sentinel (>=mdWindowBits)
// and the run is known to end at total occupancy instead. This only ever
// happens for offset == BucketsPerBlock-1: earlier offsets always have a
// real terminator bit available, full or not.
func (b *block) bucketEnd(offset int) (mdPos, slotIdx int) {
	pos := selectBit(b.usable(), offset)
	if pos >= mdWindowBits {
		return pos, b.occupancy()
	}
	return pos, pos - offset
}

// runBounds returns the half-open range of tag-array slots [start, end)
// belonging to bucket offset.
func (b *block) runBounds(offset int) (start, end int) {
	_, end = b.bucketEnd(offset)
	if offset == 0 {
		return 0, end
	}
	_, start = b.bucketEnd(offset - 1)
	return start, end
}

// extend inserts a '0' at metadata position mdPos, extending whichever
// bucket's run mdPos used to terminate by one slot, and shifts every bit
// above mdPos up by one -- the previous top bit of the 63-bit usable
// window (bit 62) is consumed and discarded. The lock bit is carried
// through unchanged.
func (b *block) extend(mdPos int) {
	depositMask := (^(uint64(1) << uint(mdPos))) & usableMask
	usable := pdep64(b.usable(), depositMask) & usableMask
	b.md = usable | (b.md & lockBit)
}

// contract is extend's inverse: it deletes the bit at metadata position
// mdPos, shifts every bit above it down by one, and restores a fresh '1'
// at the top of the window to replenish the slot that extend had
// consumed. The lock bit is preserved exactly as it was -- never forced --
// so contract is safe to call while a concurrent build holds the block's
// lock.
func (b *block) contract(mdPos int) {
	extractMask := (^(uint64(1) << uint(mdPos))) & usableMask
	compacted := pext64(b.usable(), extractMask)
	usable := (compacted | (uint64(1) << (mdWindowBits - 1))) & usableMask
	b.md = usable | (b.md & lockBit)
}
