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

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

const debugTrace = false

// Filter is a Vector Quotient Filter: a flat array of 64-byte blocks, each
// holding up to 28 (tag, payload) pairs grouped into 36 logical buckets. It
// supports insertion, deletion, membership, and payload lookup for 64-bit
// hashes supplied by the caller -- hashing a caller's own keys is a
// pluggable, separate concern (see hash.go, keys.go).
//
// A Filter is NOT goroutine-safe across Close; individual Insert/Remove/
// Query/IsPresent calls ARE safe to call concurrently with each other (see
// the per-block locking discipline in lock.go).
type Filter struct {
	blocks    []block
	allocator Allocator
	hasher    Hasher

	nblocks uint64
	nslots  uint64
	rng     uint64
	nelts   uint64 // advisory; incremented on insert, never decremented
}

// New constructs a Filter sized to hold at least nslots occupied slots.
// nblocks = ceil((nslots + SlotsPerBlock) / SlotsPerBlock), and the actual
// slot capacity is rounded up to nblocks*SlotsPerBlock.
func New(nslots uint64, options ...Option) *Filter {
	nblocks := (nslots + 2*SlotsPerBlock - 1) / SlotsPerBlock
	if nblocks == 0 {
		nblocks = 1
	}

	f := &Filter{
		allocator: defaultAllocator{},
		hasher:    NewXXHasher(),
		nblocks:   nblocks,
		nslots:    nblocks * SlotsPerBlock,
	}
	f.rng = nblocks * BucketsPerBlock * (1 << TagBits)

	for _, op := range options {
		op.apply(f)
	}

	f.blocks = f.allocator.AllocBlocks(int(nblocks))
	f.checkInvariants()
	return f
}

// Close releases the Filter's block array back to its allocator. It is
// unnecessary to call Close when using the default allocator. The Filter
// must not be used after Close.
func (f *Filter) Close() {
	if f.allocator != nil {
		f.allocator.FreeBlocks(f.blocks)
	}
	f.blocks = nil
}

// Len returns the exact number of currently occupied slots across every
// block -- unlike NumElements, it reflects removes.
func (f *Filter) Len() uint64 {
	var n uint64
	for i := range f.blocks {
		n += uint64(f.blocks[i].occupancy())
	}
	return n
}

// NumElements returns the advisory element count: incremented on every
// successful insert, never decremented on remove. Use Len for an exact
// occupancy count.
func (f *Filter) NumElements() uint64 {
	return atomic.LoadUint64(&f.nelts)
}

// Insert is equivalent to InsertVal(hash, 0).
func (f *Filter) Insert(hash uint64) bool {
	return f.InsertVal(hash, 0)
}

// InsertVal inserts hash with an associated payload byte, returning false
// if both of hash's candidate blocks are full (FilterFull). Inserting the
// same hash more than once is not idempotent: each call creates another
// occurrence, which QueryIter can later enumerate.
func (f *Filter) InsertVal(hash uint64, payload uint8) bool {
	ok, err := f.InsertValChecked(hash, payload)
	return ok && err == nil
}

// InsertValChecked behaves like InsertVal but reports ErrFilterFull via its
// error return instead of collapsing it into a plain false.
func (f *Filter) InsertValChecked(hash uint64, payload uint8) (bool, error) {
	loc := locate(hash, f.rng)
	s := makeSlot(loc.tag, payload)

	primaryIdx := loc.primaryBlock()
	primary := &f.blocks[primaryIdx]
	lockBlock(primary)

	blockIdx := primaryIdx
	b := primary
	offset := loc.primaryOffset()

	if primary.rawLoad() < AltCheckThreshold && primaryIdx != loc.alternateBlock() {
		unlockBlock(primary)
		altIdx := loc.alternateBlock()
		lockBlocks(f.blocks, int(primaryIdx), int(altIdx))

		primaryFree := primary.freeSpace()
		alt := &f.blocks[altIdx]
		altFree := alt.freeSpace()

		switch {
		case altFree > primaryFree:
			unlockBlock(primary)
			blockIdx, b, offset = altIdx, alt, loc.alternateOffset()
		case primaryFree == 0 && altFree == 0:
			unlockBlocks(f.blocks, int(primaryIdx), int(altIdx))
			return false, ErrFilterFull
		default:
			unlockBlock(alt)
		}
	}

	if b.isFull() {
		unlockBlock(b)
		return false, ErrFilterFull
	}

	mdPos, slotIdx := b.bucketEnd(offset)
	if debugTrace {
		fmt.Printf("insert: block=%d offset=%d slot=%d md=%d\n", blockIdx, offset, slotIdx, mdPos)
	}
	b.insertSlot(slotIdx, s)
	b.extend(mdPos)
	unlockBlock(b)

	atomic.AddUint64(&f.nelts, 1)
	f.checkInvariants()
	return true, nil
}

// Remove deletes one occurrence of hash, checking the primary block then
// the alternate. It returns false if hash is not present in either. Remove
// peels duplicates one at a time: inserting hash k times and removing it j
// <= k times leaves at least k-j occurrences behind.
func (f *Filter) Remove(hash uint64) bool {
	loc := locate(hash, f.rng)
	removed := f.removeFrom(loc.primaryBlock(), loc.primaryOffset(), loc.tag)
	if !removed {
		removed = f.removeFrom(loc.alternateBlock(), loc.alternateOffset(), loc.tag)
	}
	if removed {
		f.checkInvariants()
	}
	return removed
}

func (f *Filter) removeFrom(blockIdx uint64, offset int, t tag) bool {
	b := &f.blocks[blockIdx]
	lockBlock(b)
	defer unlockBlock(b)

	mask := b.matchMask(offset, t)
	if mask == 0 {
		return false
	}
	slotIdx := bits.TrailingZeros32(mask)
	mdPos := slotIdx + offset
	if debugTrace {
		fmt.Printf("remove: block=%d offset=%d slot=%d md=%d\n", blockIdx, offset, slotIdx, mdPos)
	}
	b.removeSlot(slotIdx)
	b.contract(mdPos)
	return true
}

// IsPresent reports whether hash may be in the filter. It may report true
// with probability roughly 2^-8 per lookup when hash was never inserted
// (a one-sided false positive); it never reports false for a hash that is
// present and hasn't been removed.
func (f *Filter) IsPresent(hash uint64) bool {
	loc := locate(hash, f.rng)
	if f.checkTag(loc.primaryBlock(), loc.primaryOffset(), loc.tag) {
		return true
	}
	return f.checkTag(loc.alternateBlock(), loc.alternateOffset(), loc.tag)
}

func (f *Filter) checkTag(blockIdx uint64, offset int, t tag) bool {
	b := &f.blocks[blockIdx]
	lockBlock(b)
	defer unlockBlock(b)
	return b.matchMask(offset, t) != 0
}

// Query returns the payload of the lowest-indexed matching slot in hash's
// primary block, or failing that its alternate block. ok is false only if
// neither candidate has a match.
func (f *Filter) Query(hash uint64) (payload uint8, ok bool) {
	loc := locate(hash, f.rng)
	if payload, ok = f.queryBlock(loc.primaryBlock(), loc.primaryOffset(), loc.tag); ok {
		return payload, true
	}
	return f.queryBlock(loc.alternateBlock(), loc.alternateOffset(), loc.tag)
}

func (f *Filter) queryBlock(blockIdx uint64, offset int, t tag) (uint8, bool) {
	b := &f.blocks[blockIdx]
	lockBlock(b)
	defer unlockBlock(b)
	mask := b.matchMask(offset, t)
	if mask == 0 {
		return 0, false
	}
	return b.tags[bits.TrailingZeros32(mask)].payload(), true
}

// QueryIter returns the payloads of every matching slot in whichever of
// hash's two candidate blocks has any match at all, short-circuiting on
// the first non-empty one -- it does not union matches across both
// blocks. Callers that need every duplicate regardless of which block
// hosts it should use QueryIterAll.
func (f *Filter) QueryIter(hash uint64) ([]uint8, bool) {
	loc := locate(hash, f.rng)
	if vals, ok := f.queryIterBlock(loc.primaryBlock(), loc.primaryOffset(), loc.tag); ok {
		return vals, true
	}
	return f.queryIterBlock(loc.alternateBlock(), loc.alternateOffset(), loc.tag)
}

// QueryIterAll returns every matching payload across both of hash's
// candidate blocks, unioning the two where QueryIter short-circuits on the
// first. It changes nothing about how matches are found within a single
// block.
func (f *Filter) QueryIterAll(hash uint64) ([]uint8, bool) {
	loc := locate(hash, f.rng)
	primary, okP := f.queryIterBlock(loc.primaryBlock(), loc.primaryOffset(), loc.tag)
	if loc.primaryBlock() == loc.alternateBlock() {
		return primary, okP
	}
	alternate, okA := f.queryIterBlock(loc.alternateBlock(), loc.alternateOffset(), loc.tag)
	if !okP {
		return alternate, okA
	}
	if !okA {
		return primary, okP
	}
	return append(primary, alternate...), true
}

func (f *Filter) queryIterBlock(blockIdx uint64, offset int, t tag) ([]uint8, bool) {
	b := &f.blocks[blockIdx]
	lockBlock(b)
	defer unlockBlock(b)
	mask := b.matchMask(offset, t)
	if mask == 0 {
		return nil, false
	}
	vals := make([]uint8, 0, bits.OnesCount32(mask))
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		vals = append(vals, b.tags[i].payload())
		mask &= mask - 1
	}
	return vals, true
}

// DebugString dumps every block's metadata and tags.
func (f *Filter) DebugString() string {
	out := fmt.Sprintf("hardware pdep/pext available: %v (informational; codec always uses the portable form)\n", hasHardwarePDEP())
	for i := range f.blocks {
		out += fmt.Sprintf("block %d:\n%s", i, f.blocks[i].String())
	}
	return out
}
