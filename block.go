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
	"strings"
)

const (
	// TagBits is the width of the fingerprint stored in the low byte of
	// every slot.
	TagBits = 8
	// SlotsPerBlock is the number of physical 16-bit slots in a block.
	SlotsPerBlock = 28
	// BucketsPerBlock is the number of logical buckets a block's metadata
	// word partitions its slots into.
	BucketsPerBlock = 36
	// AltCheckThreshold is the rawLoad value (see block.go's rawLoad, not
	// freeSpace) below which Insert consults the alternate block instead of
	// unconditionally accepting the primary.
	AltCheckThreshold = 43

	// mdWindowBits is the width, in bits, of the rank/select window inside
	// md that encodes bucket boundaries and occupied slots. It is one
	// short of BucketsPerBlock+SlotsPerBlock because the window's own top
	// edge (bit 62, immediately below the lock bit) doubles as the
	// implicit boundary for the 36th bucket: it is never a separately
	// stored '1', it's simply "off the end of the window" for an empty
	// bucket 35's run. See DESIGN.md for the derivation.
	mdWindowBits = BucketsPerBlock + SlotsPerBlock - 1

	// lockBit is bit 63 of md: the spin-lock guarding the block.
	lockBit uint64 = 1 << 63
	// usableMask selects the 63-bit rank/select window, excluding lockBit.
	usableMask uint64 = lockBit - 1

	// emptyMD is the metadata word of a freshly initialized block: every
	// bit in the usable window set, no slots occupied, unlocked.
	emptyMD uint64 = usableMask
)

// tag is the low TagBits bits of a hash, stored per slot as the
// approximate-membership fingerprint.
type tag uint8

// slot is one physical 16-bit cell: a tag in the low byte, a caller payload
// in the high byte.
type slot uint16

func makeSlot(t tag, payload uint8) slot {
	return slot(uint16(payload)<<8 | uint16(t))
}

func (s slot) tag() tag        { return tag(s) }
func (s slot) payload() uint8  { return uint8(s >> 8) }

// block is a 64-byte (one cache line in size) unit: one 64-bit metadata
// word plus 28 16-bit slots. The block array is allocated with a plain
// make, so blocks are not guaranteed to start on a cache-line boundary. The zero value is not a valid block; use newBlock.
type block struct {
	md   uint64
	tags [SlotsPerBlock]slot
}

func newBlock() block {
	return block{md: emptyMD}
}

// usable returns the rank/select window, with the lock bit masked off.
func (b *block) usable() uint64 {
	return b.md & usableMask
}

// occupancy returns the number of filled slots in the block, in [0,28].
func (b *block) occupancy() int {
	return SlotsPerBlock - b.freeSpace()
}

// freeSpace returns the number of unfilled slots in the block, in [0,28].
// It is a cheap popcount: every insert consumes exactly one '1' from the
// usable window (see extend), so free space tracks bit count directly
// without needing a separate counter.
func (b *block) freeSpace() int {
	return popcount64(b.usable()) - (BucketsPerBlock - 1)
}

// isFull reports whether the block has no free slots left.
func (b *block) isFull() bool {
	return b.freeSpace() == 0
}

// rawLoad returns freeSpace shifted back up by BucketsPerBlock, the scale
// AltCheckThreshold is calibrated against: it ranges [36,64] rather than
// freeSpace's [0,28]. The two differ only by the constant BucketsPerBlock,
// so ordering comparisons between two blocks give identical results either
// way; only a comparison against the literal threshold constant needs this
// form. See DESIGN.md's "open questions" for the derivation.
func (b *block) rawLoad() int {
	return b.freeSpace() + BucketsPerBlock
}

// insertSlot shifts tags[s:27] right by one and places v at tags[s]. The
// value previously at the last slot is discarded; callers must have
// verified free space first.
func (b *block) insertSlot(s int, v slot) {
	copy(b.tags[s+1:], b.tags[s:SlotsPerBlock-1])
	b.tags[s] = v
}

// removeSlot shifts tags[s+1:28] left by one; the final slot becomes a
// don't-care.
func (b *block) removeSlot(s int) {
	copy(b.tags[s:], b.tags[s+1:SlotsPerBlock])
}

// matchMask returns a bitset, one bit per slot, identifying the slots that
// both lie within bucket offset's run and carry the given tag.
func (b *block) matchMask(offset int, t tag) uint32 {
	start, end := b.runBounds(offset)
	var inRun uint32
	if end > start {
		inRun = (uint32(1)<<uint(end) - 1) &^ (uint32(1)<<uint(start) - 1)
	}
	var tagEq uint32
	for i := start; i < end; i++ {
		if b.tags[i].tag() == t {
			tagEq |= 1 << uint(i)
		}
	}
	return inRun & tagEq
}

func (b *block) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "md=%064b occupancy=%d free=%d\n", b.usable(), b.occupancy(), b.freeSpace())
	for i := 0; i < SlotsPerBlock; i++ {
		fmt.Fprintf(&buf, "  tags[%2d] = tag=%02x payload=%02x\n", i, b.tags[i].tag(), b.tags[i].payload())
	}
	return buf.String()
}
