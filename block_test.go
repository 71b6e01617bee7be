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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBlockEmpty(t *testing.T) {
	b := newBlock()
	require.Equal(t, 0, b.occupancy())
	require.Equal(t, SlotsPerBlock, b.freeSpace())
	require.False(t, b.isFull())
}

func TestBlockInsertRemoveRoundTrip(t *testing.T) {
	b := newBlock()
	mdPos, slotIdx := b.bucketEnd(0)
	b.insertSlot(slotIdx, makeSlot(0x42, 0x7))
	b.extend(mdPos)

	require.Equal(t, 1, b.occupancy())
	require.Equal(t, SlotsPerBlock-1, b.freeSpace())

	mask := b.matchMask(0, 0x42)
	require.NotZero(t, mask)

	mdPos2, slotIdx2 := b.bucketEnd(0)
	require.Equal(t, slotIdx2, slotIdx+1, "bucket 0's run should now span one more slot")
	_ = mdPos2

	b.removeSlot(slotIdx)
	b.contract(mdPos)
	require.Equal(t, 0, b.occupancy())
	require.Equal(t, SlotsPerBlock, b.freeSpace())
}

func TestBlockFillsToCapacity(t *testing.T) {
	b := newBlock()
	for i := 0; i < SlotsPerBlock; i++ {
		require.False(t, b.isFull(), "block reported full after only %d of %d inserts", i, SlotsPerBlock)
		mdPos, slotIdx := b.bucketEnd(0)
		b.insertSlot(slotIdx, makeSlot(tag(i), 0))
		b.extend(mdPos)
	}
	require.True(t, b.isFull())
	require.Equal(t, SlotsPerBlock, b.occupancy())
}

// TestBucketEndLastBucketWhenFull guards against the last logical bucket's
// implicit terminator: once a block is completely full there is no spare
// '1' bit left in the usable window to mark bucket BucketsPerBlock-1's own
// end, so bucketEnd must fall back to occupancy instead of asking
// selectBit for a bit that no longer exists.
func TestBucketEndLastBucketWhenFull(t *testing.T) {
	b := newBlock()
	for i := 0; i < SlotsPerBlock; i++ {
		mdPos, slotIdx := b.bucketEnd(BucketsPerBlock - 1)
		b.insertSlot(slotIdx, makeSlot(tag(i), uint8(i)))
		b.extend(mdPos)
	}
	require.True(t, b.isFull())

	require.NotPanics(t, func() {
		start, end := b.runBounds(BucketsPerBlock - 1)
		require.Equal(t, 0, start)
		require.Equal(t, SlotsPerBlock, end)
	})

	mask := b.matchMask(BucketsPerBlock-1, tag(0))
	require.Equal(t, uint32(1), mask)
}

func TestBlockMatchMaskIsolatesBucket(t *testing.T) {
	b := newBlock()
	insertInto := func(offset int, t tag) {
		mdPos, slotIdx := b.bucketEnd(offset)
		b.insertSlot(slotIdx, makeSlot(t, 0))
		b.extend(mdPos)
	}

	insertInto(0, 0x11)
	insertInto(1, 0x22)
	insertInto(2, 0x11)

	require.Equal(t, 1, popcount64(uint64(b.matchMask(0, 0x11))))
	require.Zero(t, b.matchMask(0, 0x22))
	require.Equal(t, 1, popcount64(uint64(b.matchMask(1, 0x22))))
	require.Equal(t, 1, popcount64(uint64(b.matchMask(2, 0x11))))
}

func TestBlockStringContainsOccupancy(t *testing.T) {
	b := newBlock()
	s := b.String()
	require.Contains(t, s, "occupancy=0")
	require.Contains(t, s, "free=28")
}
