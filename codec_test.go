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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPopcount64(t *testing.T) {
	require.Equal(t, 0, popcount64(0))
	require.Equal(t, 64, popcount64(^uint64(0)))
	require.Equal(t, 1, popcount64(1<<40))
}

func TestPdepPextRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		mask := rng.Uint64()
		arbitrary := rng.Uint64()
		// pext64 always produces a value whose set bits fit within
		// popcount(mask) low bits, so depositing it back with the same
		// mask and extracting again must reproduce it exactly.
		src := pext64(arbitrary, mask)
		deposited := pdep64(src, mask)
		require.Equal(t, src, pext64(deposited, mask))
	}
}

func TestPdepKnownValues(t *testing.T) {
	require.Equal(t, uint64(0b0101), pdep64(0b11, 0b0101))
	require.Equal(t, uint64(0), pdep64(0, 0b1111))
}

func TestPextKnownValues(t *testing.T) {
	require.Equal(t, uint64(0b11), pext64(0b0101, 0b0101))
	require.Equal(t, uint64(0), pext64(0b1010, 0b0101))
}

func TestSelectBit(t *testing.T) {
	v := uint64(0b1011010)
	require.Equal(t, 1, selectBit(v, 0))
	require.Equal(t, 3, selectBit(v, 1))
	require.Equal(t, 4, selectBit(v, 2))
	require.Equal(t, 6, selectBit(v, 3))
}

func TestSelectBitOutOfRange(t *testing.T) {
	require.Equal(t, 64, selectBit(0, 0))
}

func TestExtendContractInverse(t *testing.T) {
	b := newBlock()
	original := b.usable()

	mdPos, _ := b.bucketEnd(5)
	b.extend(mdPos)
	require.NotEqual(t, original, b.usable())

	b.contract(mdPos)
	require.Equal(t, original, b.usable())
}

func TestExtendPreservesLockBit(t *testing.T) {
	b := newBlock()
	b.md |= lockBit
	mdPos, _ := b.bucketEnd(0)
	b.extend(mdPos)
	require.NotZero(t, b.md&lockBit)
}

func TestContractPreservesLockBit(t *testing.T) {
	b := newBlock()
	mdPos, _ := b.bucketEnd(0)
	b.extend(mdPos)
	b.md |= lockBit

	b.contract(mdPos)
	require.NotZero(t, b.md&lockBit)
}

func TestRunBoundsCoverAllSlotsWhenFull(t *testing.T) {
	b := newBlock()
	for i := 0; i < SlotsPerBlock; i++ {
		mdPos, slotIdx := b.bucketEnd(0)
		b.insertSlot(slotIdx, makeSlot(tag(i), 0))
		b.extend(mdPos)
	}
	start, end := b.runBounds(0)
	require.Equal(t, 0, start)
	require.Equal(t, SlotsPerBlock, end)
}
