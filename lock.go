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

import "sync/atomic"

// Per-block locking is a spin on bit 63 of md: the "control word" for a
// block doubles as its own spinlock, so no separate mutex field is needed.
// Acquisition is a compare-and-swap loop that sets the bit once it is seen
// clear; release is a compare-and-swap loop that clears it. There are no
// condition variables and no fairness.

func lockBlock(b *block) {
	word := &b.md
	for {
		cur := atomic.LoadUint64(word)
		if cur&lockBit != 0 {
			continue
		}
		if atomic.CompareAndSwapUint64(word, cur, cur|lockBit) {
			return
		}
	}
}

func unlockBlock(b *block) {
	word := &b.md
	for {
		cur := atomic.LoadUint64(word)
		if atomic.CompareAndSwapUint64(word, cur, cur&^lockBit) {
			return
		}
	}
}

// lockBlocks acquires the locks for two (possibly equal) block indices in
// ascending address order to avoid deadlock against a concurrent insert
// doing the same for the opposite pair.
func lockBlocks(blocks []block, i, j int) {
	if i == j {
		lockBlock(&blocks[i])
		return
	}
	if i < j {
		lockBlock(&blocks[i])
		lockBlock(&blocks[j])
	} else {
		lockBlock(&blocks[j])
		lockBlock(&blocks[i])
	}
}

// unlockBlocks releases the locks acquired by lockBlocks.
func unlockBlocks(blocks []block, i, j int) {
	if i == j {
		unlockBlock(&blocks[i])
		return
	}
	if i < j {
		unlockBlock(&blocks[i])
		unlockBlock(&blocks[j])
	} else {
		unlockBlock(&blocks[j])
		unlockBlock(&blocks[i])
	}
}
