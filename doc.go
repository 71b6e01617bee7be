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

// Package vqf implements a Vector Quotient Filter: an approximate-membership
// structure, similar in spirit to a Bloom or cuckoo filter, that additionally
// lets every inserted hash carry a small payload byte retrievable later. See
// https://www.vldb.org/pvldb/vol14/p2607-dai.pdf for the data structure this
// is modeled on.
//
// # Layout
//
// A Filter is a flat array of 64-byte blocks. Each block packs a 64-bit
// metadata word and 28 16-bit slots (an 8-bit tag plus an 8-bit payload).
// The metadata word's low 63 bits are a rank/select bit-vector: 36 logical
// buckets partition the 28 physical slots, with each bucket's boundary
// marked by a '1' bit and each occupied slot corresponding to a '0'.
// Locating a bucket's run is "select(i) - i", the standard quotient-filter
// identity. Bit 63 is reserved as a per-block spinlock.
//
// # Two-choice hashing
//
// Every 64-bit hash is first reduced modulo the filter's range; its low byte
// is the tag and the bits above it name the primary (block, bucket) pair.
// The alternate pair is derived by XORing the reduced hash with a scrambled
// function of its own tag and reducing modulo the range again. Insert
// accepts the primary block outright while it still has plenty of free
// space (see AltCheckThreshold); otherwise it picks whichever of the two
// blocks has more free space, falling back to the primary when both are
// equally loaded. This keeps load balanced across blocks without needing a
// second independent hash function.
//
// # Concurrency
//
// Each block's own metadata word doubles as its spinlock (see lock.go).
// Insert, Remove, Query, and IsPresent lock only the blocks they touch, in
// ascending index order when two are needed, so concurrent operations on
// disjoint blocks never contend and operations on shared blocks never
// deadlock.
package vqf
