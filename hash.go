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

import "github.com/cespare/xxhash/v2"

// scrambleMultiplier is the MurmurHash2 constant used to derive a key's
// alternate bucket from its primary bucket and tag. Its only required
// property is that, for a fixed tag, the map between a hash and its
// alternate is a well-distributed scramble, so remove/query land on the
// same two candidate blocks that insert used.
const scrambleMultiplier = 0x5bd1e995

// Hasher maps arbitrary keys to the 64-bit hashes Filter operates on. The
// hash function itself is outside the filter's core: callers that want to
// insert structured keys rather than precomputed hashes use a Hasher to
// get there. The zero value is not usable; use NewXXHasher or WithHasher's
// default.
type Hasher interface {
	Sum64([]byte) uint64
	Sum64String(string) uint64
}

// xxHasher is the default Hasher, backed by cespare/xxhash/v2 for
// general-purpose 64-bit hashing.
type xxHasher struct{}

func (xxHasher) Sum64(b []byte) uint64      { return xxhash.Sum64(b) }
func (xxHasher) Sum64String(s string) uint64 { return xxhash.Sum64String(s) }

// NewXXHasher returns the default Hasher implementation.
func NewXXHasher() Hasher { return xxHasher{} }

// locator holds the block/bucket coordinates and tag derived from a hash,
// for both the primary and alternate candidate.
type locator struct {
	tag              tag
	primaryBucket    uint64
	alternateBucket  uint64
}

// locate computes the two-choice coordinates for hash, given the filter's
// range (nblocks * BucketsPerBlock * 256). hash is folded into [0, rng)
// first so both the primary and alternate bucket end up within range --
// rng is always a multiple of 256, so this fold never changes the tag
// bits it also derives.
func locate(hash uint64, rng uint64) locator {
	hash %= rng
	t := tag(hash & 0xff)
	primary := hash >> TagBits
	alternate := ((hash ^ (uint64(t) * scrambleMultiplier)) % rng) >> TagBits
	return locator{tag: t, primaryBucket: primary, alternateBucket: alternate}
}

func (l locator) primaryBlock() uint64   { return l.primaryBucket / BucketsPerBlock }
func (l locator) primaryOffset() int     { return int(l.primaryBucket % BucketsPerBlock) }
func (l locator) alternateBlock() uint64 { return l.alternateBucket / BucketsPerBlock }
func (l locator) alternateOffset() int   { return int(l.alternateBucket % BucketsPerBlock) }
