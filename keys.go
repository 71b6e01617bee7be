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

// This file layers convenience methods that hash a caller's key with the
// Filter's configured Hasher before delegating to the hash-based core.
// They exist because most callers don't want to hash their own keys; the
// core operators in filter.go take a hash directly and never call into
// this file.

// InsertKey hashes key and inserts it with payload 0.
func (f *Filter) InsertKey(key []byte) bool {
	return f.Insert(f.hasher.Sum64(key))
}

// InsertKeyVal hashes key and inserts it with the given payload.
func (f *Filter) InsertKeyVal(key []byte, payload uint8) bool {
	return f.InsertVal(f.hasher.Sum64(key), payload)
}

// RemoveKey hashes key and removes one occurrence of it.
func (f *Filter) RemoveKey(key []byte) bool {
	return f.Remove(f.hasher.Sum64(key))
}

// IsPresentKey hashes key and reports whether it may be present.
func (f *Filter) IsPresentKey(key []byte) bool {
	return f.IsPresent(f.hasher.Sum64(key))
}

// InsertKeyString is InsertKey for string keys, avoiding a []byte copy.
func (f *Filter) InsertKeyString(key string) bool {
	return f.Insert(f.hasher.Sum64String(key))
}

// IsPresentKeyString is IsPresentKey for string keys, avoiding a []byte copy.
func (f *Filter) IsPresentKeyString(key string) bool {
	return f.IsPresent(f.hasher.Sum64String(key))
}
