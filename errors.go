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

import "errors"

// ErrFilterFull is returned by InsertValChecked when both candidate blocks
// for a hash are at capacity. InsertVal and Insert report the same
// condition as a plain false, keeping their signatures boolean-only.
var ErrFilterFull = errors.New("vqf: filter full")
