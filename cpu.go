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

import "golang.org/x/sys/cpu"

// hasHardwarePDEP reports whether the running amd64 CPU has the BMI2 and
// POPCNT instructions that a hardware pdep/pext/popcount implementation
// would compile to. It is informational only: pdep64/pext64/popcount64 in
// codec.go are the portable software forms and are always what actually
// runs, on every architecture, regardless of this value. See DESIGN.md for
// why no hand-written BMI2 assembly path is shipped alongside them.
func hasHardwarePDEP() bool {
	return cpu.X86.HasBMI2 && cpu.X86.HasPOPCNT
}
