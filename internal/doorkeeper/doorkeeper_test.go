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

package doorkeeper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmitOnce(t *testing.T) {
	d := New(1 << 16)

	require.False(t, d.AdmitOnce(12345))
	require.True(t, d.AdmitOnce(12345))
	require.True(t, d.MightContain(12345))
}

func TestAdmitOnceDistinctKeys(t *testing.T) {
	d := New(1 << 16)

	for i := uint64(0); i < 256; i++ {
		require.False(t, d.AdmitOnce(i*0x9E3779B97F4A7C15))
	}
	for i := uint64(0); i < 256; i++ {
		require.True(t, d.AdmitOnce(i*0x9E3779B97F4A7C15))
	}
}

func TestReset(t *testing.T) {
	d := New(1024)
	require.False(t, d.AdmitOnce(1))
	require.True(t, d.MightContain(1))

	d.Reset()
	require.False(t, d.MightContain(1))
}

func TestNewRoundsUpToPowerOfTwo(t *testing.T) {
	d := New(100)
	require.Equal(t, uint32(127), d.mask)
}

func TestNewZero(t *testing.T) {
	d := New(0)
	require.NotPanics(t, func() { d.AdmitOnce(1) })
}
