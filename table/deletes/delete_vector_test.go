// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package deletes

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteVectorBasics(t *testing.T) {
	dv := NewDeleteVector(9, 1, 5)
	assert.EqualValues(t, 3, dv.Len())
	assert.False(t, dv.IsEmpty())
	assert.True(t, dv.Contains(5))
	assert.False(t, dv.Contains(2))
	assert.Equal(t, []uint64{1, 5, 9}, dv.ToSlice())

	dv.Add(5)
	assert.EqualValues(t, 3, dv.Len())

	dv.AddRange(10, 15)
	assert.Equal(t, []uint64{1, 5, 9, 10, 11, 12, 13, 14}, dv.ToSlice())

	dv.AddRange(20, 20)
	assert.EqualValues(t, 8, dv.Len())
}

func TestDeleteVectorZeroValue(t *testing.T) {
	var dv DeleteVector
	assert.True(t, dv.IsEmpty())
	assert.EqualValues(t, 0, dv.Len())

	dv.Add(1 << 40)
	assert.True(t, dv.Contains(1<<40))
}

func TestDeleteVectorUnion(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs []uint64
		expected []uint64
	}{
		{"disjoint", []uint64{0, 1, 2}, []uint64{7, 8}, []uint64{0, 1, 2, 7, 8}},
		{"overlapping", []uint64{0, 1, 2}, []uint64{2, 3}, []uint64{0, 1, 2, 3}},
		{"empty argument", []uint64{4}, nil, []uint64{4}},
		{"empty receiver", nil, []uint64{4}, []uint64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lhs, rhs := NewDeleteVector(tt.lhs...), NewDeleteVector(tt.rhs...)
			before := lhs.Len()
			lhs.Union(rhs)
			assert.Equal(t, tt.expected, lhs.ToSlice())
			assert.GreaterOrEqual(t, lhs.Len(), before)
			// the argument is untouched
			assert.Len(t, rhs.ToSlice(), len(tt.rhs))
		})
	}

	t.Run("self and nil", func(t *testing.T) {
		dv := NewDeleteVector(1, 2)
		dv.Union(dv)
		dv.Union(nil)
		assert.Equal(t, []uint64{1, 2}, dv.ToSlice())
	})
}

func TestDeleteVectorConcurrentUnion(t *testing.T) {
	a := NewDeleteVector()
	b := NewDeleteVector()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Union(NewDeleteVector(uint64(i)))
			a.Union(b)
		}()
		go func() {
			defer wg.Done()
			b.Union(NewDeleteVector(uint64(1000 + i)))
			b.Union(a)
		}()
	}
	wg.Wait()

	a.Union(b)
	assert.EqualValues(t, 100, a.Len())
}

func TestDeleteVectorPositions(t *testing.T) {
	dv := NewDeleteVector(30, 10, 20)
	assert.Equal(t, []uint64{10, 20, 30}, slices.Collect(dv.Positions()))

	var first []uint64
	for p := range dv.Positions() {
		first = append(first, p)
		break
	}
	assert.Equal(t, []uint64{10}, first)
}

func TestDeleteVectorCloneIsIndependent(t *testing.T) {
	dv := NewDeleteVector(1, 2, 3)
	cp := dv.Clone()
	cp.Add(4)

	assert.EqualValues(t, 3, dv.Len())
	assert.EqualValues(t, 4, cp.Len())
}

func TestDeleteVectorBinaryRoundTrip(t *testing.T) {
	dv := NewDeleteVector(0, 1<<33, 1<<33+1)
	dv.AddRange(500, 600)

	data, err := dv.MarshalBinary()
	require.NoError(t, err)

	var out DeleteVector
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, dv.ToSlice(), out.ToSlice())

	assert.Error(t, out.UnmarshalBinary([]byte{0xff}))
	// a failed decode leaves the previous contents
	assert.Equal(t, dv.Len(), out.Len())
}
