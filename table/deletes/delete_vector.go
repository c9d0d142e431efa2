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
	"fmt"
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// DeleteVector is the set of deleted row positions of a single data file.
// Positions are relative to the start of the original data file, not to a
// split of it.
//
// The zero value is an empty vector. A DeleteVector is safe for
// concurrent use and must not be copied after first use. Vectors decoded from different
// positional delete files for the same data file are merged with Union.
type DeleteVector struct {
	mu    sync.Mutex
	inner *roaring64.Bitmap
}

// bitmap returns the backing bitmap, allocating it for a zero value.
// Callers hold dv.mu.
func (dv *DeleteVector) bitmap() *roaring64.Bitmap {
	if dv.inner == nil {
		dv.inner = roaring64.New()
	}

	return dv.inner
}

// NewDeleteVector returns a vector containing the given positions.
func NewDeleteVector(positions ...uint64) *DeleteVector {
	bm := roaring64.New()
	if len(positions) > 0 {
		bm.AddMany(positions)
	}

	return &DeleteVector{inner: bm}
}

func (dv *DeleteVector) Add(pos uint64) {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	dv.bitmap().Add(pos)
}

// AddRange marks every position in [start, end) as deleted.
func (dv *DeleteVector) AddRange(start, end uint64) {
	if end <= start {
		return
	}

	dv.mu.Lock()
	defer dv.mu.Unlock()
	dv.bitmap().AddRange(start, end)
}

func (dv *DeleteVector) Contains(pos uint64) bool {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return dv.bitmap().Contains(pos)
}

// Len returns the number of deleted positions.
func (dv *DeleteVector) Len() uint64 {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return dv.bitmap().GetCardinality()
}

func (dv *DeleteVector) IsEmpty() bool {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return dv.bitmap().IsEmpty()
}

// Union adds every position of other to dv. The receiver never shrinks.
//
// other is snapshotted under its own lock before dv is locked, so two
// vectors can be unioned into each other concurrently without deadlock.
func (dv *DeleteVector) Union(other *DeleteVector) {
	if other == nil || other == dv {
		return
	}

	other.mu.Lock()
	snapshot := other.bitmap().Clone()
	other.mu.Unlock()

	dv.mu.Lock()
	defer dv.mu.Unlock()
	dv.bitmap().Or(snapshot)
}

func (dv *DeleteVector) Clone() *DeleteVector {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return &DeleteVector{inner: dv.bitmap().Clone()}
}

// Positions iterates the deleted positions in ascending order. The
// iteration runs over a snapshot taken when it starts.
func (dv *DeleteVector) Positions() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		dv.mu.Lock()
		snapshot := dv.bitmap().Clone()
		dv.mu.Unlock()

		it := snapshot.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ToSlice returns the deleted positions in ascending order.
func (dv *DeleteVector) ToSlice() []uint64 {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return dv.bitmap().ToArray()
}

func (dv *DeleteVector) String() string {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return fmt.Sprintf("DeleteVector(len=%d)", dv.bitmap().GetCardinality())
}

// MarshalBinary encodes the vector with the portable 64-bit roaring format.
func (dv *DeleteVector) MarshalBinary() ([]byte, error) {
	dv.mu.Lock()
	defer dv.mu.Unlock()

	return dv.bitmap().MarshalBinary()
}

// UnmarshalBinary replaces the contents of dv with the decoded vector.
func (dv *DeleteVector) UnmarshalBinary(data []byte) error {
	bm := roaring64.New()
	if err := bm.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decode delete vector: %w", err)
	}

	dv.mu.Lock()
	defer dv.mu.Unlock()
	dv.inner = bm

	return nil
}
