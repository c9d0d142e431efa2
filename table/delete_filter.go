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

package table

import (
	"context"
	"fmt"
	"sync"

	"github.com/pgiceberg/iceberg-lite"
	"github.com/pgiceberg/iceberg-lite/table/deletes"
)

// DeleteFilter caches the decoded contents of delete files for the
// duration of a scan. Each delete file is decoded at most once, however
// many goroutines ask for it. Positional deletes are merged into one
// DeleteVector per data file; equality deletes are kept as one predicate
// per delete file.
//
// A DeleteFilter is shared by pointer between the workers of a scan.
type DeleteFilter struct {
	mx sync.RWMutex

	deleteVectors     map[string]*deletes.DeleteVector
	positionalDeletes map[string]*onceCell[struct{}]
	equalityDeletes   map[string]*onceCell[iceberg.BooleanExpression]
}

func NewDeleteFilter() *DeleteFilter {
	return &DeleteFilter{
		deleteVectors:     make(map[string]*deletes.DeleteVector),
		positionalDeletes: make(map[string]*onceCell[struct{}]),
		equalityDeletes:   make(map[string]*onceCell[iceberg.BooleanExpression]),
	}
}

func getOrCreateCell[T any](mx *sync.RWMutex, cells map[string]*onceCell[T], path string) *onceCell[T] {
	mx.RLock()
	cell, ok := cells[path]
	mx.RUnlock()
	if ok {
		return cell
	}

	mx.Lock()
	defer mx.Unlock()
	if cell, ok = cells[path]; !ok {
		cell = &onceCell[T]{}
		cells[path] = cell
	}

	return cell
}

// LoadPosDelFile decodes the positional delete file at path with loader,
// unless it was already decoded, and merges the resulting vectors, keyed
// by data file path, into the filter. Concurrent calls for the same path
// wait for a single load and share its error. A failed load may be
// retried by a later call.
func (f *DeleteFilter) LoadPosDelFile(ctx context.Context, path string, loader func(context.Context) (map[string]*deletes.DeleteVector, error)) error {
	cell := getOrCreateCell(&f.mx, f.positionalDeletes, path)
	_, err := cell.getOrInit(ctx, func(ctx context.Context) (struct{}, error) {
		vectors, err := loader(ctx)
		if err != nil {
			return struct{}{}, err
		}

		for dataFilePath, dv := range vectors {
			f.upsertDeleteVector(dataFilePath, dv)
		}

		return struct{}{}, nil
	})

	return err
}

// LoadEqDelFile decodes the equality delete file at path into a predicate
// with loader, unless it was already decoded. It has the same
// concurrency guarantees as LoadPosDelFile.
func (f *DeleteFilter) LoadEqDelFile(ctx context.Context, path string, loader func(context.Context) (iceberg.BooleanExpression, error)) error {
	cell := getOrCreateCell(&f.mx, f.equalityDeletes, path)
	_, err := cell.getOrInit(ctx, func(ctx context.Context) (iceberg.BooleanExpression, error) {
		pred, err := loader(ctx)
		if err == nil && pred == nil {
			err = fmt.Errorf("%w: loader returned no predicate for equality delete file '%s'",
				iceberg.ErrUnexpected, path)
		}

		return pred, err
	})

	return err
}

// upsertDeleteVector stores dv for dataFilePath, or unions it into the
// vector already stored. The union happens outside the map lock so that
// vectors of other data files can be updated at the same time.
func (f *DeleteFilter) upsertDeleteVector(dataFilePath string, dv *deletes.DeleteVector) {
	f.mx.Lock()
	existing, ok := f.deleteVectors[dataFilePath]
	if !ok {
		f.deleteVectors[dataFilePath] = dv
	}
	f.mx.Unlock()

	if ok {
		existing.Union(dv)
	}
}

// GetDeleteVector returns the merged positional deletes of the task's
// data file, or nil when none were loaded.
func (f *DeleteFilter) GetDeleteVector(task *FileScanTask) *deletes.DeleteVector {
	return f.GetDeleteVectorForPath(task.DataFilePath)
}

func (f *DeleteFilter) GetDeleteVectorForPath(dataFilePath string) *deletes.DeleteVector {
	f.mx.RLock()
	defer f.mx.RUnlock()

	return f.deleteVectors[dataFilePath]
}

// GetEqualityDeletePredicate returns the predicate decoded from the
// equality delete file at path, if it was loaded.
func (f *DeleteFilter) GetEqualityDeletePredicate(path string) (iceberg.BooleanExpression, bool) {
	f.mx.RLock()
	cell, ok := f.equalityDeletes[path]
	f.mx.RUnlock()
	if !ok {
		return nil, false
	}

	return cell.get()
}

// PositionalDeleteFileLoaded reports whether the positional delete file
// at path was successfully loaded.
func (f *DeleteFilter) PositionalDeleteFileLoaded(path string) bool {
	f.mx.RLock()
	cell, ok := f.positionalDeletes[path]
	f.mx.RUnlock()
	if !ok {
		return false
	}

	_, loaded := cell.get()

	return loaded
}

// EqualityDeleteFileLoaded reports whether the equality delete file at
// path was successfully loaded.
func (f *DeleteFilter) EqualityDeleteFileLoaded(path string) bool {
	_, ok := f.GetEqualityDeletePredicate(path)

	return ok
}

// BuildEqualityDeletePredicate combines the predicates of every equality
// delete file of task with AND and binds the result to the task schema.
// Rows for which the result is true survive the equality deletes. It
// returns nil when the task has no equality deletes.
//
// Every equality delete file of the task must have been loaded first,
// otherwise it fails with iceberg.ErrUnexpected.
func (f *DeleteFilter) BuildEqualityDeletePredicate(task *FileScanTask) (iceberg.BooleanExpression, error) {
	var combined iceberg.BooleanExpression = iceberg.AlwaysTrue{}

	for _, del := range task.Deletes {
		if !del.IsEqualityDelete() {
			continue
		}

		pred, ok := f.GetEqualityDeletePredicate(del.FilePath)
		if !ok {
			return nil, fmt.Errorf("%w: missing predicate for equality delete file '%s', the delete file must be loaded first",
				iceberg.ErrUnexpected, del.FilePath)
		}

		combined = iceberg.NewAnd(combined, pred)
	}

	if combined.Equals(iceberg.AlwaysTrue{}) {
		return nil, nil
	}

	return iceberg.BindExpr(task.Schema, combined, task.CaseSensitive)
}
