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
	"errors"
	"iter"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pgiceberg/iceberg-lite"
	iceio "github.com/pgiceberg/iceberg-lite/io"
	"github.com/pgiceberg/iceberg-lite/table/internal"
)

var errIteratorConsumed = errors.New("record iterator can only be consumed once")

// DeleteFileLoader decodes a single delete file into record batches whose
// columns follow the given table schema.
type DeleteFileLoader interface {
	ReadDeleteFile(ctx context.Context, task FileScanTaskDeleteFile, schema *iceberg.Schema) (iter.Seq2[arrow.Record, error], error)
}

// BasicDeleteFileLoader reads delete files through an IO without any
// caching. It is safe for concurrent use.
type BasicDeleteFileLoader struct {
	fs  iceio.IO
	mem memory.Allocator

	downcastNsTimestamp bool
}

// NewBasicDeleteFileLoader returns a loader reading from fs. A nil mem
// uses memory.DefaultAllocator.
func NewBasicDeleteFileLoader(fs iceio.IO, mem memory.Allocator) *BasicDeleteFileLoader {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	return &BasicDeleteFileLoader{fs: fs, mem: mem}
}

// WithDowncastNsTimestamp returns a copy of l that narrows nanosecond
// timestamp columns to microseconds instead of rejecting them.
func (l *BasicDeleteFileLoader) WithDowncastNsTimestamp(allow bool) *BasicDeleteFileLoader {
	out := *l
	out.downcastNsTimestamp = allow

	return &out
}

// ParquetToBatchIterator opens the parquet file at path and returns a
// single-use iterator over all of its records. Errors opening the file
// are returned directly, decode errors are yielded by the iterator. The
// file is closed once the iteration ends, so the iterator should always
// be ranged over.
//
// A record is released when the loop body returns; call Retain to keep it.
func (l *BasicDeleteFileLoader) ParquetToBatchIterator(ctx context.Context, path string) (iter.Seq2[arrow.Record, error], error) {
	ctx = compute.WithAllocator(ctx, l.mem)

	src, err := internal.GetFile(ctx, l.fs, path, iceberg.ParquetFile)
	if err != nil {
		return nil, err
	}

	rdr, err := src.GetReader(ctx)
	if err != nil {
		return nil, err
	}

	var used atomic.Bool

	return func(yield func(arrow.Record, error) bool) {
		if used.Swap(true) {
			yield(nil, errIteratorConsumed)

			return
		}
		defer rdr.Close()

		for rec, err := range rdr.Batches(ctx) {
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}, nil
}

// ReadSchema returns the Iceberg schema of the parquet file at path. Every
// column of the file must carry a field id.
func (l *BasicDeleteFileLoader) ReadSchema(ctx context.Context, path string) (*iceberg.Schema, error) {
	src, err := internal.GetFile(compute.WithAllocator(ctx, l.mem), l.fs, path, iceberg.ParquetFile)
	if err != nil {
		return nil, err
	}

	rdr, err := src.GetReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	sc, err := rdr.Schema()
	if err != nil {
		return nil, err
	}

	return ArrowSchemaToIceberg(sc, true)
}

// EvolveSchema wraps batches so that every record is projected onto the
// fields of target listed in fieldIDs. Columns of the file not listed are
// dropped, missing optional fields are filled with nulls and narrower
// types are promoted. Evolution happens lazily per record; an error ends
// the iteration after it is yielded.
func (l *BasicDeleteFileLoader) EvolveSchema(ctx context.Context, batches iter.Seq2[arrow.Record, error], target *iceberg.Schema, fieldIDs []int) iter.Seq2[arrow.Record, error] {
	ctx = compute.WithAllocator(ctx, l.mem)

	return func(yield func(arrow.Record, error) bool) {
		for rec, err := range batches {
			if err != nil {
				yield(nil, err)

				return
			}

			out, err := evolveRecord(ctx, l.mem, rec, target, fieldIDs, l.downcastNsTimestamp)
			if err != nil {
				yield(nil, err)

				return
			}

			cont := yield(out, nil)
			out.Release()
			if !cont {
				return
			}
		}
	}
}

// ReadDeleteFile reads the delete file of task and evolves it to schema.
// Equality delete files are restricted to their equality field ids since
// they only carry the columns of the delete key. Otherwise every field of
// schema is kept.
func (l *BasicDeleteFileLoader) ReadDeleteFile(ctx context.Context, task FileScanTaskDeleteFile, schema *iceberg.Schema) (iter.Seq2[arrow.Record, error], error) {
	fieldIDs := task.EqualityIDs
	if len(fieldIDs) == 0 {
		fieldIDs = schema.FieldIDs()
	}

	batches, err := l.ParquetToBatchIterator(ctx, task.FilePath)
	if err != nil {
		return nil, err
	}

	return l.EvolveSchema(ctx, batches, schema, fieldIDs), nil
}

// ReadPositionalDeletes reads the file_path and pos columns of the
// positional delete file at path. The table schema plays no part since
// those columns have reserved field ids.
func (l *BasicDeleteFileLoader) ReadPositionalDeletes(ctx context.Context, path string) (iter.Seq2[arrow.Record, error], error) {
	batches, err := l.ParquetToBatchIterator(ctx, path)
	if err != nil {
		return nil, err
	}

	return l.EvolveSchema(ctx, batches, iceberg.PositionalDeleteSchema,
		[]int{iceberg.PositionalDeleteFilePathFieldID, iceberg.PositionalDeletePosFieldID}), nil
}
