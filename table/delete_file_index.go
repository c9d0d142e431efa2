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
	"iter"
	"slices"
	"sync"

	"github.com/pgiceberg/iceberg-lite"
	"golang.org/x/sync/errgroup"
)

// DeleteFileContext is a delete file manifest entry together with the id
// of the partition spec it was written under. It is never modified once
// inserted into a builder and may be referenced from several buckets.
type DeleteFileContext struct {
	Entry           iceberg.ManifestEntry
	PartitionSpecID int32
}

func (c *DeleteFileContext) toScanTaskDeleteFile() FileScanTaskDeleteFile {
	df := c.Entry.DataFile()

	return FileScanTaskDeleteFile{
		FilePath:        df.FilePath(),
		FileType:        df.ContentType(),
		PartitionSpecID: c.PartitionSpecID,
		EqualityIDs:     df.EqualityFieldIDs(),
	}
}

type deleteBuckets struct {
	globalEqDeletes       []*DeleteFileContext
	eqDeletesByPartition  map[string][]*DeleteFileContext
	posDeletesByPartition map[string][]*DeleteFileContext
}

func (b *deleteBuckets) insert(ctx *DeleteFileContext) {
	df := ctx.Entry.DataFile()
	partition := df.Partition()

	// equality deletes written under an unpartitioned spec are global
	if len(partition) == 0 && df.ContentType() == iceberg.EntryContentEqDeletes {
		b.globalEqDeletes = append(b.globalEqDeletes, ctx)

		return
	}

	var dest map[string][]*DeleteFileContext
	switch df.ContentType() {
	case iceberg.EntryContentPosDeletes:
		dest = b.posDeletesByPartition
	case iceberg.EntryContentEqDeletes:
		dest = b.eqDeletesByPartition
	default:
		panic(fmt.Errorf("%w: %s is not a delete file (content %s)",
			iceberg.ErrInvalidArgument, df.FilePath(), df.ContentType()))
	}

	key := iceberg.PartitionKey(partition)
	dest[key] = append(dest[key], ctx)
}

// DeleteFileIndexBuilder collects delete files before they are frozen
// into a DeleteFileIndex. Insert may be called from several goroutines.
type DeleteFileIndexBuilder struct {
	mx      sync.Mutex
	buckets *deleteBuckets
	built   bool
}

func NewDeleteFileIndexBuilder() *DeleteFileIndexBuilder {
	return &DeleteFileIndexBuilder{
		buckets: &deleteBuckets{
			eqDeletesByPartition:  make(map[string][]*DeleteFileContext),
			posDeletesByPartition: make(map[string][]*DeleteFileContext),
		},
	}
}

// Insert adds a positional or equality delete file to the index. It
// panics if ctx is not a delete file or if Build was already called.
func (b *DeleteFileIndexBuilder) Insert(ctx *DeleteFileContext) {
	b.mx.Lock()
	defer b.mx.Unlock()

	if b.built {
		panic("table: DeleteFileIndexBuilder.Insert called after Build")
	}

	b.buckets.insert(ctx)
}

// Build freezes the inserted delete files into an index. The builder
// cannot be used afterwards.
func (b *DeleteFileIndexBuilder) Build() *DeleteFileIndex {
	b.mx.Lock()
	defer b.mx.Unlock()

	if b.built {
		panic("table: DeleteFileIndexBuilder.Build called twice")
	}

	b.built = true
	buckets := b.buckets
	b.buckets = nil

	return &DeleteFileIndex{buckets: buckets}
}

// DeleteFileIndex maps data files to the delete files that apply to them.
// It is immutable and safe for concurrent use.
type DeleteFileIndex struct {
	buckets *deleteBuckets
}

// BuildDeleteFileIndex indexes every live delete entry of entries using up
// to concurrency goroutines. Data entries and entries with status DELETED
// are skipped. specs must contain the spec of every delete entry.
func BuildDeleteFileIndex(ctx context.Context, entries iter.Seq[iceberg.ManifestEntry], specs map[int32]iceberg.PartitionSpec, concurrency int) (*DeleteFileIndex, error) {
	builder := NewDeleteFileIndexBuilder()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for entry := range entries {
		if gctx.Err() != nil {
			break
		}

		df := entry.DataFile()
		if df.ContentType() == iceberg.EntryContentData ||
			entry.Status() == iceberg.EntryStatusDELETED {
			continue
		}

		g.Go(func() error {
			switch df.ContentType() {
			case iceberg.EntryContentPosDeletes, iceberg.EntryContentEqDeletes:
			default:
				return fmt.Errorf("%w: unsupported content %s for %s",
					iceberg.ErrInvalidArgument, df.ContentType(), df.FilePath())
			}

			spec, ok := specs[df.SpecID()]
			if !ok {
				return fmt.Errorf("%w: delete file %s references unknown partition spec %d",
					iceberg.ErrInvalidArgument, df.FilePath(), df.SpecID())
			}

			if err := checkPartitionFields(spec, df.Partition()); err != nil {
				return fmt.Errorf("delete file %s: %w", df.FilePath(), err)
			}

			builder.Insert(&DeleteFileContext{Entry: entry, PartitionSpecID: df.SpecID()})

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}

func checkPartitionFields(spec iceberg.PartitionSpec, partition map[int]any) error {
	if len(partition) != spec.NumFields() {
		return fmt.Errorf("%w: partition has %d values, spec %d has %d fields",
			iceberg.ErrInvalidArgument, len(partition), spec.ID(), spec.NumFields())
	}

	for field := range spec.Fields() {
		if _, ok := partition[field.FieldID]; !ok {
			return fmt.Errorf("%w: partition is missing field %s (id=%d) of spec %d",
				iceberg.ErrInvalidArgument, field.Name, field.FieldID, spec.ID())
		}
	}

	return nil
}

// Len returns the number of delete files held by the index.
func (idx *DeleteFileIndex) Len() int {
	n := len(idx.buckets.globalEqDeletes)
	for _, v := range idx.buckets.eqDeletesByPartition {
		n += len(v)
	}
	for _, v := range idx.buckets.posDeletesByPartition {
		n += len(v)
	}

	return n
}

// GetDeletesForDataFile returns the delete files that must be applied when
// reading dataFile. seqNum is the data sequence number of the data file,
// nil when unknown, in which case every candidate applies.
//
// Equality deletes apply only when committed strictly after the data file.
// Positional deletes also apply when committed in the same snapshot. Both
// kinds of partitioned deletes must share the data file's partition spec.
// The result lists global equality deletes, then partition equality
// deletes, then positional deletes.
func (idx *DeleteFileIndex) GetDeletesForDataFile(dataFile iceberg.DataFile, seqNum *int64) []FileScanTaskDeleteFile {
	var (
		results = make([]FileScanTaskDeleteFile, 0)
		key     = iceberg.PartitionKey(dataFile.Partition())
		specID  = dataFile.SpecID()
	)

	for _, del := range idx.buckets.globalEqDeletes {
		if seqNum == nil || del.Entry.SequenceNum() > *seqNum {
			results = append(results, del.toScanTaskDeleteFile())
		}
	}

	for _, del := range idx.buckets.eqDeletesByPartition[key] {
		if (seqNum == nil || del.Entry.SequenceNum() > *seqNum) && del.PartitionSpecID == specID {
			results = append(results, del.toScanTaskDeleteFile())
		}
	}

	// TODO: narrow positional deletes by the delete file's referenced data
	// file once callers no longer rely on the row-level path filter.
	for _, del := range idx.buckets.posDeletesByPartition[key] {
		if (seqNum == nil || del.Entry.SequenceNum() >= *seqNum) && del.PartitionSpecID == specID {
			results = append(results, del.toScanTaskDeleteFile())
		}
	}

	return slices.Clip(results)
}
