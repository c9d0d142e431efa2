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
	"log/slog"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pgiceberg/iceberg-lite"
	"github.com/pgiceberg/iceberg-lite/config"
	iceio "github.com/pgiceberg/iceberg-lite/io"
	"github.com/pgiceberg/iceberg-lite/table/deletes"
	"golang.org/x/sync/errgroup"
)

// positionalDeleteReader is implemented by loaders that can read the raw
// (file_path, pos) columns of a positional delete file.
type positionalDeleteReader interface {
	ReadPositionalDeletes(ctx context.Context, path string) (iter.Seq2[arrow.Record, error], error)
}

type LoaderOption func(*CachingDeleteFileLoader)

// WithAllocator sets the allocator used to decode delete files.
func WithAllocator(mem memory.Allocator) LoaderOption {
	return func(c *CachingDeleteFileLoader) {
		c.mem = mem
	}
}

// WithLogger sets the logger receiving a debug record per decoded file.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(c *CachingDeleteFileLoader) {
		c.logger = logger
	}
}

// WithDeleteFilter makes every LoadDeletes call populate and return
// filter instead of a new one, so the tasks of one scan share a cache.
// A file whose load was cut short by one caller's ctx is loaded again by
// the other callers waiting on it.
func WithDeleteFilter(filter *DeleteFilter) LoaderOption {
	return func(c *CachingDeleteFileLoader) {
		c.filter = filter
	}
}

// WithDowncastNsTimestamp lets the default loader narrow nanosecond
// timestamp columns to microseconds. It has no effect together with
// WithDeleteFileLoader.
func WithDowncastNsTimestamp(allow bool) LoaderOption {
	return func(c *CachingDeleteFileLoader) {
		c.downcastNsTimestamp = allow
	}
}

// WithDeleteFileLoader replaces the loader used to decode delete files.
func WithDeleteFileLoader(loader DeleteFileLoader) LoaderOption {
	return func(c *CachingDeleteFileLoader) {
		c.loader = loader
	}
}

// CachingDeleteFileLoader loads the delete files of scan tasks into a
// DeleteFilter, decoding up to concurrency files at once.
type CachingDeleteFileLoader struct {
	loader      DeleteFileLoader
	mem         memory.Allocator
	logger      *slog.Logger
	filter      *DeleteFilter
	concurrency int

	downcastNsTimestamp bool
}

// NewCachingDeleteFileLoader returns a loader reading delete files from
// fs. A concurrency of zero or less uses the max-workers setting of the
// configuration.
func NewCachingDeleteFileLoader(fs iceio.IO, concurrency int, opts ...LoaderOption) *CachingDeleteFileLoader {
	if concurrency <= 0 {
		concurrency = config.EnvConfig.MaxWorkers
	}

	c := &CachingDeleteFileLoader{
		mem:         memory.DefaultAllocator,
		concurrency: max(concurrency, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	if c.loader == nil {
		c.loader = NewBasicDeleteFileLoader(fs, c.mem).WithDowncastNsTimestamp(c.downcastNsTimestamp)
	}

	return c
}

type pendingDelete struct {
	file   FileScanTaskDeleteFile
	schema *iceberg.Schema
}

// LoadDeletes decodes every distinct delete file of deleteFiles into a
// DeleteFilter. Positional deletes end up as delete vectors keyed by data
// file path, equality deletes as predicates keyed by delete file path
// which can be combined with DeleteFilter.BuildEqualityDeletePredicate.
func (c *CachingDeleteFileLoader) LoadDeletes(ctx context.Context, deleteFiles []FileScanTaskDeleteFile, schema *iceberg.Schema) (*DeleteFilter, error) {
	pending := make([]pendingDelete, len(deleteFiles))
	for i, del := range deleteFiles {
		pending[i] = pendingDelete{file: del, schema: schema}
	}

	return c.load(ctx, pending)
}

// LoadDeletesForTasks loads the delete files of all tasks into a single
// DeleteFilter. Equality deletes are evolved to the schema of the first
// task referencing them.
func (c *CachingDeleteFileLoader) LoadDeletesForTasks(ctx context.Context, tasks []FileScanTask) (*DeleteFilter, error) {
	var pending []pendingDelete
	for _, t := range tasks {
		for _, del := range t.Deletes {
			pending = append(pending, pendingDelete{file: del, schema: t.Schema})
		}
	}

	return c.load(ctx, pending)
}

func (c *CachingDeleteFileLoader) load(ctx context.Context, pending []pendingDelete) (*DeleteFilter, error) {
	filter := c.filter
	if filter == nil {
		filter = NewDeleteFilter()
	}

	seen := make(map[string]struct{}, len(pending))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, p := range pending {
		if _, ok := seen[p.file.FilePath]; ok {
			continue
		}
		seen[p.file.FilePath] = struct{}{}

		g.Go(func() error {
			return c.loadDeleteFile(ctx, filter, p.file, p.schema)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filter, nil
}

func (c *CachingDeleteFileLoader) loadDeleteFile(ctx context.Context, filter *DeleteFilter, del FileScanTaskDeleteFile, schema *iceberg.Schema) error {
	switch del.FileType {
	case iceberg.EntryContentPosDeletes:
		return filter.LoadPosDelFile(ctx, del.FilePath, func(ctx context.Context) (map[string]*deletes.DeleteVector, error) {
			start := time.Now()

			batches, err := c.readPositionalDeletes(ctx, del)
			if err != nil {
				return nil, err
			}

			vectors, err := ParsePositionalDeletes(batches)
			if err != nil {
				return nil, err
			}

			var rows uint64
			for _, dv := range vectors {
				rows += dv.Len()
			}
			c.logger.Debug("loaded positional delete file",
				"path", del.FilePath, "data_files", len(vectors),
				"positions", rows, "duration", time.Since(start))

			return vectors, nil
		})
	case iceberg.EntryContentEqDeletes:
		return filter.LoadEqDelFile(ctx, del.FilePath, func(ctx context.Context) (iceberg.BooleanExpression, error) {
			start := time.Now()

			batches, err := c.loader.ReadDeleteFile(ctx, del, schema)
			if err != nil {
				return nil, err
			}

			pred, err := ParseEqualityDeletes(batches)
			if err != nil {
				return nil, err
			}

			c.logger.Debug("loaded equality delete file",
				"path", del.FilePath, "equality_ids", del.EqualityIDs,
				"duration", time.Since(start))

			return pred, nil
		})
	default:
		return fmt.Errorf("%w: %s is not a delete file (content %s)",
			iceberg.ErrInvalidArgument, del.FilePath, del.FileType)
	}
}

func (c *CachingDeleteFileLoader) readPositionalDeletes(ctx context.Context, del FileScanTaskDeleteFile) (iter.Seq2[arrow.Record, error], error) {
	if rdr, ok := c.loader.(positionalDeleteReader); ok {
		return rdr.ReadPositionalDeletes(ctx, del.FilePath)
	}

	return c.loader.ReadDeleteFile(ctx, del, iceberg.PositionalDeleteSchema)
}
