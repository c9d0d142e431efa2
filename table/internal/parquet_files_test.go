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

package internal_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/google/uuid"
	"github.com/pgiceberg/iceberg-lite"
	internal2 "github.com/pgiceberg/iceberg-lite/internal"
	iceio "github.com/pgiceberg/iceberg-lite/io"
	"github.com/pgiceberg/iceberg-lite/table/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testArrowSchema = arrow.NewSchema([]arrow.Field{
	{
		Name: "id", Type: arrow.PrimitiveTypes.Int64,
		Metadata: arrow.NewMetadata([]string{"PARQUET:field_id"}, []string{"1"}),
	},
	{
		Name: "data", Type: arrow.BinaryTypes.String, Nullable: true,
		Metadata: arrow.NewMetadata([]string{"PARQUET:field_id"}, []string{"2"}),
	},
}, nil)

func TestGetWriteProperties(t *testing.T) {
	tests := []struct {
		codec    string
		expected compress.Compression
	}{
		{"", compress.Codecs.Zstd},
		{"snappy", compress.Codecs.Snappy},
		{"gzip", compress.Codecs.Gzip},
		{"brotli", compress.Codecs.Brotli},
		{"lz4raw", compress.Codecs.Lz4Raw},
		{"uncompressed", compress.Codecs.Uncompressed},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			props := iceberg.Properties{internal.ParquetRowGroupLimitKey: "10"}
			if tt.codec != "" {
				props[internal.ParquetCompressionKey] = tt.codec
			}

			wp := parquet.NewWriterProperties(internal.GetWriteProperties(props)...)
			assert.Equal(t, tt.expected, wp.Compression())
			assert.EqualValues(t, 10, wp.MaxRowGroupLength())
			assert.False(t, wp.DictionaryEnabled())
		})
	}
}

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	rec, _, err := array.RecordFromJSON(mem, testArrowSchema, strings.NewReader(`[
		{"id": 1, "data": "foo"},
		{"id": 2, "data": null},
		{"id": 3, "data": "bar"}
	]`))
	require.NoError(t, err)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), uuid.NewString()+".parquet")
	fs := iceio.LocalFS{}

	written, err := internal.WriteParquetFile(context.Background(), mem, fs, path,
		iceberg.Properties{internal.ParquetCompressionKey: "snappy"}, testArrowSchema, rec)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), written)

	src, err := internal.GetFile(context.Background(), fs, path, iceberg.ParquetFile)
	require.NoError(t, err)

	rdr, err := src.GetReader(context.Background())
	require.NoError(t, err)
	defer rdr.Close()

	assert.EqualValues(t, 3, rdr.NumRows())

	sc, err := rdr.Schema()
	require.NoError(t, err)
	require.Equal(t, 2, sc.NumFields())
	id, ok := sc.Field(1).Metadata.GetValue("PARQUET:field_id")
	assert.True(t, ok)
	assert.Equal(t, "2", id)

	var total int64
	for batch, err := range rdr.Batches(context.Background()) {
		require.NoError(t, err)
		assert.True(t, array.RecordEqual(rec, batch))
		total += batch.NumRows()
	}
	assert.EqualValues(t, 3, total)
}

func TestBatchesCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.parquet")
	rec, _, err := array.RecordFromJSON(memory.DefaultAllocator, testArrowSchema,
		strings.NewReader(`[{"id": 1, "data": "x"}]`))
	require.NoError(t, err)
	defer rec.Release()

	_, err = internal.WriteParquetFile(context.Background(), memory.DefaultAllocator,
		iceio.LocalFS{}, path, nil, testArrowSchema, rec)
	require.NoError(t, err)

	src, err := internal.GetFile(context.Background(), iceio.LocalFS{}, path, "")
	require.NoError(t, err)
	rdr, err := src.GetReader(context.Background())
	require.NoError(t, err)
	defer rdr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range rdr.Batches(ctx) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestGetFileUnsupportedFormat(t *testing.T) {
	for _, format := range []iceberg.FileFormat{iceberg.AvroFile, iceberg.OrcFile} {
		_, err := internal.GetFile(context.Background(), iceio.LocalFS{}, "f", format)
		assert.ErrorIs(t, err, iceberg.ErrNotImplemented)
	}
}

func TestGetReaderErrors(t *testing.T) {
	errStorage := errors.New("storage unavailable")

	fs := &internal2.MockFS{}
	fs.On("Open", "s3://bucket/missing.parquet").Return(nil, errStorage)

	garbage := internal2.NewMockFile([]byte("definitely not a parquet file"))
	fs.On("Open", "s3://bucket/garbage.parquet").Return(garbage, nil)

	src, err := internal.GetFile(context.Background(), fs, "s3://bucket/missing.parquet", iceberg.ParquetFile)
	require.NoError(t, err)
	_, err = src.GetReader(context.Background())
	assert.ErrorIs(t, err, errStorage)

	src, err = internal.GetFile(context.Background(), fs, "s3://bucket/garbage.parquet", iceberg.ParquetFile)
	require.NoError(t, err)
	_, err = src.GetReader(context.Background())
	assert.ErrorContains(t, err, "garbage.parquet")
	assert.True(t, garbage.Closed())

	fs.AssertExpectations(t)
}

func TestWriteParquetFileCreateError(t *testing.T) {
	fs := &internal2.MockFS{}
	fs.On("Create", mock.Anything).Return(nil, os.ErrPermission)

	_, err := internal.WriteParquetFile(context.Background(), memory.DefaultAllocator,
		fs, "s3://bucket/out.parquet", nil, testArrowSchema)
	assert.ErrorIs(t, err, os.ErrPermission)
}
