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

package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pgiceberg/iceberg-lite"
	"github.com/pgiceberg/iceberg-lite/internal"
	iceio "github.com/pgiceberg/iceberg-lite/io"
)

const (
	ParquetRowGroupLimitKey        = "write.parquet.row-group-limit"
	ParquetRowGroupLimitDefault    = 1048576
	ParquetPageSizeBytesKey        = "write.parquet.page-size-bytes"
	ParquetPageSizeBytesDefault    = 1024 * 1024 // 1 MB
	ParquetCompressionKey          = "write.parquet.compression-codec"
	ParquetCompressionDefault      = "zstd"
	ParquetCompressionLevelKey     = "write.parquet.compression-level"
	ParquetCompressionLevelDefault = -1
	ParquetReadBatchSizeDefault    = 64 * 1024
)

type ParquetFileSource struct {
	mem  memory.Allocator
	fs   iceio.IO
	path string
}

func (p *ParquetFileSource) GetReader(ctx context.Context) (FileReader, error) {
	return parquetFormat{}.Open(ctx, p.mem, p.fs, p.path)
}

type parquetFormat struct{}

func (parquetFormat) Open(ctx context.Context, mem memory.Allocator, fs iceio.IO, path string) (FileReader, error) {
	inputfile, err := fs.Open(path)
	if err != nil {
		return nil, err
	}

	rdr, err := file.NewParquetReader(inputfile)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open parquet file %s: %w", path, err),
			inputfile.Close())
	}

	arrRdr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{
		BatchSize: ParquetReadBatchSizeDefault,
	}, mem)
	if err != nil {
		return nil, errors.Join(err, rdr.Close())
	}

	return wrapPqArrowReader{arrRdr}, nil
}

type wrapPqArrowReader struct {
	*pqarrow.FileReader
}

func (w wrapPqArrowReader) Close() error {
	return w.ParquetReader().Close()
}

func (w wrapPqArrowReader) NumRows() int64 {
	return w.ParquetReader().NumRows()
}

func (w wrapPqArrowReader) Batches(ctx context.Context) iter.Seq2[arrow.Record, error] {
	return func(yield func(arrow.Record, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)

			return
		}

		// nil columns and row groups read the whole file
		rr, err := w.GetRecordReader(ctx, nil, nil)
		if err != nil {
			yield(nil, err)

			return
		}
		defer rr.Release()

		for rr.Next() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)

				return
			}

			if !yield(rr.Record(), nil) {
				return
			}
		}

		if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
			yield(nil, err)
		}
	}
}

// GetWriteProperties translates table properties into parquet writer
// properties.
func GetWriteProperties(props iceberg.Properties) []parquet.WriterProperty {
	writerProps := []parquet.WriterProperty{
		parquet.WithDictionaryDefault(false),
		parquet.WithMaxRowGroupLength(int64(props.GetInt(ParquetRowGroupLimitKey,
			ParquetRowGroupLimitDefault))),
		parquet.WithDataPageSize(int64(props.GetInt(ParquetPageSizeBytesKey,
			ParquetPageSizeBytesDefault))),
		parquet.WithDataPageVersion(parquet.DataPageV2),
	}

	compressionLevel := props.GetInt(ParquetCompressionLevelKey,
		ParquetCompressionLevelDefault)

	var codec compress.Compression
	switch props.Get(ParquetCompressionKey, ParquetCompressionDefault) {
	case "snappy":
		codec = compress.Codecs.Snappy
	case "zstd":
		codec = compress.Codecs.Zstd
	case "gzip":
		codec = compress.Codecs.Gzip
	case "brotli":
		codec = compress.Codecs.Brotli
	case "lz4raw":
		codec = compress.Codecs.Lz4Raw
	default:
		codec = compress.Codecs.Uncompressed
	}

	return append(writerProps, parquet.WithCompression(codec),
		parquet.WithCompressionLevel(compressionLevel))
}

// WriteParquetFile writes batches to path as a single parquet file and
// returns the number of bytes written. Field ids carried in the
// PARQUET:field_id metadata of the arrow schema are kept in the file.
func WriteParquetFile(ctx context.Context, mem memory.Allocator, fs iceio.WriteFileIO, path string, props iceberg.Properties, sc *arrow.Schema, batches ...arrow.Record) (_ int64, err error) {
	fw, err := fs.Create(path)
	if err != nil {
		return 0, err
	}

	defer internal.CheckedClose(fw, &err)

	cntWriter := internal.CountingWriter{W: fw}
	writerProps := parquet.NewWriterProperties(GetWriteProperties(props)...)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem), pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(sc, &cntWriter, writerProps, arrProps)
	if err != nil {
		return 0, err
	}

	for _, batch := range batches {
		if err := writer.WriteBuffered(batch); err != nil {
			return 0, errors.Join(err, writer.Close())
		}
	}

	if err := writer.Close(); err != nil {
		return 0, err
	}

	return cntWriter.Count, nil
}
