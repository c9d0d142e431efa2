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
	"fmt"
	"io"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/pgiceberg/iceberg-lite"
	iceio "github.com/pgiceberg/iceberg-lite/io"
)

// GetFile returns the source for a content file stored at path in the
// given format. Only parquet is readable.
func GetFile(ctx context.Context, fs iceio.IO, path string, format iceberg.FileFormat) (FileSource, error) {
	switch format {
	case iceberg.ParquetFile, "":
		return &ParquetFileSource{
			mem:  compute.GetAllocator(ctx),
			fs:   fs,
			path: path,
		}, nil
	default:
		return nil, fmt.Errorf("%w: only parquet format is implemented, got %s",
			iceberg.ErrNotImplemented, format)
	}
}

type FileSource interface {
	GetReader(context.Context) (FileReader, error)
}

type FileReader interface {
	io.Closer

	Schema() (*arrow.Schema, error)
	NumRows() int64
	// Batches iterates every record of the file. A record is only valid
	// until the consumer returns from the loop body.
	Batches(ctx context.Context) iter.Seq2[arrow.Record, error]
}
