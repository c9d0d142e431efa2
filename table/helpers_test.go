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

package table_test

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/pgiceberg/iceberg-lite"
	iceio "github.com/pgiceberg/iceberg-lite/io"
	"github.com/pgiceberg/iceberg-lite/table/internal"
	"github.com/stretchr/testify/require"
)

func fieldWithID(name string, id int, dt arrow.DataType, nullable bool) arrow.Field {
	return arrow.Field{
		Name: name, Type: dt, Nullable: nullable,
		Metadata: arrow.NewMetadata([]string{"PARQUET:field_id"}, []string{strconv.Itoa(id)}),
	}
}

var positionalDeleteArrowSchema = arrow.NewSchema([]arrow.Field{
	fieldWithID("file_path", iceberg.PositionalDeleteFilePathFieldID, arrow.BinaryTypes.String, false),
	fieldWithID("pos", iceberg.PositionalDeletePosFieldID, arrow.PrimitiveTypes.Int64, false),
}, nil)

// writeParquet writes the JSON rows as a parquet file under dir and
// returns its path.
func writeParquet(t *testing.T, fs iceio.WriteFileIO, dir string, sc *arrow.Schema, rows string) string {
	t.Helper()

	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	rec, _, err := array.RecordFromJSON(mem, sc, strings.NewReader(rows))
	require.NoError(t, err)
	defer rec.Release()

	path := dir + "/" + uuid.NewString() + ".parquet"
	if !strings.Contains(dir, "://") {
		path = filepath.Join(dir, uuid.NewString()+".parquet")
	}

	_, err = internal.WriteParquetFile(context.Background(), mem, fs, path, nil, sc, rec)
	require.NoError(t, err)

	return path
}

// writePositionalDeletes writes a positional delete file holding the given
// positions for each data file path, in path order.
func writePositionalDeletes(t *testing.T, fs iceio.WriteFileIO, dir string, positions map[string][]uint64) string {
	t.Helper()

	var rows []string
	for _, dataFile := range slices.Sorted(maps.Keys(positions)) {
		for _, pos := range positions[dataFile] {
			rows = append(rows, `{"file_path": `+strconv.Quote(dataFile)+`, "pos": `+strconv.FormatUint(pos, 10)+`}`)
		}
	}

	return writeParquet(t, fs, dir, positionalDeleteArrowSchema, "["+strings.Join(rows, ",")+"]")
}
