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
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pgiceberg/iceberg-lite"
	"github.com/pgiceberg/iceberg-lite/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrowTypeToIceberg(t *testing.T) {
	tests := []struct {
		dt       arrow.DataType
		expected iceberg.Type
	}{
		{arrow.FixedWidthTypes.Boolean, iceberg.PrimitiveTypes.Bool},
		{arrow.PrimitiveTypes.Int8, iceberg.PrimitiveTypes.Int32},
		{arrow.PrimitiveTypes.Uint16, iceberg.PrimitiveTypes.Int32},
		{arrow.PrimitiveTypes.Int32, iceberg.PrimitiveTypes.Int32},
		{arrow.PrimitiveTypes.Uint32, iceberg.PrimitiveTypes.Int64},
		{arrow.PrimitiveTypes.Int64, iceberg.PrimitiveTypes.Int64},
		{arrow.FixedWidthTypes.Float16, iceberg.PrimitiveTypes.Float32},
		{arrow.PrimitiveTypes.Float64, iceberg.PrimitiveTypes.Float64},
		{arrow.BinaryTypes.LargeString, iceberg.PrimitiveTypes.String},
		{arrow.BinaryTypes.Binary, iceberg.PrimitiveTypes.Binary},
		{arrow.FixedWidthTypes.Date32, iceberg.PrimitiveTypes.Date},
		{&arrow.TimestampType{Unit: arrow.Microsecond}, iceberg.PrimitiveTypes.Timestamp},
		{&arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "Etc/UTC"}, iceberg.PrimitiveTypes.TimestampTz},
		{&arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}, iceberg.PrimitiveTypes.TimestampTz},
		{&arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int16, ValueType: arrow.BinaryTypes.String}, iceberg.PrimitiveTypes.String},
	}

	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			got, err := table.ArrowTypeToIceberg(tt.dt, true)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equals(got), "expected %s, got %s", tt.expected, got)
		})
	}

	_, err := table.ArrowTypeToIceberg(&arrow.TimestampType{Unit: arrow.Nanosecond}, false)
	assert.ErrorIs(t, err, iceberg.ErrType)

	_, err = table.ArrowTypeToIceberg(&arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "America/New_York"}, true)
	assert.ErrorIs(t, err, iceberg.ErrInvalidSchema)

	_, err = table.ArrowTypeToIceberg(arrow.ListOf(arrow.PrimitiveTypes.Int32), true)
	assert.ErrorIs(t, err, iceberg.ErrInvalidSchema)
}

func TestArrowSchemaRoundTrip(t *testing.T) {
	schema := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
		iceberg.NestedField{ID: 2, Name: "name", Type: iceberg.PrimitiveTypes.String, Doc: "display name"},
		iceberg.NestedField{ID: 5, Name: "ts", Type: iceberg.PrimitiveTypes.TimestampTz},
		iceberg.NestedField{ID: 6, Name: "day", Type: iceberg.PrimitiveTypes.Date},
	)

	sc, err := table.SchemaToArrowSchema(schema, map[string]string{"k": "v"}, true, false)
	require.NoError(t, err)

	assert.Equal(t, 4, sc.NumFields())
	assert.False(t, sc.Field(0).Nullable)
	assert.True(t, sc.Field(1).Nullable)
	doc, _ := sc.Field(1).Metadata.GetValue(table.ArrowFieldDocKey)
	assert.Equal(t, "display name", doc)
	assert.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Timestamp_us, sc.Field(2).Type))
	v, _ := sc.Metadata().GetValue("k")
	assert.Equal(t, "v", v)

	back, err := table.ArrowSchemaToIceberg(sc, false)
	require.NoError(t, err)
	assert.True(t, schema.Equals(back), "expected %s, got %s", schema, back)

	large, err := table.SchemaToArrowSchema(schema, nil, false, true)
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.LargeString, large.Field(1).Type))
	assert.False(t, large.Field(1).HasMetadata() && large.Field(1).Metadata.FindKey(table.ArrowParquetFieldIDKey) >= 0)

	_, err = table.ArrowSchemaToIceberg(large, false)
	assert.ErrorIs(t, err, iceberg.ErrInvalidSchema)
}
