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
	"slices"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pgiceberg/iceberg-lite"
)

// constants to look for as Keys in Arrow field metadata
const (
	ArrowFieldDocKey = "doc"
	// Arrow schemas that are generated from the Parquet library will utilize
	// this key to identify the field id of the source Parquet field.
	// We use this when converting to Iceberg to provide field IDs
	ArrowParquetFieldIDKey = "PARQUET:field_id"
)

var utcAliases = []string{"UTC", "+00:00", "Etc/UTC", "Z"}

func getFieldID(f arrow.Field) *int {
	if !f.HasMetadata() {
		return nil
	}

	fieldIDStr, ok := f.Metadata.GetValue(ArrowParquetFieldIDKey)
	if !ok {
		return nil
	}

	id, err := strconv.Atoi(fieldIDStr)
	if err != nil {
		return nil
	}

	if id > 0 {
		return &id
	}

	return nil
}

// ArrowTypeToIceberg returns the Iceberg primitive type that values of
// dt are read as. Nested arrow types are rejected.
func ArrowTypeToIceberg(dt arrow.DataType, downcastNsTimestamp bool) (iceberg.Type, error) {
	switch dt := dt.(type) {
	case *arrow.DictionaryType:
		return ArrowTypeToIceberg(dt.ValueType, downcastNsTimestamp)
	case *arrow.BooleanType:
		return iceberg.PrimitiveTypes.Bool, nil
	case *arrow.Uint8Type, *arrow.Uint16Type, *arrow.Int8Type,
		*arrow.Int16Type, *arrow.Int32Type:
		return iceberg.PrimitiveTypes.Int32, nil
	case *arrow.Uint32Type, *arrow.Int64Type:
		return iceberg.PrimitiveTypes.Int64, nil
	case *arrow.Float16Type, *arrow.Float32Type:
		return iceberg.PrimitiveTypes.Float32, nil
	case *arrow.Float64Type:
		return iceberg.PrimitiveTypes.Float64, nil
	case *arrow.StringType, *arrow.LargeStringType:
		return iceberg.PrimitiveTypes.String, nil
	case *arrow.BinaryType, *arrow.LargeBinaryType:
		return iceberg.PrimitiveTypes.Binary, nil
	case *arrow.Date32Type:
		return iceberg.PrimitiveTypes.Date, nil
	case *arrow.TimestampType:
		if dt.Unit == arrow.Nanosecond && !downcastNsTimestamp {
			return nil, fmt.Errorf("%w: 'ns' timestamp precision not supported", iceberg.ErrType)
		}

		switch {
		case slices.Contains(utcAliases, dt.TimeZone):
			return iceberg.PrimitiveTypes.TimestampTz, nil
		case dt.TimeZone == "":
			return iceberg.PrimitiveTypes.Timestamp, nil
		}
	}

	return nil, fmt.Errorf("%w: unsupported arrow type for conversion - %s",
		iceberg.ErrInvalidSchema, dt)
}

// ArrowSchemaToIceberg converts an arrow schema whose fields all carry a
// PARQUET:field_id into an Iceberg schema.
func ArrowSchemaToIceberg(sc *arrow.Schema, downcastNsTimestamp bool) (*iceberg.Schema, error) {
	fields := make([]iceberg.NestedField, 0, sc.NumFields())
	for _, f := range sc.Fields() {
		id := getFieldID(f)
		if id == nil {
			return nil, fmt.Errorf("%w: cannot convert %s to Iceberg field, missing field_id",
				iceberg.ErrInvalidSchema, f)
		}

		typ, err := ArrowTypeToIceberg(f.Type, downcastNsTimestamp)
		if err != nil {
			return nil, err
		}

		doc, _ := f.Metadata.GetValue(ArrowFieldDocKey)
		fields = append(fields, iceberg.NestedField{
			ID: *id, Name: f.Name, Type: typ, Required: !f.Nullable, Doc: doc,
		})
	}

	return iceberg.NewSchema(0, fields...), nil
}

// TypeToArrowType converts a given iceberg type into the equivalent Arrow
// data type.
func TypeToArrowType(t iceberg.Type, useLargeTypes bool) (arrow.DataType, error) {
	switch t.(type) {
	case iceberg.BooleanType:
		return arrow.FixedWidthTypes.Boolean, nil
	case iceberg.Int32Type:
		return arrow.PrimitiveTypes.Int32, nil
	case iceberg.Int64Type:
		return arrow.PrimitiveTypes.Int64, nil
	case iceberg.Float32Type:
		return arrow.PrimitiveTypes.Float32, nil
	case iceberg.Float64Type:
		return arrow.PrimitiveTypes.Float64, nil
	case iceberg.DateType:
		return arrow.FixedWidthTypes.Date32, nil
	case iceberg.TimestampType:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case iceberg.TimestampTzType:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case iceberg.StringType:
		if useLargeTypes {
			return arrow.BinaryTypes.LargeString, nil
		}

		return arrow.BinaryTypes.String, nil
	case iceberg.BinaryType:
		if useLargeTypes {
			return arrow.BinaryTypes.LargeBinary, nil
		}

		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("%w: no arrow type for %s", iceberg.ErrType, t)
	}
}

func fieldToArrowField(field iceberg.NestedField, typ arrow.DataType, includeFieldID bool) arrow.Field {
	meta := map[string]string{}
	if field.Doc != "" {
		meta[ArrowFieldDocKey] = field.Doc
	}

	if includeFieldID {
		meta[ArrowParquetFieldIDKey] = strconv.Itoa(field.ID)
	}

	return arrow.Field{
		Name:     field.Name,
		Type:     typ,
		Nullable: !field.Required,
		Metadata: arrow.MetadataFrom(meta),
	}
}

// SchemaToArrowSchema converts an Iceberg schema to an Arrow schema. If the metadata parameter
// is non-nil, it will be included as the top-level metadata in the schema. If includeFieldIDs
// is true, then each field of the schema will contain a metadata key PARQUET:field_id set to
// the field id from the iceberg schema.
func SchemaToArrowSchema(sc *iceberg.Schema, metadata map[string]string, includeFieldIDs, useLargeTypes bool) (*arrow.Schema, error) {
	fields := make([]arrow.Field, sc.NumFields())
	for i, f := range sc.Fields() {
		typ, err := TypeToArrowType(f.Type, useLargeTypes)
		if err != nil {
			return nil, err
		}

		fields[i] = fieldToArrowField(f, typ, includeFieldIDs)
	}

	var md *arrow.Metadata
	if metadata != nil {
		m := arrow.MetadataFrom(metadata)
		md = &m
	}

	return arrow.NewSchema(fields, md), nil
}

// castIfNeeded returns vals typed as field.Type. fileType is the Iceberg
// type the column was written as. The result is always a new reference
// that the caller releases.
func castIfNeeded(ctx context.Context, field iceberg.NestedField, fileType iceberg.Type, vals arrow.Array, downcastNsTimestamp bool) (arrow.Array, error) {
	if dict, ok := vals.(*array.Dictionary); ok {
		decoded, err := compute.TakeArray(ctx, dict.Dictionary(), dict.Indices())
		if err != nil {
			return nil, err
		}
		defer decoded.Release()

		return castIfNeeded(ctx, field, fileType, decoded, downcastNsTimestamp)
	}

	if !field.Type.Equals(fileType) {
		promoted, err := iceberg.PromoteType(fileType, field.Type)
		if err != nil {
			return nil, err
		}

		targetType, err := TypeToArrowType(promoted, false)
		if err != nil {
			return nil, err
		}

		return compute.CastArray(ctx, vals, compute.SafeCastOptions(targetType))
	}

	targetType, err := TypeToArrowType(field.Type, false)
	if err != nil {
		return nil, err
	}

	if arrow.TypeEqual(targetType, vals.DataType()) {
		vals.Retain()

		return vals, nil
	}

	if tt, ok := targetType.(*arrow.TimestampType); ok {
		vt, valok := vals.DataType().(*arrow.TimestampType)
		if valok && vt.Unit == arrow.Nanosecond && tt.Unit == arrow.Microsecond {
			if !downcastNsTimestamp {
				return nil, fmt.Errorf("%w: unsupported schema projection from %s to %s",
					iceberg.ErrInvalidSchema, vals.DataType(), targetType)
			}

			return compute.CastArray(ctx, vals, compute.UnsafeCastOptions(tt))
		}
	}

	// same logical type with a different physical width, e.g. int16 read
	// as int or large_string read as string
	return compute.CastArray(ctx, vals, compute.SafeCastOptions(targetType))
}

// evolveRecord projects rec onto the fields of target named by fieldIDs,
// in that order. Ids not in target are skipped. Source columns are found by
// their PARQUET:field_id, falling back to the column name when the file
// carries no ids. Nanosecond timestamps are only narrowed to microseconds
// when downcastNsTimestamp is set.
func evolveRecord(ctx context.Context, mem memory.Allocator, rec arrow.Record, target *iceberg.Schema, fieldIDs []int, downcastNsTimestamp bool) (arrow.Record, error) {
	byID := make(map[int]int, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		if id := getFieldID(f); id != nil {
			byID[*id] = i
		}
	}

	var (
		fields = make([]arrow.Field, 0, len(fieldIDs))
		cols   = make([]arrow.Array, 0, len(fieldIDs))
		seen   = make(map[int]struct{}, len(fieldIDs))
	)

	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	for _, id := range fieldIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		field, ok := target.FindFieldByID(id)
		if !ok {
			continue
		}

		idx, found := byID[id]
		if !found && len(byID) == 0 {
			if indices := rec.Schema().FieldIndices(field.Name); len(indices) > 0 {
				idx, found = indices[0], true
			}
		}

		var col arrow.Array
		if found {
			src := rec.Column(idx)
			fileType, err := ArrowTypeToIceberg(src.DataType(), true)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", field.Name, err)
			}

			if col, err = castIfNeeded(ctx, field, fileType, src, downcastNsTimestamp); err != nil {
				return nil, fmt.Errorf("column %s: %w", field.Name, err)
			}
		} else {
			if field.Required {
				return nil, fmt.Errorf("%w: required field %s (id=%d) is missing from the file",
					iceberg.ErrInvalidSchema, field.Name, field.ID)
			}

			typ, err := TypeToArrowType(field.Type, false)
			if err != nil {
				return nil, err
			}
			col = array.MakeArrayOfNull(mem, typ, int(rec.NumRows()))
		}

		cols = append(cols, col)
		fields = append(fields, fieldToArrowField(field, col.DataType(), true))
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}
