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
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/pgiceberg/iceberg-lite"
	"github.com/pgiceberg/iceberg-lite/table/deletes"
)

// ParsePositionalDeletes groups the (file_path, pos) rows of a positional
// delete file by data file path. batches must have the file_path and pos
// columns first, as yielded by ReadPositionalDeletes.
func ParsePositionalDeletes(batches iter.Seq2[arrow.Record, error]) (map[string]*deletes.DeleteVector, error) {
	result := make(map[string]*deletes.DeleteVector)

	for rec, err := range batches {
		if err != nil {
			return nil, err
		}

		if rec.NumCols() < 2 {
			return nil, fmt.Errorf("%w: positional delete record has %d columns, expected file_path and pos",
				iceberg.ErrInvalidSchema, rec.NumCols())
		}

		paths, ok := rec.Column(0).(*array.String)
		if !ok {
			return nil, fmt.Errorf("%w: positional delete file_path column is %s",
				iceberg.ErrInvalidSchema, rec.Column(0).DataType())
		}

		positions, ok := rec.Column(1).(*array.Int64)
		if !ok {
			return nil, fmt.Errorf("%w: positional delete pos column is %s",
				iceberg.ErrInvalidSchema, rec.Column(1).DataType())
		}

		var (
			current string
			dv      *deletes.DeleteVector
		)

		for i := range paths.Len() {
			if paths.IsNull(i) || positions.IsNull(i) {
				return nil, fmt.Errorf("%w: null file_path or pos at row %d",
					iceberg.ErrInvalidSchema, i)
			}

			pos := positions.Value(i)
			if pos < 0 {
				return nil, fmt.Errorf("%w: negative position %d for %s",
					iceberg.ErrInvalidArgument, pos, paths.Value(i))
			}

			// rows are usually sorted by file_path, skip the lookup for runs
			if path := paths.Value(i); dv == nil || path != current {
				current = strings.Clone(path)
				if dv = result[current]; dv == nil {
					dv = deletes.NewDeleteVector()
					result[current] = dv
				}
			}

			dv.Add(uint64(pos))
		}
	}

	return result, nil
}

// ParseEqualityDeletes turns the rows of an equality delete file into a
// predicate that is true for the rows of a data file that are NOT deleted.
// Every delete row becomes a conjunction of column = value terms (IS NULL
// for nulls), the rows are OR-ed together and the result is negated.
//
// Column names come from the record schema, so batches should already be
// evolved to the table schema as done by ReadDeleteFile.
func ParseEqualityDeletes(batches iter.Seq2[arrow.Record, error]) (iceberg.BooleanExpression, error) {
	var rows []iceberg.BooleanExpression

	for rec, err := range batches {
		if err != nil {
			return nil, err
		}

		if rec.NumRows() == 0 {
			continue
		}

		if rec.NumCols() == 0 {
			return nil, fmt.Errorf("%w: equality delete record has no columns of the delete key",
				iceberg.ErrInvalidSchema)
		}

		refs := make([]iceberg.Reference, rec.NumCols())
		for i, f := range rec.Schema().Fields() {
			refs[i] = iceberg.Reference(f.Name)
		}

		for row := range int(rec.NumRows()) {
			terms := make([]iceberg.BooleanExpression, len(refs))
			for c, ref := range refs {
				col := rec.Column(c)
				if col.IsNull(row) {
					terms[c] = iceberg.IsNull(ref)

					continue
				}

				lit, err := literalAt(col, row)
				if err != nil {
					return nil, fmt.Errorf("column %s: %w", ref, err)
				}
				terms[c] = iceberg.LiteralPredicate(iceberg.OpEQ, ref, lit)
			}

			rows = append(rows, balanced(terms, iceberg.AlwaysTrue{}, iceberg.NewAnd))
		}
	}

	return iceberg.NewNot(balanced(rows, iceberg.AlwaysFalse{}, iceberg.NewOr)), nil
}

// balanced combines exprs into a tree of logarithmic depth so that large
// delete files do not produce deeply nested expressions.
func balanced(exprs []iceberg.BooleanExpression, identity iceberg.BooleanExpression,
	combine func(l, r iceberg.BooleanExpression, addl ...iceberg.BooleanExpression) iceberg.BooleanExpression,
) iceberg.BooleanExpression {
	switch len(exprs) {
	case 0:
		return identity
	case 1:
		return exprs[0]
	}

	mid := len(exprs) / 2

	return combine(balanced(exprs[:mid], identity, combine), balanced(exprs[mid:], identity, combine))
}

// literalAt returns the value of row i of arr as a Literal. arr must be one
// of the arrow types produced by schema evolution.
func literalAt(arr arrow.Array, i int) (iceberg.Literal, error) {
	switch a := arr.(type) {
	case *array.Boolean:
		return iceberg.NewLiteral(a.Value(i)), nil
	case *array.Int32:
		return iceberg.NewLiteral(a.Value(i)), nil
	case *array.Int64:
		return iceberg.NewLiteral(a.Value(i)), nil
	case *array.Float32:
		return iceberg.NewLiteral(a.Value(i)), nil
	case *array.Float64:
		return iceberg.NewLiteral(a.Value(i)), nil
	case *array.Date32:
		return iceberg.NewLiteral(iceberg.Date(a.Value(i))), nil
	case *array.Timestamp:
		return iceberg.NewLiteral(iceberg.Timestamp(a.Value(i))), nil
	// string and binary values alias the record buffers, which are
	// released after parsing
	case *array.String:
		return iceberg.NewLiteral(strings.Clone(a.Value(i))), nil
	case *array.Binary:
		return iceberg.NewLiteral(bytes.Clone(a.Value(i))), nil
	default:
		return nil, fmt.Errorf("%w: unsupported equality delete column type %s",
			iceberg.ErrType, arr.DataType())
	}
}
