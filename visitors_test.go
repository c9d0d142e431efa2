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

package iceberg_test

import (
	"testing"

	"github.com/pgiceberg/iceberg-lite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(name string) iceberg.UnboundTerm { return iceberg.Reference(name) }

func bindOrFail(t *testing.T, expr iceberg.BooleanExpression) iceberg.BooleanExpression {
	t.Helper()

	bound, err := iceberg.BindExpr(tableSchemaSimple, expr, true)
	require.NoError(t, err)

	return bound
}

func TestExpressionEvaluator(t *testing.T) {
	tests := []struct {
		name     string
		expr     iceberg.BooleanExpression
		row      iceberg.Row
		expected bool
	}{
		{"eq match", iceberg.EqualTo(ref("id"), int64(3)), iceberg.Row{1: int64(3)}, true},
		{"eq miss", iceberg.EqualTo(ref("id"), int64(3)), iceberg.Row{1: int64(4)}, false},
		{"neq", iceberg.NotEqualTo(ref("data"), "a"), iceberg.Row{2: "b"}, true},
		{"lt", iceberg.LessThan(ref("score"), 1.5), iceberg.Row{3: 1.0}, true},
		{"lteq", iceberg.LessThanEqual(ref("score"), 1.5), iceberg.Row{3: 1.5}, true},
		{"gt", iceberg.GreaterThan(ref("data"), "m"), iceberg.Row{2: "a"}, false},
		{"gteq", iceberg.GreaterThanEqual(ref("id"), int64(2)), iceberg.Row{1: int64(2)}, true},
		{"is null missing key", iceberg.IsNull(ref("data")), iceberg.Row{1: int64(1)}, true},
		{"is null nil value", iceberg.IsNull(ref("data")), iceberg.Row{2: nil}, true},
		{"not null", iceberg.NotNull(ref("data")), iceberg.Row{2: "x"}, true},
		{"eq null", iceberg.EqualTo(ref("data"), "x"), iceberg.Row{}, false},
		{"lt null", iceberg.LessThan(ref("score"), 0.0), iceberg.Row{}, false},
		{"neq null", iceberg.NotEqualTo(ref("data"), "x"), iceberg.Row{}, true},
		{"and", iceberg.NewAnd(
			iceberg.EqualTo(ref("id"), int64(1)),
			iceberg.EqualTo(ref("data"), "a")), iceberg.Row{1: int64(1), 2: "b"}, false},
		{"or", iceberg.NewOr(
			iceberg.EqualTo(ref("id"), int64(1)),
			iceberg.EqualTo(ref("data"), "a")), iceberg.Row{1: int64(1), 2: "b"}, true},
		{"not", iceberg.NewNot(iceberg.EqualTo(ref("id"), int64(1))), iceberg.Row{1: int64(1)}, false},
		{"true", iceberg.AlwaysTrue{}, iceberg.Row{}, true},
		{"false", iceberg.AlwaysFalse{}, iceberg.Row{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := iceberg.ExpressionEvaluator(bindOrFail(t, tt.expr))
			got, err := eval(tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpressionEvaluatorErrors(t *testing.T) {
	eval := iceberg.ExpressionEvaluator(bindOrFail(t, iceberg.EqualTo(iceberg.Reference("id"), int64(1))))

	_, err := eval(iceberg.Row{1: int32(1)})
	assert.ErrorIs(t, err, iceberg.ErrType)

	_, err = eval(iceberg.Row{1: uint8(1)})
	assert.ErrorIs(t, err, iceberg.ErrBadLiteral)

	eval = iceberg.ExpressionEvaluator(bindOrFail(t, iceberg.EqualTo(iceberg.Reference("data"), "a")))
	_, err = eval(iceberg.Row{2: 1.5})
	assert.ErrorIs(t, err, iceberg.ErrType)

	unbound := iceberg.ExpressionEvaluator(iceberg.EqualTo(iceberg.Reference("id"), int64(1)))
	_, err = unbound(iceberg.Row{1: int64(1)})
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)
}

func TestExpressionEvaluatorTimestampTz(t *testing.T) {
	sc := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "ts", Type: iceberg.PrimitiveTypes.TimestampTz})

	bound, err := iceberg.BindExpr(sc, iceberg.EqualTo(iceberg.Reference("ts"), iceberg.Timestamp(5)), true)
	require.NoError(t, err)

	eval := iceberg.ExpressionEvaluator(bound)
	got, err := eval(iceberg.Row{1: iceberg.Timestamp(5)})
	require.NoError(t, err)
	assert.True(t, got)

	_, err = eval(iceberg.Row{1: int64(5)})
	assert.ErrorIs(t, err, iceberg.ErrType)
}

func TestRewriteNotExpr(t *testing.T) {
	expr := iceberg.NewNot(iceberg.NewAnd(
		iceberg.EqualTo(ref("id"), int64(1)),
		iceberg.NewNot(iceberg.IsNull(ref("data")))))

	rewritten, err := iceberg.RewriteNotExpr(expr)
	require.NoError(t, err)

	expected := iceberg.NewOr(
		iceberg.NotEqualTo(ref("id"), int64(1)),
		iceberg.IsNull(ref("data")))
	assert.True(t, expected.Equals(rewritten), "got %s", rewritten)

	rewritten, err = iceberg.RewriteNotExpr(iceberg.AlwaysTrue{})
	require.NoError(t, err)
	assert.Equal(t, iceberg.AlwaysTrue{}, rewritten)
}

func TestRewriteNotPreservesEvaluation(t *testing.T) {
	expr := iceberg.NewNot(iceberg.NewOr(
		iceberg.GreaterThan(iceberg.Reference("score"), 1.0),
		iceberg.EqualTo(iceberg.Reference("data"), "z")))

	bound := bindOrFail(t, expr)
	rewritten, err := iceberg.RewriteNotExpr(bound)
	require.NoError(t, err)
	assert.NotEqual(t, iceberg.OpNot, rewritten.Op())

	original, rewrite := iceberg.ExpressionEvaluator(bound), iceberg.ExpressionEvaluator(rewritten)
	for _, row := range []iceberg.Row{
		{3: 0.5, 2: "a"},
		{3: 2.0, 2: "a"},
		{3: 0.5, 2: "z"},
	} {
		want, err := original(row)
		require.NoError(t, err)
		got, err := rewrite(row)
		require.NoError(t, err)
		assert.Equal(t, want, got, "row %v", row)
	}
}
