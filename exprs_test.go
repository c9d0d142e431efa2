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

var tableSchemaSimple = iceberg.NewSchema(1,
	iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.PrimitiveTypes.Int64, Required: true},
	iceberg.NestedField{ID: 2, Name: "data", Type: iceberg.PrimitiveTypes.String},
	iceberg.NestedField{ID: 3, Name: "score", Type: iceberg.PrimitiveTypes.Float64},
)

func TestOperationNegate(t *testing.T) {
	pairs := [][2]iceberg.Operation{
		{iceberg.OpIsNull, iceberg.OpNotNull},
		{iceberg.OpLT, iceberg.OpGTEQ},
		{iceberg.OpLTEQ, iceberg.OpGT},
		{iceberg.OpEQ, iceberg.OpNEQ},
	}

	for _, p := range pairs {
		assert.Equal(t, p[1], p[0].Negate())
		assert.Equal(t, p[0], p[1].Negate())
	}

	assert.PanicsWithValue(t, "no negation for operation And", func() { iceberg.OpAnd.Negate() })
	assert.Equal(t, "GreaterThanEqual", iceberg.OpGTEQ.String())
	assert.Equal(t, "Operation(42)", iceberg.Operation(42).String())
}

func TestBooleanFolding(t *testing.T) {
	pred := iceberg.EqualTo(iceberg.Reference("id"), int64(1))
	other := iceberg.IsNull(iceberg.Reference("data"))

	assert.Equal(t, iceberg.AlwaysFalse{}, iceberg.NewAnd(pred, iceberg.AlwaysFalse{}))
	assert.Same(t, pred, iceberg.NewAnd(iceberg.AlwaysTrue{}, pred))
	assert.Equal(t, iceberg.AlwaysTrue{}, iceberg.NewOr(iceberg.AlwaysTrue{}, pred))
	assert.Same(t, pred, iceberg.NewOr(pred, iceberg.AlwaysFalse{}))

	assert.Equal(t, iceberg.AlwaysFalse{}, iceberg.NewNot(iceberg.AlwaysTrue{}))
	assert.Equal(t, iceberg.AlwaysTrue{}, iceberg.NewNot(iceberg.AlwaysFalse{}))
	assert.Same(t, pred, iceberg.NewNot(iceberg.NewNot(pred)))

	and := iceberg.NewAnd(pred, other)
	assert.Equal(t, iceberg.OpAnd, and.Op())
	assert.True(t, and.Equals(iceberg.NewAnd(other, pred)))
	assert.Equal(t, "And(left=Equal(term=Reference(name='id'), literal=1), right=IsNull(term=Reference(name='data')))",
		and.String())

	three := iceberg.NewOr(pred, other, iceberg.NotNull(iceberg.Reference("score")))
	or, ok := three.(iceberg.OrExpr)
	require.True(t, ok)
	assert.Equal(t, iceberg.OpOr, or.Left().Op())
	assert.Equal(t, iceberg.OpNotNull, or.Right().Op())

	assert.Panics(t, func() { iceberg.NewAnd(pred, nil) })
	assert.Panics(t, func() { iceberg.NewOr(nil, pred) })
	assert.Panics(t, func() { iceberg.NewNot(nil) })
}

func TestExprNegate(t *testing.T) {
	lt := iceberg.LessThan(iceberg.Reference("id"), int64(5))
	null := iceberg.IsNull(iceberg.Reference("data"))

	negated := iceberg.NewAnd(lt, null).Negate()
	expected := iceberg.NewOr(
		iceberg.GreaterThanEqual(iceberg.Reference("id"), int64(5)),
		iceberg.NotNull(iceberg.Reference("data")))
	assert.True(t, expected.Equals(negated), "got %s", negated)

	assert.True(t, lt.Equals(iceberg.NewNot(lt).Negate()))
	assert.Equal(t, iceberg.AlwaysFalse{}, iceberg.AlwaysTrue{}.Negate())
}

func TestPredicateConstructorsPanic(t *testing.T) {
	ref := iceberg.Reference("id")
	lit := iceberg.NewLiteral(int64(1))

	assert.Panics(t, func() { iceberg.LiteralPredicate(iceberg.OpIsNull, ref, lit) })
	assert.Panics(t, func() { iceberg.LiteralPredicate(iceberg.OpEQ, nil, lit) })
	assert.Panics(t, func() { iceberg.LiteralPredicate(iceberg.OpEQ, ref, nil) })
	assert.Panics(t, func() { iceberg.UnaryPredicate(iceberg.OpEQ, ref) })
	assert.Panics(t, func() { iceberg.UnaryPredicate(iceberg.OpIsNull, nil) })
}

func TestBindReference(t *testing.T) {
	bound, err := iceberg.Reference("data").Bind(tableSchemaSimple, true)
	require.NoError(t, err)
	assert.Equal(t, 2, bound.Ref().Field().ID)
	assert.True(t, iceberg.PrimitiveTypes.String.Equals(bound.Type()))

	_, err = iceberg.Reference("DATA").Bind(tableSchemaSimple, true)
	assert.ErrorIs(t, err, iceberg.ErrInvalidSchema)
	assert.ErrorContains(t, err, "could not bind reference 'DATA'")

	bound, err = iceberg.Reference("DATA").Bind(tableSchemaSimple, false)
	require.NoError(t, err)
	assert.Equal(t, 2, bound.Ref().Field().ID)
}

func TestBindExpr(t *testing.T) {
	t.Run("casts literals", func(t *testing.T) {
		expr := iceberg.EqualTo(iceberg.Reference("id"), int32(10))
		bound, err := iceberg.BindExpr(tableSchemaSimple, expr, true)
		require.NoError(t, err)

		pred, ok := bound.(*iceberg.BoundLiteralPredicate)
		require.True(t, ok)
		assert.Equal(t, iceberg.Int64Literal(10), pred.Literal())
		assert.Equal(t, 1, pred.Ref().Field().ID)
	})

	t.Run("bad cast", func(t *testing.T) {
		expr := iceberg.EqualTo(iceberg.Reference("id"), "ten")
		_, err := iceberg.BindExpr(tableSchemaSimple, expr, true)
		assert.ErrorIs(t, err, iceberg.ErrBadCast)
	})

	t.Run("required field null checks fold", func(t *testing.T) {
		bound, err := iceberg.BindExpr(tableSchemaSimple, iceberg.IsNull(iceberg.Reference("id")), true)
		require.NoError(t, err)
		assert.Equal(t, iceberg.AlwaysFalse{}, bound)

		bound, err = iceberg.BindExpr(tableSchemaSimple, iceberg.NotNull(iceberg.Reference("id")), true)
		require.NoError(t, err)
		assert.Equal(t, iceberg.AlwaysTrue{}, bound)
	})

	t.Run("nested", func(t *testing.T) {
		expr := iceberg.NewNot(iceberg.NewOr(
			iceberg.NewAnd(
				iceberg.EqualTo(iceberg.Reference("ID"), int64(1)),
				iceberg.IsNull(iceberg.Reference("Data"))),
			iceberg.GreaterThan(iceberg.Reference("score"), 0.5)))

		bound, err := iceberg.BindExpr(tableSchemaSimple, expr, false)
		require.NoError(t, err)
		assert.Equal(t, iceberg.OpNot, bound.Op())

		_, err = iceberg.BindExpr(tableSchemaSimple, expr, true)
		assert.ErrorIs(t, err, iceberg.ErrInvalidSchema)
	})

	t.Run("already bound", func(t *testing.T) {
		bound, err := iceberg.BindExpr(tableSchemaSimple, iceberg.IsNull(iceberg.Reference("data")), true)
		require.NoError(t, err)

		_, err = iceberg.BindExpr(tableSchemaSimple, bound, true)
		assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)
	})
}
