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
	"time"

	"github.com/pgiceberg/iceberg-lite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLiteralTypes(t *testing.T) {
	tests := []struct {
		lit      iceberg.Literal
		typ      iceberg.Type
		expected string
	}{
		{iceberg.NewLiteral(true), iceberg.PrimitiveTypes.Bool, "true"},
		{iceberg.NewLiteral(int32(-5)), iceberg.PrimitiveTypes.Int32, "-5"},
		{iceberg.NewLiteral(int64(1 << 40)), iceberg.PrimitiveTypes.Int64, "1099511627776"},
		{iceberg.NewLiteral(float32(1.5)), iceberg.PrimitiveTypes.Float32, "1.5"},
		{iceberg.NewLiteral(2.25), iceberg.PrimitiveTypes.Float64, "2.25"},
		{iceberg.NewLiteral(iceberg.Date(19000)), iceberg.PrimitiveTypes.Date, "2022-01-08"},
		{iceberg.NewLiteral(iceberg.Timestamp(1_000_000)), iceberg.PrimitiveTypes.Timestamp, "1970-01-01 00:00:01"},
		{iceberg.NewLiteral("abc"), iceberg.PrimitiveTypes.String, "abc"},
		{iceberg.NewLiteral([]byte{0xde, 0xad}), iceberg.PrimitiveTypes.Binary, "dead"},
	}

	for _, tt := range tests {
		assert.True(t, tt.typ.Equals(tt.lit.Type()), "%s", tt.expected)
		assert.Equal(t, tt.expected, tt.lit.String())
		assert.True(t, tt.lit.Equals(tt.lit))

		fromAny, err := iceberg.LiteralFromAny(tt.lit.Any())
		require.NoError(t, err)
		assert.True(t, tt.lit.Equals(fromAny))
	}
}

func TestLiteralFromAnyUnsupported(t *testing.T) {
	for _, v := range []any{int(1), uint64(2), time.Now(), nil, []int{1}} {
		_, err := iceberg.LiteralFromAny(v)
		assert.ErrorIs(t, err, iceberg.ErrBadLiteral, "%T", v)
	}
}

func TestLiteralEqualsAcrossTypes(t *testing.T) {
	assert.False(t, iceberg.NewLiteral(int32(1)).Equals(iceberg.NewLiteral(int64(1))))
	assert.False(t, iceberg.NewLiteral("1").Equals(iceberg.NewLiteral([]byte("1"))))
	assert.True(t, iceberg.NewLiteral([]byte("ab")).Equals(iceberg.NewLiteral([]byte("ab"))))
	assert.False(t, iceberg.NewLiteral([]byte("ab")).Equals(iceberg.NewLiteral([]byte("abc"))))
}

func TestLiteralConversions(t *testing.T) {
	tests := []struct {
		name     string
		lit      iceberg.Literal
		to       iceberg.Type
		expected iceberg.Literal
	}{
		{"int to long", iceberg.NewLiteral(int32(7)), iceberg.PrimitiveTypes.Int64, iceberg.Int64Literal(7)},
		{"int to double", iceberg.NewLiteral(int32(7)), iceberg.PrimitiveTypes.Float64, iceberg.Float64Literal(7)},
		{"int to date", iceberg.NewLiteral(int32(7)), iceberg.PrimitiveTypes.Date, iceberg.DateLiteral(7)},
		{"long to int", iceberg.NewLiteral(int64(7)), iceberg.PrimitiveTypes.Int32, iceberg.Int32Literal(7)},
		{"long to timestamptz", iceberg.NewLiteral(int64(7)), iceberg.PrimitiveTypes.TimestampTz, iceberg.TimestampLiteral(7)},
		{"float to double", iceberg.NewLiteral(float32(0.5)), iceberg.PrimitiveTypes.Float64, iceberg.Float64Literal(0.5)},
		{"string to long", iceberg.NewLiteral("123"), iceberg.PrimitiveTypes.Int64, iceberg.Int64Literal(123)},
		{"string to date", iceberg.NewLiteral("2022-01-08"), iceberg.PrimitiveTypes.Date, iceberg.DateLiteral(19000)},
		{"string to bool", iceberg.NewLiteral("true"), iceberg.PrimitiveTypes.Bool, iceberg.BoolLiteral(true)},
		{"string to binary", iceberg.NewLiteral("ab"), iceberg.PrimitiveTypes.Binary, iceberg.BinaryLiteral("ab")},
		{"binary to string", iceberg.NewLiteral([]byte("ab")), iceberg.PrimitiveTypes.String, iceberg.StringLiteral("ab")},
		{"timestamp to date", iceberg.NewLiteral(iceberg.Timestamp(86_400_000_000 * 2)), iceberg.PrimitiveTypes.Date, iceberg.DateLiteral(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lit.To(tt.to)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equals(got), "expected %s, got %s", tt.expected, got)
		})
	}

	invalid := []struct {
		lit iceberg.Literal
		to  iceberg.Type
	}{
		{iceberg.NewLiteral(int64(1 << 40)), iceberg.PrimitiveTypes.Int32},
		{iceberg.NewLiteral("abc"), iceberg.PrimitiveTypes.Int32},
		{iceberg.NewLiteral("2022-13-45"), iceberg.PrimitiveTypes.Date},
		{iceberg.NewLiteral(true), iceberg.PrimitiveTypes.String},
		{iceberg.NewLiteral(iceberg.Date(1)), iceberg.PrimitiveTypes.Int64},
		{iceberg.NewLiteral([]byte("x")), iceberg.PrimitiveTypes.Int64},
	}

	for _, tt := range invalid {
		_, err := tt.lit.To(tt.to)
		assert.ErrorIs(t, err, iceberg.ErrBadCast, "%s to %s", tt.lit, tt.to)
	}
}

func TestDateAndTimestampToTime(t *testing.T) {
	assert.True(t, time.Date(2022, 1, 8, 0, 0, 0, 0, time.UTC).Equal(iceberg.Date(19000).ToTime()))
	assert.True(t, time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC).Equal(iceberg.Timestamp(1_000_000).ToTime()))
	assert.Equal(t, time.UTC, iceberg.Timestamp(0).ToTime().Location())
}
