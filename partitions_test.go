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
	"encoding/json"
	"testing"

	"github.com/pgiceberg/iceberg-lite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionSpec(t *testing.T) {
	idBucket := iceberg.PartitionField{
		SourceID: 1, FieldID: 1000, Name: "id_bucket",
		Transform: iceberg.BucketTransform{NumBuckets: 16},
	}
	dataIdentity := iceberg.PartitionField{
		SourceID: 2, FieldID: 1001, Name: "data",
		Transform: iceberg.IdentityTransform{},
	}

	spec := iceberg.NewPartitionSpecID(3, idBucket, dataIdentity)
	assert.Equal(t, 3, spec.ID())
	assert.Equal(t, 2, spec.NumFields())
	assert.Equal(t, dataIdentity, spec.Field(1))
	assert.False(t, spec.IsUnpartitioned())
	assert.True(t, spec.Equals(iceberg.NewPartitionSpecID(3, idBucket, dataIdentity)))
	assert.False(t, spec.Equals(iceberg.NewPartitionSpecID(4, idBucket, dataIdentity)))

	var names []string
	for f := range spec.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id_bucket", "data"}, names)

	partition, err := spec.PartitionFor(iceberg.Row{1: int64(34), 2: "a"})
	require.NoError(t, err)
	assert.Equal(t, map[int]any{1000: int32(3), 1001: "a"}, partition)

	_, err = spec.PartitionFor(iceberg.Row{1: 1.5})
	assert.ErrorIs(t, err, iceberg.ErrType)
	assert.ErrorContains(t, err, "partition field id_bucket")
}

func TestUnpartitionedSpec(t *testing.T) {
	assert.True(t, iceberg.UnpartitionedSpec.IsUnpartitioned())

	voidOnly := iceberg.NewPartitionSpec(iceberg.PartitionField{
		SourceID: 1, FieldID: 1000, Name: "dropped", Transform: iceberg.VoidTransform{},
	})
	assert.True(t, voidOnly.IsUnpartitioned())
	assert.Equal(t, iceberg.InitialPartitionSpecID, voidOnly.ID())
}

func TestPartitionSpecJSON(t *testing.T) {
	spec := iceberg.NewPartitionSpecID(1,
		iceberg.PartitionField{SourceID: 1, FieldID: 1000, Name: "id_bucket",
			Transform: iceberg.BucketTransform{NumBuckets: 16}})

	data, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"spec-id": 1, "fields": [
		{"source-id": 1, "field-id": 1000, "name": "id_bucket", "transform": "bucket[16]"}
	]}`, string(data))

	var back iceberg.PartitionSpec
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, spec.Equals(back))

	empty, err := json.Marshal(iceberg.NewPartitionSpecID(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"spec-id": 0, "fields": []}`, string(empty))

	err = json.Unmarshal([]byte(`{"spec-id": 2, "fields": [
		{"source-id": 1, "field-id": 1000, "name": "x", "transform": "hour"}]}`), &back)
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)
}

func TestPartitionKey(t *testing.T) {
	assert.Empty(t, iceberg.PartitionKey(nil))
	assert.Empty(t, iceberg.PartitionKey(map[int]any{}))

	a := iceberg.PartitionKey(map[int]any{1000: int32(3), 1001: "a"})
	b := iceberg.PartitionKey(map[int]any{1001: "a", 1000: int32(3)})
	assert.Equal(t, a, b)

	distinct := []map[int]any{
		{1000: int32(3)},
		{1000: int64(3)},
		{1000: "3"},
		{1000: []byte("3")},
		{1000: nil},
		{1001: int32(3)},
		{1000: int32(3), 1001: nil},
	}

	seen := make(map[string]int)
	for i, p := range distinct {
		key := iceberg.PartitionKey(p)
		if prev, ok := seen[key]; ok {
			t.Errorf("partitions %d and %d share key %q", prev, i, key)
		}
		seen[key] = i
	}
}
