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

package internal_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pgiceberg/iceberg-lite/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	w := internal.CountingWriter{W: &buf}

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = w.Write([]byte(" world"))
	require.NoError(t, err)
	assert.EqualValues(t, 11, w.Count)
	assert.Equal(t, "hello world", buf.String())
}

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestCheckedClose(t *testing.T) {
	errClose := errors.New("close failed")
	errBody := errors.New("body failed")

	fn := func(bodyErr, closeErr error) (err error) {
		defer internal.CheckedClose(closer{closeErr}, &err)

		return bodyErr
	}

	assert.NoError(t, fn(nil, nil))
	assert.ErrorIs(t, fn(nil, errClose), errClose)

	err := fn(errBody, errClose)
	assert.ErrorIs(t, err, errBody)
	assert.ErrorIs(t, err, errClose)
}
