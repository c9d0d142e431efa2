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

package gocloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	icebergio "github.com/pgiceberg/iceberg-lite/io"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// keyExtractor maps a full location to the object key inside the bucket.
type keyExtractor func(location string) (string, error)

func defaultKeyExtractor(bucket string) keyExtractor {
	return func(location string) (string, error) {
		parsed, err := url.Parse(location)
		if err != nil {
			return "", err
		}

		if parsed.Scheme == "" {
			return strings.TrimPrefix(location, "/"), nil
		}

		if parsed.Host != bucket {
			return "", fmt.Errorf("%w: location %s is outside of bucket %s",
				fs.ErrInvalid, location, bucket)
		}

		return strings.TrimPrefix(parsed.Path, "/"), nil
	}
}

// adlsKeyExtractor handles abfs://container@account.dfs.core.windows.net/key,
// where the bucket is the container and the key is the path.
func adlsKeyExtractor() keyExtractor {
	return func(location string) (string, error) {
		parsed, err := url.Parse(location)
		if err != nil {
			return "", err
		}

		if parsed.Scheme == "" {
			return strings.TrimPrefix(location, "/"), nil
		}

		return strings.TrimPrefix(parsed.Path, "/"), nil
	}
}

// blobFileIO represents a file system backed by a bucket in object store.
type blobFileIO struct {
	*blob.Bucket

	ctx    context.Context
	keyFor keyExtractor
}

func createBlobFS(ctx context.Context, bucket *blob.Bucket, keys keyExtractor) *blobFileIO {
	return &blobFileIO{Bucket: bucket, ctx: ctx, keyFor: keys}
}

func pathError(op, name string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		err = fs.ErrNotExist
	}

	return &fs.PathError{Op: op, Path: name, Err: err}
}

func (bfs *blobFileIO) Open(name string) (icebergio.File, error) {
	key, err := bfs.keyFor(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	r, err := bfs.Bucket.NewReader(bfs.ctx, key, nil)
	if err != nil {
		return nil, pathError("open", name, err)
	}

	return &blobOpenFile{Reader: r, bucket: bfs.Bucket, ctx: bfs.ctx, key: key}, nil
}

func (bfs *blobFileIO) ReadFile(name string) ([]byte, error) {
	key, err := bfs.keyFor(name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}

	data, err := bfs.Bucket.ReadAll(bfs.ctx, key)
	if err != nil {
		return nil, pathError("read", name, err)
	}

	return data, nil
}

func (bfs *blobFileIO) Remove(name string) error {
	key, err := bfs.keyFor(name)
	if err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}

	if err := bfs.Bucket.Delete(bfs.ctx, key); err != nil {
		return pathError("remove", name, err)
	}

	return nil
}

// Create returns a writer for the named blob. The blob becomes visible
// once the writer is closed successfully.
func (bfs *blobFileIO) Create(name string) (icebergio.FileWriter, error) {
	key, err := bfs.keyFor(name)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}

	w, err := bfs.Bucket.NewWriter(bfs.ctx, key, nil)
	if err != nil {
		return nil, pathError("create", name, err)
	}

	return w, nil
}

func (bfs *blobFileIO) WriteFile(name string, content []byte) error {
	key, err := bfs.keyFor(name)
	if err != nil {
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}

	return bfs.Bucket.WriteAll(bfs.ctx, key, content, nil)
}

// blobOpenFile describes a single open blob as a File. Sequential reads
// go through the embedded reader, while ReadAt issues an independent
// range read so it is safe for concurrent callers.
type blobOpenFile struct {
	*blob.Reader

	bucket *blob.Bucket
	ctx    context.Context
	key    string
}

func (f *blobOpenFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.Size() {
		return 0, io.EOF
	}

	r, err := f.bucket.NewRangeReader(f.ctx, f.key, off, int64(len(p)), nil)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}

	return n, err
}

func (f *blobOpenFile) Name() string               { return path.Base(f.key) }
func (f *blobOpenFile) Mode() fs.FileMode          { return fs.ModeIrregular }
func (f *blobOpenFile) ModTime() time.Time         { return f.Reader.ModTime() }
func (f *blobOpenFile) Sys() any                   { return f.Reader }
func (f *blobOpenFile) IsDir() bool                { return false }
func (f *blobOpenFile) Stat() (fs.FileInfo, error) { return f, nil }
