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
	"errors"
	"sync"
)

var errLoaderPanicked = errors.New("delete file loader panicked")

// attempt is one in-flight initialization of a onceCell. err can only be
// read after done is closed.
type attempt struct {
	err  error
	done chan struct{}
}

// onceCell holds a value that is computed at most once successfully.
// Concurrent callers of getOrInit share a single in-flight attempt. A
// failed attempt is not cached: the next caller starts a new one.
type onceCell[T any] struct {
	mu      sync.Mutex
	loaded  bool
	value   T
	pending *attempt
}

func (c *onceCell[T]) get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value, c.loaded
}

// getOrInit returns the cached value, waits for the attempt in flight, or
// runs init itself. Waiters observe the error of the attempt they waited
// on and return early if their own ctx is done. An attempt that failed
// because its own caller's ctx ended is retried by waiters whose ctx is
// still live.
func (c *onceCell[T]) getOrInit(ctx context.Context, init func(context.Context) (T, error)) (T, error) {
	var zero T
	for {
		c.mu.Lock()
		if c.loaded {
			v := c.value
			c.mu.Unlock()

			return v, nil
		}

		if a := c.pending; a != nil {
			c.mu.Unlock()

			select {
			case <-a.done:
				if a.err != nil && !(isContextErr(a.err) && ctx.Err() == nil) {
					return zero, a.err
				}
				// loaded, or the attempt died with its caller's ctx while
				// ours is live: pick up the value or start a new attempt
				continue
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		a := &attempt{done: make(chan struct{})}
		c.pending = a
		c.mu.Unlock()

		return c.run(ctx, a, init)
	}
}

// run executes init for attempt a. If init panics the waiters are released
// with errLoaderPanicked and the panic continues up the caller's stack.
func (c *onceCell[T]) run(ctx context.Context, a *attempt, init func(context.Context) (T, error)) (v T, err error) {
	finished := false
	defer func() {
		c.mu.Lock()
		switch {
		case !finished:
			a.err = errLoaderPanicked
		case err != nil:
			a.err = err
		default:
			c.value, c.loaded = v, true
		}
		c.pending = nil
		c.mu.Unlock()

		close(a.done)
	}()

	v, err = init(ctx)
	finished = true

	return v, err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
