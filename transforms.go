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

package iceberg

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/twmb/murmur3"
)

var regexFromBrackets = regexp.MustCompile(`^\w+\[(\d+)\]$`)

// ParseTransform takes the string representation of a transform as
// defined in the iceberg spec, and produces the appropriate Transform
// object or an error if the string is not a valid transform string.
func ParseTransform(s string) (Transform, error) {
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "bucket"):
		matches := regexFromBrackets.FindStringSubmatch(s)
		if len(matches) != 2 {
			break
		}

		n, _ := strconv.Atoi(matches[1])
		if n <= 0 {
			break
		}

		return BucketTransform{NumBuckets: n}, nil
	case s == "identity":
		return IdentityTransform{}, nil
	case s == "void":
		return VoidTransform{}, nil
	}

	return nil, fmt.Errorf("%w: unsupported transform %s", ErrInvalidArgument, s)
}

// Transform is an interface for the transformation types usable in
// partition specs. Apply maps a source value to its partition value;
// a nil input produces a nil partition value.
type Transform interface {
	fmt.Stringer
	encoding.TextMarshaler
	ResultType(t Type) Type
	Apply(v any) (any, error)
}

// IdentityTransform uses the identity function, performing no transformation
// but instead partitioning on the value itself.
type IdentityTransform struct{}

func (t IdentityTransform) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (IdentityTransform) String() string { return "identity" }

func (IdentityTransform) ResultType(t Type) Type { return t }

func (IdentityTransform) Apply(v any) (any, error) { return v, nil }

// VoidTransform is a transformation that always returns nil.
type VoidTransform struct{}

func (t VoidTransform) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (VoidTransform) String() string { return "void" }

func (VoidTransform) ResultType(t Type) Type { return t }

func (VoidTransform) Apply(any) (any, error) { return nil, nil }

// BucketTransform transforms values into a bucket partition value. It is
// parameterized by a number of buckets. Bucket partition transforms use
// a 32-bit hash of the source value to produce a positive value by mod
// the bucket number.
type BucketTransform struct {
	NumBuckets int
}

func (t BucketTransform) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t BucketTransform) String() string { return fmt.Sprintf("bucket[%d]", t.NumBuckets) }

func (BucketTransform) ResultType(Type) Type { return PrimitiveTypes.Int32 }

// Apply hashes the value with 32-bit murmur3 following the table format's
// hashing rules: ints, longs, dates and timestamps hash as 8 byte little
// endian longs, strings hash their UTF-8 bytes.
func (t BucketTransform) Apply(v any) (any, error) {
	var buf []byte
	switch v := v.(type) {
	case nil:
		return nil, nil
	case int32:
		buf = binary.LittleEndian.AppendUint64(nil, uint64(int64(v)))
	case int64:
		buf = binary.LittleEndian.AppendUint64(nil, uint64(v))
	case Date:
		buf = binary.LittleEndian.AppendUint64(nil, uint64(int64(v)))
	case Timestamp:
		buf = binary.LittleEndian.AppendUint64(nil, uint64(int64(v)))
	case string:
		buf = []byte(v)
	case []byte:
		buf = v
	default:
		return nil, fmt.Errorf("%w: cannot bucket %T", ErrType, v)
	}

	hash := int32(murmur3.Sum32(buf))

	return int32((int(hash) & math.MaxInt32) % t.NumBuckets), nil
}
