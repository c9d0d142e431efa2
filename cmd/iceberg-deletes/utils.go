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

package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/pgiceberg/iceberg-lite/table/deletes"
)

// dataFileSummary describes the positions one delete file removes from a
// single data file.
type dataFileSummary struct {
	DataFile string `json:"data-file"`
	Count    uint64 `json:"count"`
	Min      uint64 `json:"min"`
	Max      uint64 `json:"max"`
}

func parseIDs(idList string) ([]int, error) {
	var ids []int
	for part := range strings.SplitSeq(idList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid field id %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("--ids needs at least one field id")
	}

	return ids, nil
}

func summarize(vectors map[string]*deletes.DeleteVector) []dataFileSummary {
	out := make([]dataFileSummary, 0, len(vectors))
	for _, path := range slices.Sorted(maps.Keys(vectors)) {
		positions := vectors[path].ToSlice()
		if len(positions) == 0 {
			continue
		}

		out = append(out, dataFileSummary{
			DataFile: path,
			Count:    uint64(len(positions)),
			Min:      positions[0],
			Max:      positions[len(positions)-1],
		})
	}

	return out
}
