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
	"fmt"

	"github.com/pgiceberg/iceberg-lite"
)

// FileScanTaskDeleteFile references one delete file that applies to the
// data file of a FileScanTask.
type FileScanTaskDeleteFile struct {
	FilePath        string
	FileType        iceberg.ManifestEntryContent
	PartitionSpecID int32
	// EqualityIDs holds the field ids of the delete key. It is empty for
	// positional deletes.
	EqualityIDs []int
}

func (d FileScanTaskDeleteFile) IsEqualityDelete() bool {
	return d.FileType == iceberg.EntryContentEqDeletes
}

func (d FileScanTaskDeleteFile) String() string {
	return fmt.Sprintf("%s(%s, spec=%d)", d.FileType, d.FilePath, d.PartitionSpecID)
}

// FileScanTask is the unit of work for reading one data file, or a byte
// range of it, together with the delete files that apply to it.
type FileScanTask struct {
	Start, Length int64
	RecordCount   int64

	DataFilePath   string
	DataFileFormat iceberg.FileFormat

	Schema         *iceberg.Schema
	ProjectedIDs   []int
	Deletes        []FileScanTaskDeleteFile
	Partition      map[int]any
	SpecID         int32
	SequenceNumber *int64
	CaseSensitive  bool
}

// EqualityDeletes returns the equality delete files of the task.
func (t *FileScanTask) EqualityDeletes() []FileScanTaskDeleteFile {
	var out []FileScanTaskDeleteFile
	for _, d := range t.Deletes {
		if d.IsEqualityDelete() {
			out = append(out, d)
		}
	}

	return out
}

// PlanFileScanTask builds the scan task for a data manifest entry, looking
// up the deletes that apply to it in idx. The whole file is scanned.
func (idx *DeleteFileIndex) PlanFileScanTask(entry iceberg.ManifestEntry, schema *iceberg.Schema, projectedIDs []int, caseSensitive bool) (FileScanTask, error) {
	df := entry.DataFile()
	if df.ContentType() != iceberg.EntryContentData {
		return FileScanTask{}, fmt.Errorf("%w: cannot plan a scan task for %s file %s",
			iceberg.ErrInvalidArgument, df.ContentType(), df.FilePath())
	}

	var seqNum *int64
	if s := entry.SequenceNum(); s >= 0 {
		seqNum = &s
	}

	return FileScanTask{
		Length:         df.FileSizeBytes(),
		RecordCount:    df.Count(),
		DataFilePath:   df.FilePath(),
		DataFileFormat: df.FileFormat(),
		Schema:         schema,
		ProjectedIDs:   projectedIDs,
		Deletes:        idx.GetDeletesForDataFile(df, seqNum),
		Partition:      df.Partition(),
		SpecID:         df.SpecID(),
		SequenceNumber: seqNum,
		CaseSensitive:  caseSensitive,
	}, nil
}
