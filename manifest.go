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
	"fmt"
	"maps"
	"slices"
)

type ManifestEntryStatus int8

const (
	EntryStatusEXISTING ManifestEntryStatus = 0
	EntryStatusADDED    ManifestEntryStatus = 1
	EntryStatusDELETED  ManifestEntryStatus = 2
)

func (s ManifestEntryStatus) String() string {
	switch s {
	case EntryStatusEXISTING:
		return "EXISTING"
	case EntryStatusADDED:
		return "ADDED"
	case EntryStatusDELETED:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ManifestEntryContent defines constants for the type of file contents
// in the file entries. Data, Position based deletes and equality based
// deletes.
type ManifestEntryContent int8

const (
	EntryContentData       ManifestEntryContent = 0
	EntryContentPosDeletes ManifestEntryContent = 1
	EntryContentEqDeletes  ManifestEntryContent = 2
)

func (m ManifestEntryContent) String() string {
	switch m {
	case EntryContentData:
		return "Data"
	case EntryContentPosDeletes:
		return "Positional_Deletes"
	case EntryContentEqDeletes:
		return "Equality_Deletes"
	default:
		return "UNKNOWN"
	}
}

// FileFormat defines constants for the format of data files.
type FileFormat string

const (
	AvroFile    FileFormat = "AVRO"
	OrcFile     FileFormat = "ORC"
	ParquetFile FileFormat = "PARQUET"
)

type dataFile struct {
	content            ManifestEntryContent
	path               string
	format             FileFormat
	partition          map[int]any
	recordCount        int64
	fileSize           int64
	equalityIDs        []int
	referencedDataFile *string
	specID             int32
}

func (d *dataFile) ContentType() ManifestEntryContent { return d.content }
func (d *dataFile) FilePath() string                  { return d.path }
func (d *dataFile) FileFormat() FileFormat            { return d.format }
func (d *dataFile) Partition() map[int]any            { return maps.Clone(d.partition) }
func (d *dataFile) Count() int64                      { return d.recordCount }
func (d *dataFile) FileSizeBytes() int64              { return d.fileSize }
func (d *dataFile) EqualityFieldIDs() []int           { return slices.Clone(d.equalityIDs) }
func (d *dataFile) ReferencedDataFile() *string       { return d.referencedDataFile }
func (d *dataFile) SpecID() int32                     { return d.specID }

// DataFileBuilder is a helper for building a data file struct which will
// conform to the DataFile interface.
type DataFileBuilder struct {
	d *dataFile
}

// NewDataFileBuilder is passed all of the required fields and then allows
// all of the optional fields to be set by calling the corresponding methods
// before calling [DataFileBuilder.Build] to construct the object.
func NewDataFileBuilder(
	spec PartitionSpec,
	content ManifestEntryContent,
	path string,
	format FileFormat,
	fieldIDToPartitionData map[int]any,
	recordCount int64,
	fileSize int64,
) (*DataFileBuilder, error) {
	if content != EntryContentData && content != EntryContentPosDeletes && content != EntryContentEqDeletes {
		return nil, fmt.Errorf(
			"%w: content must be one of %s, %s, or %s",
			ErrInvalidArgument, EntryContentData, EntryContentPosDeletes, EntryContentEqDeletes,
		)
	}

	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrInvalidArgument)
	}

	if format != AvroFile && format != OrcFile && format != ParquetFile {
		return nil, fmt.Errorf(
			"%w: format must be one of %s, %s, or %s",
			ErrInvalidArgument, AvroFile, OrcFile, ParquetFile,
		)
	}

	if recordCount < 0 {
		return nil, fmt.Errorf("%w: record count cannot be negative", ErrInvalidArgument)
	}

	if fileSize <= 0 {
		return nil, fmt.Errorf("%w: file size must be greater than 0", ErrInvalidArgument)
	}

	partition := make(map[int]any, spec.NumFields())
	for _, p := range spec.fields {
		if v, ok := fieldIDToPartitionData[p.FieldID]; ok {
			partition[p.FieldID] = v
		}
	}

	return &DataFileBuilder{
		d: &dataFile{
			content:     content,
			path:        path,
			format:      format,
			partition:   partition,
			recordCount: recordCount,
			fileSize:    fileSize,
			specID:      int32(spec.id),
		},
	}, nil
}

// EqualityFieldIDs sets the equality field ids for the data file.
func (b *DataFileBuilder) EqualityFieldIDs(ids []int) *DataFileBuilder {
	b.d.equalityIDs = slices.Clone(ids)

	return b
}

// ReferencedDataFile sets the single data file that a position delete
// file applies to.
func (b *DataFileBuilder) ReferencedDataFile(path string) *DataFileBuilder {
	b.d.referencedDataFile = &path

	return b
}

func (b *DataFileBuilder) Build() DataFile {
	return b.d
}

// DataFile is the interface for reading the information about a
// given data file indicated by an entry in a manifest.
type DataFile interface {
	// ContentType is the type of the content stored by the data file,
	// either Data, Equality deletes, or Position deletes.
	ContentType() ManifestEntryContent
	// FilePath is the full URI for the file, complete with FS scheme.
	FilePath() string
	// FileFormat is the format of the data file, AVRO, Orc, or Parquet.
	FileFormat() FileFormat
	// Partition returns a mapping of field id to partition value for
	// each of the partition spec's fields.
	Partition() map[int]any
	// Count returns the number of records in this file.
	Count() int64
	// FileSizeBytes is the total file size in bytes.
	FileSizeBytes() int64
	// EqualityFieldIDs are used to determine row equality in equality
	// delete files. It is required when the content type is
	// EntryContentEqDeletes.
	EqualityFieldIDs() []int
	// ReferencedDataFile is the path of the only data file a position
	// delete file applies to, or nil when it may apply to several.
	ReferencedDataFile() *string
	// SpecID returns the partition spec id for this data file.
	SpecID() int32
}

// ManifestEntry is an interface for both v1 and v2 manifest entries.
type ManifestEntry interface {
	// Status returns the type of the file tracked by this entry.
	// Deletes are informational only and not used in scans.
	Status() ManifestEntryStatus
	// SnapshotID is the id where the file was added, or deleted,
	// -1 if unknown.
	SnapshotID() int64
	// SequenceNum returns the data sequence number of the file,
	// -1 if unknown.
	SequenceNum() int64
	// FileSequenceNum returns the file sequence number indicating
	// when the file was added.
	FileSequenceNum() *int64
	// DataFile provides the information about the data file indicated
	// by this manifest entry.
	DataFile() DataFile
}

type manifestEntry struct {
	status     ManifestEntryStatus
	snapshot   *int64
	seqNum     *int64
	fileSeqNum *int64
	data       DataFile
}

func (m *manifestEntry) Status() ManifestEntryStatus { return m.status }
func (m *manifestEntry) SnapshotID() int64 {
	if m.snapshot == nil {
		return -1
	}

	return *m.snapshot
}

func (m *manifestEntry) SequenceNum() int64 {
	if m.seqNum == nil {
		return -1
	}

	return *m.seqNum
}

func (m *manifestEntry) FileSequenceNum() *int64 {
	return m.fileSeqNum
}

func (m *manifestEntry) DataFile() DataFile { return m.data }

func NewManifestEntry(status ManifestEntryStatus, snapshotID *int64, seqNum, fileSeqNum *int64, df DataFile) ManifestEntry {
	return &manifestEntry{
		status:     status,
		snapshot:   snapshotID,
		seqNum:     seqNum,
		fileSeqNum: fileSeqNum,
		data:       df,
	}
}

// PositionalDeleteSchema is the schema of position delete files.
var PositionalDeleteSchema = NewSchema(0,
	NestedField{ID: PositionalDeleteFilePathFieldID, Type: PrimitiveTypes.String, Name: PositionalDeleteFilePathName, Required: true},
	NestedField{ID: PositionalDeletePosFieldID, Type: PrimitiveTypes.Int64, Name: PositionalDeletePosName, Required: true},
)
