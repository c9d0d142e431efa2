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

// Position delete file column field IDs. Reserved IDs are Integer.MAX_VALUE - 101
// and 102 per the Iceberg spec (Reserved Field IDs).
const (
	// PositionalDeleteFilePathFieldID is the field ID for file_path (required string),
	// the full URI of the data file the deleted row belongs to.
	PositionalDeleteFilePathFieldID = 2147483546
	// PositionalDeletePosFieldID is the field ID for pos (required long),
	// the ordinal position of the deleted row in that data file.
	PositionalDeletePosFieldID = 2147483545
)

const (
	PositionalDeleteFilePathName = "file_path"
	PositionalDeletePosName      = "pos"
)

// IsMetadataColumn returns true if the field ID is a reserved metadata column.
func IsMetadataColumn(fieldID int) bool {
	return fieldID == PositionalDeleteFilePathFieldID || fieldID == PositionalDeletePosFieldID
}
