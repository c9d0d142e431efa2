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

// Package deletes holds the in-memory representation of decoded
// positional deletes.
//
// A positional delete file lists (file_path, pos) pairs. Once decoded, the
// positions that belong to one data file are collected into a DeleteVector,
// a compressed 64-bit roaring bitmap:
//
//	dv := deletes.NewDeleteVector(0, 5, 9)
//	dv.AddRange(100, 200)
//	dv.Contains(5) // true
//
// Vectors read from different delete files that target the same data file
// are merged in place with Union.
package deletes
