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
	"encoding/json"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/pgiceberg/iceberg-lite"
	"github.com/pterm/pterm"
)

type Output interface {
	Positions(deleteFile string, summary []dataFileSummary)
	Predicate(deleteFiles []string, pred iceberg.BooleanExpression)
	Vector(dataFile string, positions []uint64)
	Error(error)
}

type textOutput struct{}

func (textOutput) Positions(deleteFile string, summary []dataFileSummary) {
	data := pterm.TableData{{"Data file", "Deleted", "Min", "Max"}}
	for _, s := range summary {
		data = append(data, []string{
			s.DataFile,
			strconv.FormatUint(s.Count, 10),
			strconv.FormatUint(s.Min, 10),
			strconv.FormatUint(s.Max, 10),
		})
	}

	pterm.Println(deleteFile)
	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Predicate(deleteFiles []string, pred iceberg.BooleanExpression) {
	pterm.DefaultTable.
		WithData(pterm.TableData{
			{"Delete files", strings.Join(deleteFiles, ", ")},
			{"Keep rows where", pred.String()},
		}).Render()
}

func (textOutput) Vector(dataFile string, positions []uint64) {
	strs := make([]string, len(positions))
	for i, p := range positions {
		strs[i] = strconv.FormatUint(p, 10)
	}

	pterm.DefaultTable.
		WithData(pterm.TableData{
			{"Data file", dataFile},
			{"Deleted", strconv.Itoa(len(positions))},
			{"Positions", "[" + strings.Join(strs, ", ") + "]"},
		}).Render()
}

func (textOutput) Error(err error) {
	log.Fatal(err)
}

type jsonOutput struct {
	w io.Writer
}

func (j jsonOutput) write(v any) {
	if err := json.NewEncoder(j.w).Encode(v); err != nil {
		log.Fatal(err)
	}
}

func (j jsonOutput) Positions(deleteFile string, summary []dataFileSummary) {
	j.write(struct {
		DeleteFile string            `json:"delete-file"`
		DataFiles  []dataFileSummary `json:"data-files"`
	}{deleteFile, summary})
}

func (j jsonOutput) Predicate(deleteFiles []string, pred iceberg.BooleanExpression) {
	j.write(struct {
		DeleteFiles []string `json:"delete-files"`
		Predicate   string   `json:"predicate"`
	}{deleteFiles, pred.String()})
}

func (j jsonOutput) Vector(dataFile string, positions []uint64) {
	if positions == nil {
		positions = []uint64{}
	}

	j.write(struct {
		DataFile  string   `json:"data-file"`
		Positions []uint64 `json:"positions"`
	}{dataFile, positions})
}

func (j jsonOutput) Error(err error) {
	j.write(struct {
		Error string `json:"error"`
	}{err.Error()})
	log.Fatal(err)
}
