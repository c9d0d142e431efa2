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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/pgiceberg/iceberg-lite"
	"github.com/pgiceberg/iceberg-lite/config"
	iceio "github.com/pgiceberg/iceberg-lite/io"
	_ "github.com/pgiceberg/iceberg-lite/io/gocloud"
	"github.com/pgiceberg/iceberg-lite/table"
)

const usage = `iceberg-deletes.

Usage:
  iceberg-deletes positions [options] FILE...
  iceberg-deletes equality [options] --ids=IDS FILE...
  iceberg-deletes vector [options] --data-file=PATH FILE...
  iceberg-deletes -h | --help | --version

Commands:
  positions   Summarize positional delete files per data file.
  equality    Print the predicate kept rows must satisfy.
  vector      Print the merged deleted positions of one data file.

Arguments:
  FILE        location of a delete file

Options:
  -h --help            show this help messages and exit
  --ids IDS            comma separated equality field ids
  --data-file PATH     data file whose positions are printed
  --output TYPE        output type (json/text) [default: text]
  --config TEXT        specify the path to the configuration file
  --storage NAME       storage entry of the configuration file [default: default]
  --concurrency N      number of delete files decoded at once
  --verbose            log every decoded delete file to stderr`

type Config struct {
	Positions bool `docopt:"positions"`
	Equality  bool `docopt:"equality"`
	Vector    bool `docopt:"vector"`

	Files []string `docopt:"FILE"`

	IDs         string `docopt:"--ids"`
	DataFile    string `docopt:"--data-file"`
	Output      string `docopt:"--output"`
	Config      string `docopt:"--config"`
	Storage     string `docopt:"--storage"`
	Concurrency string `docopt:"--concurrency"`
	Verbose     bool   `docopt:"--verbose"`
}

func main() {
	ctx := context.Background()
	args, err := docopt.ParseArgs(usage, os.Args[1:], iceberg.Version())
	if err != nil {
		log.Fatal(err)
	}

	cfg := Config{}
	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "text":
		output = textOutput{}
	case "json":
		output = jsonOutput{w: os.Stdout}
	default:
		log.Fatal("unimplemented output type")
	}

	logger := slog.New(slog.DiscardHandler)
	if cfg.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var props map[string]string
	if storage := config.ParseConfig(config.LoadConfig(cfg.Config), cfg.Storage); storage != nil {
		props = storage.Properties
	}

	fs, err := iceio.LoadFS(ctx, props, cfg.Files[0])
	if err != nil {
		output.Error(err)
		os.Exit(1)
	}

	concurrency := 0
	if cfg.Concurrency != "" {
		if concurrency, err = strconv.Atoi(cfg.Concurrency); err != nil {
			output.Error(fmt.Errorf("invalid --concurrency: %w", err))
			os.Exit(1)
		}
	}

	loader := table.NewCachingDeleteFileLoader(fs, concurrency, table.WithLogger(logger))

	switch {
	case cfg.Positions:
		err = positions(ctx, output, table.NewBasicDeleteFileLoader(fs, nil), cfg.Files)
	case cfg.Equality:
		err = equality(ctx, output, fs, loader, cfg.Files, cfg.IDs)
	case cfg.Vector:
		err = vector(ctx, output, loader, cfg.Files, cfg.DataFile)
	}

	if err != nil {
		output.Error(err)
		os.Exit(1)
	}
}

func positions(ctx context.Context, output Output, loader *table.BasicDeleteFileLoader, files []string) error {
	for _, path := range files {
		batches, err := loader.ReadPositionalDeletes(ctx, path)
		if err != nil {
			return err
		}

		vectors, err := table.ParsePositionalDeletes(batches)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		output.Positions(path, summarize(vectors))
	}

	return nil
}

func equality(ctx context.Context, output Output, fs iceio.IO, loader *table.CachingDeleteFileLoader, files []string, idList string) error {
	ids, err := parseIDs(idList)
	if err != nil {
		return err
	}

	schema, err := table.NewBasicDeleteFileLoader(fs, nil).ReadSchema(ctx, files[0])
	if err != nil {
		return err
	}

	task := table.FileScanTask{Schema: schema, CaseSensitive: config.EnvConfig.IsCaseSensitive()}
	for _, path := range files {
		task.Deletes = append(task.Deletes, table.FileScanTaskDeleteFile{
			FilePath:    path,
			FileType:    iceberg.EntryContentEqDeletes,
			EqualityIDs: ids,
		})
	}

	filter, err := loader.LoadDeletes(ctx, task.Deletes, schema)
	if err != nil {
		return err
	}

	pred, err := filter.BuildEqualityDeletePredicate(&task)
	if err != nil {
		return err
	}

	if pred == nil {
		pred = iceberg.AlwaysTrue{}
	}
	output.Predicate(files, pred)

	return nil
}

func vector(ctx context.Context, output Output, loader *table.CachingDeleteFileLoader, files []string, dataFile string) error {
	deleteFiles := make([]table.FileScanTaskDeleteFile, len(files))
	for i, path := range files {
		deleteFiles[i] = table.FileScanTaskDeleteFile{FilePath: path, FileType: iceberg.EntryContentPosDeletes}
	}

	filter, err := loader.LoadDeletes(ctx, deleteFiles, iceberg.PositionalDeleteSchema)
	if err != nil {
		return err
	}

	var positions []uint64
	if dv := filter.GetDeleteVectorForPath(dataFile); dv != nil {
		positions = dv.ToSlice()
	}
	output.Vector(dataFile, positions)

	return nil
}
