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

package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	cfgFile           = ".iceberg-lite.yaml"
	defaultMaxWorkers = 5
)

type Config struct {
	DefaultStorage string                   `yaml:"default-storage"`
	Storage        map[string]StorageConfig `yaml:"storage"`
	MaxWorkers     int                      `yaml:"max-workers"`
	// CaseSensitive is the default for binding delete predicates when a
	// scan task does not say otherwise.
	CaseSensitive *bool `yaml:"case-sensitive"`
}

// StorageConfig names a warehouse location together with the
// properties handed to io.LoadFS for it.
type StorageConfig struct {
	Warehouse  string            `yaml:"warehouse"`
	Output     string            `yaml:"output"`
	Properties map[string]string `yaml:"properties"`
}

// IsCaseSensitive reports the configured default, true when unset.
func (c Config) IsCaseSensitive() bool {
	return c.CaseSensitive == nil || *c.CaseSensitive
}

func LoadConfig(configPath string) []byte {
	var path string
	if len(configPath) > 0 {
		path = configPath
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(homeDir, cfgFile)
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return file
}

func ParseConfig(file []byte, storageName string) *StorageConfig {
	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil
	}

	res, ok := config.Storage[storageName]
	if !ok {
		return nil
	}

	return &res
}

func fromConfigFile(path string) Config {
	var cfg Config
	if err := yaml.Unmarshal(LoadConfig(path), &cfg); err != nil {
		cfg = Config{}
	}

	if cfg.DefaultStorage == "" {
		cfg.DefaultStorage = "default"
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}

	return cfg
}

// FromFile loads the configuration at path, or the one in the user's
// home directory when path is empty, applying defaults for unset values.
func FromFile(path string) Config {
	return fromConfigFile(path)
}

func fromEnv() Config {
	dir := os.Getenv("ICEBERG_LITE_HOME")
	if dir != "" {
		dir = filepath.Join(dir, cfgFile)
	}

	return fromConfigFile(dir)
}

var EnvConfig = fromEnv()
