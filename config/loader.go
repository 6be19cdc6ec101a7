// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates an EngineConfig from a YAML file, starting
// from Default() so a config file only needs to name the fields it
// overrides (spec §A.3 "loaded from YAML ... with env/flag overlay").
func LoadFile(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, err
	}
	if err := cfg.Valid(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// SaveFile writes cfg to path as YAML, for operators who built a config via
// Builder and want to persist the result.
func SaveFile(path string, cfg EngineConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
