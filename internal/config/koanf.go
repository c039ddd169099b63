// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for, in
// priority order. The first one found is used.
var DefaultConfigPaths = []string{
	"engine.yaml",
	"engine.yml",
	"/etc/logengine/engine.yaml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "LOGENGINE_CONFIG_PATH"

// defaultConfig returns an EngineConfig with sensible defaults for a
// single-process, embedded deployment.
func defaultConfig() *EngineConfig {
	return &EngineConfig{
		KV: KVConfig{
			Path:                  "/data/logengine/kv",
			SyncWrites:            false,
			MemTableSize:          16 * 1024 * 1024,
			ValueLogFileSize:      64 * 1024 * 1024,
			NumCompactors:         2,
			GCInterval:            10 * time.Minute,
			GCDiscardRatio:        0.5,
		},
		Buffer: BufferConfig{
			FlushSize:       500,
			FlushInterval:   5 * time.Second,
			MaxBufferedRows: 5000,
		},
		StatsCache: StatsCacheConfig{
			TTL:     5 * time.Minute,
			Enabled: true,
		},
		DynamicIndex: DynamicIndexConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 3,
			Enabled:    true,
		},
		Retention: RetentionConfig{
			Enabled:            true,
			MaxAgeDays:         730,
			CompactionMaxBytes: 100 * 1024,
			SweepInterval:      1 * time.Hour,
		},
		Capacity: CapacityConfig{
			MaxTotalBytes:    2 << 30, // 2GiB
			WarningThreshold: 0.8,
		},
		Circuit: CircuitConfig{
			MaxFailures:          5,
			OpenTimeout:          30 * time.Second,
			HalfOpenMax:          1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "logengine",
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8085,
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds an EngineConfig with koanf's layered sources:
//  1. Defaults: built-in sensible defaults.
//  2. Config file: optional YAML file, if found.
//  3. Environment variables: highest priority, prefixed LOGENGINE_.
//
// The merged result is validated before being returned.
func Load() (*EngineConfig, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("LOGENGINE_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	cfg := &EngineConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configSections lists the top-level EngineConfig koanf keys so
// envTransformFunc can split "LOGENGINE_STATS_CACHE_TTL" into the
// "stats_cache" section plus the "ttl" field without guessing where the
// section name ends. A section matches only as the whole name followed by
// "_", and no section name is a prefix of another, so the order of the list
// does not affect the result.
var configSections = []string{
	"stats_cache",
	"dynamic_index",
	"retention",
	"capacity",
	"circuit",
	"logging",
	"metrics",
	"server",
	"buffer",
	"kv",
}

// envTransformFunc maps LOGENGINE_KV_PATH -> kv.path, LOGENGINE_STATS_CACHE_TTL
// -> stats_cache.ttl, etc. Unlike the teacher's hand-maintained mapping table,
// every env key under the LOGENGINE_ prefix translates mechanically since
// this config has no legacy variable names to preserve.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "LOGENGINE_"))
	for _, section := range configSections {
		if key == section {
			return section
		}
		if strings.HasPrefix(key, section+"_") {
			field := strings.TrimPrefix(key, section+"_")
			return section + "." + field
		}
	}
	return ""
}
