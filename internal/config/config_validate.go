// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigError represents a single configuration validation failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Validate checks an EngineConfig against its struct tags, then the
// cross-field rules that validator tags can't express (the KV value-log file
// size must be at least the memtable size, and buffer.max_buffered_rows must
// be positive while capacity.max_total_bytes is set).
func Validate(cfg *EngineConfig) error {
	if err := validate.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		first := verrs[0]
		return &ConfigError{
			Field:   first.Namespace(),
			Message: describeTag(first),
		}
	}
	return crossFieldValidate(cfg)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lt":
		return "must be < " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed validation: " + fe.Tag()
	}
}

func crossFieldValidate(cfg *EngineConfig) error {
	if cfg.KV.ValueLogFileSize < cfg.KV.MemTableSize {
		return &ConfigError{
			Field:   "kv.value_log_file_size_bytes",
			Message: "must be >= kv.memtable_size_bytes",
		}
	}
	if cfg.Capacity.MaxTotalBytes > 0 && cfg.Buffer.MaxBufferedRows <= 0 {
		return &ConfigError{
			Field:   "buffer.max_buffered_rows",
			Message: "must be positive when capacity.max_total_bytes is enforced",
		}
	}
	return nil
}
