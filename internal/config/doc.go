// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package config loads and validates the storage engine's configuration.
//
// Configuration is layered with koanf v2: built-in defaults are loaded
// first, then an optional YAML file, then environment variables, each
// layer overriding the last. The merged result is unmarshaled into
// EngineConfig and checked with go-playground/validator struct tags
// before the engine is allowed to start.
package config
