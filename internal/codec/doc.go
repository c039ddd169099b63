// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package codec encodes a batch of schema.Row values into the columnar
// partition blob the KV adapter persists, and decodes it back. The
// columnar path builds an Arrow record and serializes it with the Arrow IPC
// stream format; a JSON fallback is used when the columnar path is
// disabled, and both formats are self-describing via a leading magic
// sequence so decode doesn't need to know which one produced a given blob.
package codec
