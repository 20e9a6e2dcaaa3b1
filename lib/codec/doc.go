// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Ferrite's standard CBOR encoding configuration.
//
// Ferrite uses two serialization formats with a clear boundary:
//
//   - YAML for operator-facing configuration (boot policy files,
//     trusted key manifests).
//   - CBOR for machine state: persistent storage permission records,
//     tooling output consumed by other tools.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Ferrite package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which is what lets permission records be compared and
// deduplicated as raw bytes.
//
// For buffer-oriented operations (records, files):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (record stores, pipes):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
