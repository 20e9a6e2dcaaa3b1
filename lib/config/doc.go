// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Ferrite tooling.
//
// Configuration is loaded from a single YAML file specified by:
//   - FERRITE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The file selects the credential checking policy, names the trusted
// signing keys for the RSA policies, and points at the persistent
// permission table.
package config
