// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Ferrite-appcheck inspects and verifies application flash images
// offline. It parses binary entries and their credential footers,
// runs the configured checking policy against an image the way boot
// would, and seals images with bare-hash credentials.
// Subcommands: list, check, seal, version.
package main
