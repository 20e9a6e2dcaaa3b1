// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader discovers application binaries in a flash image,
// loads them into process table slots, and runs the boot sequence:
// credential checking (lib/checker) followed by uniqueness-gated
// process start.
//
// Discovery walks the image lowest offset first; credential checking
// visits processes in that same order. Starting is where the boot
// tie-break lives: when several approved processes collide on
// identity, the strictly higher binary version is preferred, and
// equal versions resolve by slot order — deterministic for a given
// image, but not a contract across kernel builds. Losers of the
// tie-break stay CredentialsApproved and may start later when the
// conflicting process terminates.
package loader
