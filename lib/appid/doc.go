// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package appid defines the identifier value types the process checker
// assigns to userspace application binaries.
//
// An [AppID] is the application identifier: either a Global identifier,
// derived deterministically from accepted credentials (or binary
// metadata) and stable across every binary and version of the same
// application, or a LocallyUnique sentinel that is by definition
// distinct from every other identifier — including other LocallyUnique
// instances. Equality is a hand-written relation, never structural:
// any comparison involving a LocallyUnique identifier is false, even
// against itself.
//
// A [ShortID] is a compressed 32-bit surrogate for an AppID, used where
// a full identifier is too large to store per-record (for example as
// the ownership tag on persistent storage entries). The numeric value
// zero is reserved: a ShortID is either Fixed and nonzero, or the
// LocallyUnique sentinel. The compression from AppID to ShortID is
// policy-defined and may be lossy; two distinct applications may share
// a Fixed value. What the kernel guarantees is operational, not
// structural: among currently running processes, identifiers are
// unique (enforced by the uniqueness scan in lib/checker).
//
// This package has no dependencies on other Ferrite packages.
package appid
