// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package checker decides which loaded binaries may run.
//
// Three independently substitutable policy capabilities drive the
// decision:
//
//   - [CredentialsPolicy] scans a binary's credential records in
//     physical order and classifies the binary as accepted or
//     rejected (or defers to its own default when records run out).
//   - [Identifier] and [Compressor] derive the application identifier
//     and its compressed 32-bit surrogate from accepted credentials.
//   - [Uniqueness] defines what "different identifier" means between
//     two processes.
//
// A policy implementation is free to provide all of these behind one
// object — the bundled policies do, sharing trusted-key state between
// the checking and identity concerns — but the machine and the
// uniqueness scan only ever see the capability they need.
//
// Credential checking is the one asynchronous operation in this
// package: [CredentialsPolicy.CheckCredentials] is split-phase, with
// the verdict delivered exactly once to the registered [CheckClient].
// [Machine] drives the scan across the process table as an explicit
// work loop — one record in flight at a time per policy instance, the
// next record issued from the loop rather than from inside the
// completion callback, and completions validated against slot
// generation tokens so a process that vanished mid-check is quietly
// dropped.
//
// [HasUniqueIdentifiers] is the runtime gate from CredentialsApproved
// to Running: a candidate may start only if no currently running
// process collides with it on either the full identifier or the
// compressed one. Collisions are a designed outcome, not an error —
// the candidate simply stays approved-but-not-running until the
// conflict resolves.
package checker
