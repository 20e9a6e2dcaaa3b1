// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package process models loaded application binaries as processes and
// tracks their credential state.
//
// Each process is in exactly one [State] at a time:
//
//	Unloaded → CredentialsUnchecked → CredentialsFailed
//	                                → CredentialsApproved → Running ⇄ Terminated
//
// Transitions are one-directional except Running and Terminated: a
// terminated process's slot may later be reused for a restart. The
// Unloaded → CredentialsUnchecked transition happens at load time
// ([New] performs it); the verdict transitions are driven by the
// checking machine in lib/checker, and CredentialsApproved → Running
// is gated by the uniqueness scan. Termination is an external
// management action and may strike at any time — the checker
// tolerates a process disappearing between scan steps.
//
// [Table] is the slot collection the loader fills and the checker
// iterates. Slots carry generation counters so that a completion
// callback arriving after its slot was reused can be recognized as
// stale and discarded.
package process
