// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"github.com/ferrite-os/ferrite/lib/process"
)

// HasUniqueIdentifiers decides whether candidate may transition to
// Running given the current process set. It returns true only when no
// running process collides with the candidate on identity.
//
// The candidate must be CredentialsApproved or Terminated (a
// terminated process restarting); any other state — already Running,
// CredentialsFailed, Unloaded — is not "unique and runnable" by
// definition, which guards against re-admitting an already-active
// identity.
//
// all conventionally includes the candidate itself. That is safe: a
// candidate in an admissible state is not running, so its own entry
// is skipped by the running check and contributes no collision. A
// process disappearing or changing state between iterations is
// likewise tolerated — not running means no collision.
//
// A running process p collides with the candidate unless BOTH the
// identity policy reports their identifiers different AND their
// compressed identifiers are unequal. ShortID inequality alone proves
// nothing (compression is lossy); identifier difference alone is not
// enough either, because the storage layer keys records by ShortID
// and two running processes must never share one.
//
// This function never fails: the identity policy's operations are
// specified total and deterministic. A policy that panics here has a
// programming bug, not a runtime condition to recover from.
func HasUniqueIdentifiers(candidate process.Process, all []process.Process, policy IdentityPolicy) bool {
	if s := candidate.State(); s != process.CredentialsApproved && s != process.Terminated {
		return false
	}

	candidateShort := policy.ShortID(candidate, candidate.Credentials())

	for _, p := range all {
		if p == nil || !p.IsRunning() {
			continue
		}
		if !policy.DifferentIdentifier(candidate, p) {
			return false
		}
		if candidateShort.Equal(policy.ShortID(p, p.Credentials())) {
			return false
		}
	}
	return true
}
