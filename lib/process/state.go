// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package process

// State is the credential state of a loaded process.
type State int

const (
	// Unloaded means no binary occupies the slot.
	Unloaded State = iota

	// CredentialsUnchecked means the binary is loaded but its
	// credential records have not been scanned yet.
	CredentialsUnchecked

	// CredentialsFailed means the checking policy rejected the
	// binary (explicit Reject, or records exhausted while the
	// policy requires credentials). The process never runs in this
	// state.
	CredentialsFailed

	// CredentialsApproved means the checking policy accepted the
	// binary. The process may still be blocked from Running by the
	// uniqueness scan; it stays approved and becomes eligible again
	// when a conflicting process terminates.
	CredentialsApproved

	// Running means the process passed the uniqueness scan and is
	// scheduled for execution.
	Running

	// Terminated means the process stopped, by exiting or by
	// external management action. A terminated process may restart,
	// which re-enters the uniqueness scan.
	Terminated
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case CredentialsUnchecked:
		return "credentials-unchecked"
	case CredentialsFailed:
		return "credentials-failed"
	case CredentialsApproved:
		return "credentials-approved"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "invalid"
	}
}
