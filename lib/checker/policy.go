// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"errors"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/process"
)

// Verdict classifies one credential record.
type Verdict int

const (
	// Accept approves the whole binary. Scanning stops.
	Accept Verdict = iota

	// Reject fails the whole binary. Scanning stops.
	Reject

	// Pass expresses no opinion on this record; the next record, if
	// any, is checked.
	Pass
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Pass:
		return "pass"
	default:
		return "invalid"
	}
}

// ErrBusy is returned by CheckCredentials while a previous check is
// outstanding. A policy instance has at most one pending operation.
var ErrBusy = errors.New("credential check already in flight")

// ErrNoClient is returned by CheckCredentials when no CheckClient has
// been registered to receive the completion.
var ErrNoClient = errors.New("no check client registered")

// CheckClient receives credential check completions. For every
// CheckCredentials call that returned nil, exactly one CheckDone call
// is delivered, never on the requester's own call stack.
type CheckClient interface {
	// CheckDone delivers the verdict for one record. A non-nil err
	// means the policy could not evaluate the record (engine
	// failure, malformed credential data); the verdict is then
	// meaningless and the caller treats the binary as rejected.
	CheckDone(verdict Verdict, err error, record appbin.CredentialsRecord, integrity []byte)
}

// CredentialsPolicy is the pluggable accept/reject/pass logic over a
// binary's credential records.
type CredentialsPolicy interface {
	// RequireCredentials decides the default when a binary's records
	// are exhausted (including the zero-records case) without a
	// terminal verdict: true fails the binary, false approves it.
	RequireCredentials() bool

	// CheckCredentials begins the asynchronous check of one record.
	// integrity is exactly the binary content from the end of the
	// header to the declared binary end — the only bytes any
	// cryptographic verification may cover. Returns ErrBusy while a
	// check is outstanding; any other error means the check never
	// started and no completion will arrive.
	CheckCredentials(record appbin.CredentialsRecord, integrity []byte) error

	// SetClient registers the completion sink. Must be called before
	// the first CheckCredentials.
	SetClient(client CheckClient)
}

// Identifier derives the application identifier from an accepted
// credential record (nil when the binary was approved by default
// without one) and the process's binary metadata. The derivation must
// be deterministic for identical inputs; it may return the
// LocallyUnique sentinel when the deployment does not track identity.
type Identifier interface {
	AppID(p process.Process, record *appbin.CredentialsRecord) appid.AppID
}

// Compressor derives the 32-bit surrogate identifier. Total,
// deterministic, and non-failing; lossy compression is permitted (two
// applications may share a Fixed value — the uniqueness scan's full
// identifier comparison is what actually proves identity).
type Compressor interface {
	ShortID(p process.Process, record *appbin.CredentialsRecord) appid.ShortID
}

// Uniqueness defines pairwise identifier difference between
// processes.
//
// Precondition: callers do not compare a process against itself and
// rely on the answer. The uniqueness scan iterates a set that
// includes the candidate, but the candidate is screened out by its
// own not-running state before this is consulted. Implementations
// must be consistent with their Identifier derivation: two processes
// approved from the same global identity must not be reported
// different.
type Uniqueness interface {
	DifferentIdentifier(a, b process.Process) bool
}

// IdentityPolicy bundles the identifier-side capabilities the machine
// and the uniqueness scan consume together.
type IdentityPolicy interface {
	Identifier
	Compressor
	Uniqueness
}

// Policy is the full checker policy surface. The bundled policies
// (Null, Names, SHA256, RSA) implement it as one object.
type Policy interface {
	CredentialsPolicy
	IdentityPolicy
}
