// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"fmt"
	"sync"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/digest"
	"github.com/ferrite-os/ferrite/lib/process"
)

// HashPolicy approves only binaries carrying a bare-hash credential
// whose digest matches the integrity region, verified through an
// asynchronous digest engine. Records of other formats are passed
// over; a binary with no matching record fails (credentials are
// required).
//
// The digest itself is the application identity: two binaries are the
// same application iff they are byte-identical, so every released
// version is a distinct application under this policy.
type HashPolicy struct {
	deferredClient

	format appbin.CredentialsFormat
	engine digest.Verifier

	// in-flight request state, owned between Verify and
	// VerificationDone.
	mu        sync.Mutex
	record    appbin.CredentialsRecord
	integrity []byte
}

var _ Policy = (*HashPolicy)(nil)

// NewHashPolicy builds a policy for one bare-hash credential format.
// engine must compute the matching algorithm; the policy registers
// itself as the engine's completion client.
func NewHashPolicy(format appbin.CredentialsFormat, engine digest.Verifier) (*HashPolicy, error) {
	switch format {
	case appbin.FormatSHA256, appbin.FormatSHA384, appbin.FormatSHA512:
	default:
		return nil, fmt.Errorf("format %s is not a bare-hash credential format", format)
	}
	p := &HashPolicy{format: format, engine: engine}
	engine.SetClient(p)
	return p, nil
}

// RequireCredentials returns true: a binary without an accepted hash
// credential does not run.
func (p *HashPolicy) RequireCredentials() bool {
	return true
}

// CheckCredentials verifies records of the policy's format through
// the digest engine and passes on everything else.
func (p *HashPolicy) CheckCredentials(record appbin.CredentialsRecord, integrity []byte) error {
	if err := p.begin(); err != nil {
		return err
	}
	if record.Format() != p.format {
		p.deliverAsync(Pass, nil, record, integrity)
		return nil
	}

	p.mu.Lock()
	p.record = record
	p.integrity = integrity
	p.mu.Unlock()

	if err := p.engine.Verify(record.Data(), integrity); err != nil {
		// The engine never started, so no completion will arrive
		// from it; deliver the failure ourselves.
		p.deliverAsync(Reject, fmt.Errorf("starting digest verification: %w", err), record, integrity)
		return nil
	}
	return nil
}

// VerificationDone implements digest.VerifyClient.
func (p *HashPolicy) VerificationDone(match bool, err error) {
	p.mu.Lock()
	record := p.record
	integrity := p.integrity
	p.record = appbin.CredentialsRecord{}
	p.integrity = nil
	p.mu.Unlock()

	if err != nil {
		p.deliver(Reject, fmt.Errorf("digest engine: %w", err), record, integrity)
		return
	}
	if match {
		p.deliver(Accept, nil, record, integrity)
	} else {
		p.deliver(Reject, nil, record, integrity)
	}
}

// AppID derives identity from the accepted digest bytes.
func (p *HashPolicy) AppID(proc process.Process, record *appbin.CredentialsRecord) appid.AppID {
	if record == nil || record.Format() != p.format {
		return appid.LocallyUnique()
	}
	return appid.Global(record.Data())
}

// ShortID takes the leading digest bytes, top bit forced.
func (p *HashPolicy) ShortID(proc process.Process, record *appbin.CredentialsRecord) appid.ShortID {
	if record == nil || record.Format() != p.format {
		return appid.LocallyUniqueShortID()
	}
	return leadingShortID(record.Data())
}

// DifferentIdentifier compares the identifiers assigned at approval.
func (p *HashPolicy) DifferentIdentifier(a, b process.Process) bool {
	return differentAppID(a, b)
}
