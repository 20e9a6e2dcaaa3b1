// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/process"
)

// NamesPolicy runs every binary and assigns pseudo-unique ShortIDs
// hashed from the process name, for deployments that want stable
// storage ownership tags without credential verification.
//
// The policy accepts the first credential record it sees (of any
// format, including reserved padding) so that binaries built with a
// footer region get their identifiers from the accept path; binaries
// with no records at all are approved by the default rule.
type NamesPolicy struct {
	deferredClient
}

var _ Policy = (*NamesPolicy)(nil)

// NewNamesPolicy returns the name-hashing policy.
func NewNamesPolicy() *NamesPolicy {
	return &NamesPolicy{}
}

// RequireCredentials returns false.
func (p *NamesPolicy) RequireCredentials() bool {
	return false
}

// CheckCredentials accepts the first record unconditionally.
func (p *NamesPolicy) CheckCredentials(record appbin.CredentialsRecord, integrity []byte) error {
	if err := p.begin(); err != nil {
		return err
	}
	p.deliverAsync(Accept, nil, record, integrity)
	return nil
}

// AppID returns the LocallyUnique sentinel: names are not a
// persistent identity, only a ShortID source.
func (p *NamesPolicy) AppID(proc process.Process, record *appbin.CredentialsRecord) appid.AppID {
	return appid.LocallyUnique()
}

// ShortID hashes the process name.
func (p *NamesPolicy) ShortID(proc process.Process, record *appbin.CredentialsRecord) appid.ShortID {
	return NameShortID(proc.Name())
}

// DifferentIdentifier reports every pair different: with no tracked
// identity, only ShortID collisions gate co-running.
func (p *NamesPolicy) DifferentIdentifier(a, b process.Process) bool {
	return true
}
