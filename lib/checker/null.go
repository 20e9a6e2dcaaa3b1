// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/process"
)

// NullPolicy runs every binary regardless of credentials, as long as
// its process name is unique among running processes. It passes on
// every record, requires none, and assigns no persistent identity —
// a development and bring-up policy.
type NullPolicy struct {
	deferredClient
}

var _ Policy = (*NullPolicy)(nil)

// NewNullPolicy returns the pass-everything policy.
func NewNullPolicy() *NullPolicy {
	return &NullPolicy{}
}

// RequireCredentials returns false: exhausting records approves.
func (p *NullPolicy) RequireCredentials() bool {
	return false
}

// CheckCredentials passes on every record.
func (p *NullPolicy) CheckCredentials(record appbin.CredentialsRecord, integrity []byte) error {
	if err := p.begin(); err != nil {
		return err
	}
	p.deliverAsync(Pass, nil, record, integrity)
	return nil
}

// AppID returns the LocallyUnique sentinel: this policy tracks no
// persistent identity.
func (p *NullPolicy) AppID(proc process.Process, record *appbin.CredentialsRecord) appid.AppID {
	return appid.LocallyUnique()
}

// ShortID returns the LocallyUnique sentinel.
func (p *NullPolicy) ShortID(proc process.Process, record *appbin.CredentialsRecord) appid.ShortID {
	return appid.LocallyUniqueShortID()
}

// DifferentIdentifier distinguishes processes by name: two processes
// with the same name may not run together under this policy.
func (p *NullPolicy) DifferentIdentifier(a, b process.Process) bool {
	return a.Name() != b.Name()
}
