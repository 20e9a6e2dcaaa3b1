// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"sync"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
)

// Process is the read surface the checker core and external layers
// (storage permissions, console tooling) see.
type Process interface {
	// Name is the process name declared in the binary header.
	Name() string

	// Version is the declared binary version.
	Version() uint32

	// State is the current credential state.
	State() State

	// IsRunning reports State() == Running. The uniqueness scan
	// leans on this: a non-running process never contributes a
	// collision, which is also what makes the scan safe when the
	// candidate appears in its own candidate set.
	IsRunning() bool

	// Credentials returns the accepted credential record, or nil if
	// the process was approved without one (policy default) or has
	// not been approved.
	Credentials() *appbin.CredentialsRecord

	// AppID returns the identifier derived at approval time. Before
	// approval it is the LocallyUnique sentinel.
	AppID() appid.AppID

	// ShortID returns the compressed identifier assigned at approval
	// time. The storage layer uses this as the ownership tag on
	// records written by the process.
	ShortID() appid.ShortID
}

// New loads a binary into a fresh process in the
// CredentialsUnchecked state. The Unloaded → CredentialsUnchecked
// transition is the load itself.
func New(binary *appbin.Binary) *Proc {
	return &Proc{binary: binary, state: CredentialsUnchecked}
}

// Proc is the in-memory process implementation. All state access is
// internally synchronized: verdicts arrive from the checker machine
// while external management (termination, console queries) may touch
// the process from other goroutines.
type Proc struct {
	mu          sync.Mutex
	binary      *appbin.Binary
	state       State
	credentials *appbin.CredentialsRecord
	appID       appid.AppID
	shortID     appid.ShortID
}

var _ Process = (*Proc)(nil)

// Binary returns the loaded binary.
func (p *Proc) Binary() *appbin.Binary {
	return p.binary
}

func (p *Proc) Name() string {
	return p.binary.Name
}

func (p *Proc) Version() uint32 {
	return p.binary.Version
}

func (p *Proc) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Proc) IsRunning() bool {
	return p.State() == Running
}

func (p *Proc) Credentials() *appbin.CredentialsRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.credentials
}

func (p *Proc) AppID() appid.AppID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appID
}

func (p *Proc) ShortID() appid.ShortID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shortID
}

// MarkCredentialsPass records the checking policy's Accept verdict
// (or the no-credentials default when the policy does not require
// credentials). record is the accepted credential, nil for the
// default case. The identifier and short identifier were derived by
// the identifier policy and are held for the life of the process.
func (p *Proc) MarkCredentialsPass(record *appbin.CredentialsRecord, id appid.AppID, short appid.ShortID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != CredentialsUnchecked {
		return fmt.Errorf("process %q is %v, cannot approve credentials", p.binary.Name, p.state)
	}
	p.state = CredentialsApproved
	p.credentials = record
	p.appID = id
	p.shortID = short
	return nil
}

// MarkCredentialsFail records the checking policy's Reject verdict.
func (p *Proc) MarkCredentialsFail() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != CredentialsUnchecked {
		return fmt.Errorf("process %q is %v, cannot fail credentials", p.binary.Name, p.state)
	}
	p.state = CredentialsFailed
	return nil
}

// MarkRunning transitions an approved (or terminated-and-restarting)
// process to Running. Callers must have passed the uniqueness scan
// first; this method only enforces the state gate.
func (p *Proc) MarkRunning() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != CredentialsApproved && p.state != Terminated {
		return fmt.Errorf("process %q is %v, cannot start", p.binary.Name, p.state)
	}
	p.state = Running
	return nil
}

// MarkTerminated stops the process. Allowed from Running and, for
// external management action, directly from CredentialsApproved.
func (p *Proc) MarkTerminated() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running && p.state != CredentialsApproved {
		return fmt.Errorf("process %q is %v, cannot terminate", p.binary.Name, p.state)
	}
	p.state = Terminated
	return nil
}
