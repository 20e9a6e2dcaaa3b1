// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"sync"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/process"
)

// deferredClient implements the client registration and the
// one-outstanding-operation bookkeeping shared by the bundled
// policies. Policies embed it and deliver completions through
// deliver (from a goroutine they own) or deliverAsync (when the
// verdict is already known inside CheckCredentials and must still
// leave the requester's call stack).
type deferredClient struct {
	mu     sync.Mutex
	client CheckClient
	busy   bool
}

func (d *deferredClient) SetClient(client CheckClient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.client = client
}

// begin claims the single operation slot.
func (d *deferredClient) begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return ErrNoClient
	}
	if d.busy {
		return ErrBusy
	}
	d.busy = true
	return nil
}

// deliver releases the operation slot and hands the completion to the
// client. The slot is released first so the client may issue the next
// check from inside CheckDone. Callers must already be off the
// requester's call stack.
func (d *deferredClient) deliver(verdict Verdict, err error, record appbin.CredentialsRecord, integrity []byte) {
	d.mu.Lock()
	d.busy = false
	client := d.client
	d.mu.Unlock()
	client.CheckDone(verdict, err, record, integrity)
}

// deliverAsync delivers on a fresh goroutine, the software analog of
// scheduling a deferred call for a verdict that needs no slow work.
func (d *deferredClient) deliverAsync(verdict Verdict, err error, record appbin.CredentialsRecord, integrity []byte) {
	go d.deliver(verdict, err, record, integrity)
}

// differentAppID compares the identifiers assigned at approval time.
// Processes without a global identifier (unapproved, or approved with
// identity tracking off) are reported different: a blocked comparison
// here could only keep runnable processes from running.
func differentAppID(a, b process.Process) bool {
	return !a.AppID().Equal(b.AppID())
}
