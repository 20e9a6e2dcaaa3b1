// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/process"
)

// MachineConfig configures a checking machine.
type MachineConfig struct {
	// Table is the process collection to check.
	Table *process.Table

	// Credentials is the checking policy. Nil means no checking:
	// every unchecked process is approved, the boot configuration
	// for deployments without credentials.
	Credentials CredentialsPolicy

	// Identity derives identifiers at approval time. Nil assigns the
	// LocallyUnique sentinels.
	Identity IdentityPolicy

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Machine walks the process table and drives the credential scan:
// records in physical order within a binary, binaries in slot order,
// one record check in flight at a time. It is the CheckClient of its
// credentials policy.
//
// A Machine is single-use per Run call and must not be shared across
// concurrent Run calls, matching the one-outstanding-operation
// contract of the policy instance it drives.
type Machine struct {
	table       *process.Table
	credentials CredentialsPolicy
	identity    IdentityPolicy
	logger      *slog.Logger

	// completions carries verdicts from CheckDone into the Run loop.
	// Capacity 1: at most one check is outstanding, and a completion
	// arriving after Run gave up on it (context cancellation, stale
	// process) must not block the policy's delivery goroutine.
	completions chan completion
}

type completion struct {
	verdict Verdict
	err     error
}

// NewMachine builds a machine and registers it as the policy's
// completion client.
func NewMachine(cfg MachineConfig) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		table:       cfg.Table,
		credentials: cfg.Credentials,
		identity:    cfg.Identity,
		logger:      logger,
		completions: make(chan completion, 1),
	}
	if m.credentials != nil {
		m.credentials.SetClient(m)
	}
	return m
}

// CheckDone implements CheckClient.
func (m *Machine) CheckDone(verdict Verdict, err error, record appbin.CredentialsRecord, integrity []byte) {
	m.completions <- completion{verdict: verdict, err: err}
}

// Run checks every CredentialsUnchecked process in the table, in slot
// order (the order the loader discovered their binaries). It returns
// only on context cancellation; per-binary failures become state
// transitions, never errors.
func (m *Machine) Run(ctx context.Context) error {
	for index := 0; index < m.table.Len(); index++ {
		p := m.table.At(index)
		if p == nil || p.State() != process.CredentialsUnchecked {
			continue
		}
		if m.credentials == nil {
			m.approve(p, nil)
			continue
		}
		if err := m.checkProcess(ctx, index, p); err != nil {
			return err
		}
	}
	return nil
}

// checkProcess scans one binary's footer records to a terminal state.
func (m *Machine) checkProcess(ctx context.Context, index int, p *process.Proc) error {
	token, ok := m.table.TokenAt(index)
	if !ok {
		return nil
	}
	integrity := p.Binary().IntegrityRegion()
	footer := p.Binary().FooterRegion()

	for recordIndex := 0; ; recordIndex++ {
		record, rest, err := appbin.ParseRecord(footer)
		if errors.Is(err, appbin.ErrNoRecord) {
			// Records exhausted (or none at all): the policy's
			// default decides.
			if m.credentials.RequireCredentials() {
				m.logger.Info("credentials required but none accepted",
					"process", p.Name(), "records", recordIndex)
				m.fail(p)
			} else {
				m.logger.Debug("credentials not required, approving by default",
					"process", p.Name(), "records", recordIndex)
				m.approve(p, nil)
			}
			return nil
		}
		if err != nil {
			m.logger.Warn("malformed credential record, rejecting binary",
				"process", p.Name(), "record", recordIndex, "error", err)
			m.fail(p)
			return nil
		}
		footer = rest

		if err := m.credentials.CheckCredentials(record, integrity); err != nil {
			m.logger.Warn("credential check did not start, rejecting binary",
				"process", p.Name(), "record", recordIndex,
				"format", record.Format().String(), "error", err)
			m.fail(p)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case done := <-m.completions:
			if m.table.Resolve(token) != p {
				// The slot was emptied or reused while the check
				// was in flight. Whatever the verdict was, it
				// belongs to a process that no longer exists.
				m.logger.Debug("discarding stale check completion", "slot", index)
				return nil
			}
			if done.err != nil {
				m.logger.Warn("credential record check errored, rejecting binary",
					"process", p.Name(), "record", recordIndex,
					"format", record.Format().String(), "error", done.err)
				m.fail(p)
				return nil
			}
			switch done.verdict {
			case Accept:
				m.approve(p, &record)
				return nil
			case Reject:
				m.logger.Info("credential record rejected binary",
					"process", p.Name(), "record", recordIndex,
					"format", record.Format().String())
				m.fail(p)
				return nil
			case Pass:
				// Next record.
			}
		}
	}
}

// approve moves p to CredentialsApproved with identifiers derived by
// the identity policy. record is nil for default approvals.
func (m *Machine) approve(p *process.Proc, record *appbin.CredentialsRecord) {
	id := appid.LocallyUnique()
	short := appid.LocallyUniqueShortID()
	if m.identity != nil {
		id = m.identity.AppID(p, record)
		short = m.identity.ShortID(p, record)
	}
	if err := p.MarkCredentialsPass(record, id, short); err != nil {
		// The process was terminated or removed under us; tolerated.
		m.logger.Debug("approval dropped, process state changed", "process", p.Name(), "error", err)
		return
	}
	m.logger.Info("credentials approved",
		"process", p.Name(), "version", p.Version(), "appid", id.String(), "shortid", short.String())
}

func (m *Machine) fail(p *process.Proc) {
	if err := p.MarkCredentialsFail(); err != nil {
		m.logger.Debug("rejection dropped, process state changed", "process", p.Name(), "error", err)
	}
}
