// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/checker"
	"github.com/ferrite-os/ferrite/lib/process"
)

// Load discovers binaries in image, lowest storage address first, and
// inserts each as a CredentialsUnchecked process. It returns the
// number of processes loaded. Discovery ends cleanly at the first
// slot that holds no entry (erased flash, end of image); a
// structurally corrupt entry ends discovery with an error, since the
// entry's declared length can no longer be trusted to find the next
// one.
func Load(image []byte, table *process.Table, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loaded := 0
	rest := image
	for {
		binary, next, err := appbin.ParseBinary(rest)
		if errors.Is(err, appbin.ErrNoBinary) {
			return loaded, nil
		}
		if err != nil {
			return loaded, fmt.Errorf("discovering binary %d: %w", loaded, err)
		}
		if _, err := table.Insert(process.New(binary)); err != nil {
			return loaded, fmt.Errorf("loading %q: %w", binary.Name, err)
		}
		logger.Info("loaded process",
			"process", binary.Name, "version", binary.Version, "bytes", len(binary.Image))
		loaded++
		rest = next
	}
}

// StartProcesses runs the boot start pass: every CredentialsApproved
// process that has unique identifiers among running processes
// transitions to Running. Candidates are visited strictly-higher
// versions first so that when two approved processes collide on
// identity, the newer binary wins; equal versions fall back to slot
// order. Blocked candidates keep their CredentialsApproved state.
// Returns the number of processes started.
func StartProcesses(table *process.Table, identity checker.IdentityPolicy, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	if identity == nil {
		identity = permissiveIdentity{}
	}

	type candidate struct {
		index int
		proc  *process.Proc
	}
	var candidates []candidate
	for index := 0; index < table.Len(); index++ {
		if p := table.At(index); p != nil && p.State() == process.CredentialsApproved {
			candidates = append(candidates, candidate{index: index, proc: p})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].proc.Version() != candidates[j].proc.Version() {
			return candidates[i].proc.Version() > candidates[j].proc.Version()
		}
		return candidates[i].index < candidates[j].index
	})

	snapshot := table.Snapshot()
	all := make([]process.Process, len(snapshot))
	for i, p := range snapshot {
		all[i] = p
	}

	started := 0
	for _, c := range candidates {
		if !checker.HasUniqueIdentifiers(c.proc, all, identity) {
			logger.Info("process blocked by identifier collision",
				"process", c.proc.Name(), "version", c.proc.Version(),
				"shortid", c.proc.ShortID().String())
			continue
		}
		if err := c.proc.MarkRunning(); err != nil {
			// Terminated externally between the scan and the start.
			logger.Debug("start dropped, process state changed",
				"process", c.proc.Name(), "error", err)
			continue
		}
		logger.Info("process started",
			"process", c.proc.Name(), "version", c.proc.Version(),
			"appid", c.proc.AppID().String(), "shortid", c.proc.ShortID().String())
		started++
	}
	return started
}

// BootConfig configures Boot.
type BootConfig struct {
	// Capacity is the process table size. Zero defaults to 16.
	Capacity int

	// Policy is the combined checking and identity policy. Nil runs
	// every discovered binary (no checking, no tracked identity).
	Policy checker.Policy

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Boot is the full boot sequence over one flash image: discover and
// load binaries, scan their credentials, start the unique ones. The
// returned table reflects the post-boot process states, including
// approved-but-blocked processes awaiting conflict resolution.
func Boot(ctx context.Context, image []byte, cfg BootConfig) (*process.Table, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = 16
	}

	table := process.NewTable(capacity)
	loaded, err := Load(image, table, logger)
	if err != nil {
		return table, err
	}

	var credentials checker.CredentialsPolicy
	var identity checker.IdentityPolicy
	if cfg.Policy != nil {
		credentials = cfg.Policy
		identity = cfg.Policy
	}
	machine := checker.NewMachine(checker.MachineConfig{
		Table:       table,
		Credentials: credentials,
		Identity:    identity,
		Logger:      logger,
	})
	if err := machine.Run(ctx); err != nil {
		return table, fmt.Errorf("checking credentials: %w", err)
	}

	started := StartProcesses(table, identity, logger)
	logger.Info("boot complete", "loaded", loaded, "started", started)
	return table, nil
}

// permissiveIdentity is the identity policy used when none is
// configured: nothing is tracked, nothing collides.
type permissiveIdentity struct{}

func (permissiveIdentity) AppID(process.Process, *appbin.CredentialsRecord) appid.AppID {
	return appid.LocallyUnique()
}

func (permissiveIdentity) ShortID(process.Process, *appbin.CredentialsRecord) appid.ShortID {
	return appid.LocallyUniqueShortID()
}

func (permissiveIdentity) DifferentIdentifier(a, b process.Process) bool {
	return true
}
