// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"sync"
)

// Token identifies a process occupying a table slot at a point in
// time. The checker machine captures a token when it issues an
// asynchronous credential check and validates it again when the
// completion arrives; if the slot was emptied or reused in between,
// the token no longer resolves and the completion is discarded.
type Token struct {
	index      int
	generation uint64
}

// Table is the fixed-capacity process slot collection. Slots may be
// empty (a binary that failed to load, a removed process); iteration
// skips them.
type Table struct {
	mu    sync.Mutex
	slots []*Proc
	gens  []uint64
}

// NewTable returns a table with the given number of slots.
func NewTable(capacity int) *Table {
	return &Table{
		slots: make([]*Proc, capacity),
		gens:  make([]uint64, capacity),
	}
}

// Len returns the slot count, occupied or not.
func (t *Table) Len() int {
	return len(t.slots)
}

// Insert places p in the lowest empty slot and returns its token.
func (t *Table) Insert(p *Proc) (Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, occupant := range t.slots {
		if occupant == nil {
			t.slots[i] = p
			t.gens[i]++
			return Token{index: i, generation: t.gens[i]}, nil
		}
	}
	return Token{}, fmt.Errorf("process table full: all %d slots occupied", len(t.slots))
}

// Remove empties the slot at index, bumping its generation so that
// outstanding tokens for the old occupant stop resolving.
func (t *Table) Remove(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.slots) || t.slots[index] == nil {
		return
	}
	t.slots[index] = nil
	t.gens[index]++
}

// At returns the process at index, or nil for an empty slot.
func (t *Table) At(index int) *Proc {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

// TokenAt returns a token for the current occupant of index, and
// false for an empty slot.
func (t *Table) TokenAt(index int) (Token, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.slots) || t.slots[index] == nil {
		return Token{}, false
	}
	return Token{index: index, generation: t.gens[index]}, true
}

// Resolve returns the process a token refers to, or nil if the slot
// was emptied or reused since the token was issued.
func (t *Table) Resolve(token Token) *Proc {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token.index < 0 || token.index >= len(t.slots) {
		return nil
	}
	if t.gens[token.index] != token.generation {
		return nil
	}
	return t.slots[token.index]
}

// Snapshot returns the occupied slots in slot order. The returned
// slice is a copy; the processes it points at remain live and their
// state may change after the snapshot is taken — consumers like the
// uniqueness scan re-read state per process and tolerate both.
func (t *Table) Snapshot() []*Proc {
	t.mu.Lock()
	defer t.mu.Unlock()
	procs := make([]*Proc, 0, len(t.slots))
	for _, p := range t.slots {
		if p != nil {
			procs = append(procs, p)
		}
	}
	return procs
}
