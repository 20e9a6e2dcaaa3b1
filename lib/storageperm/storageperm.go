// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package storageperm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/codec"
)

// ErrUntracked is returned when an operation names a process whose
// ShortID is the locally unique sentinel: there is no stable identity
// to key storage by.
var ErrUntracked = errors.New("process has no fixed short identifier")

// ErrNotOwner is returned when a grant or transfer is attempted by an
// identity that does not own the object.
var ErrNotOwner = errors.New("not the object owner")

// Record describes one storage object and the identities allowed to
// touch it. ShortIDs are stored as their raw uint32 values; zero
// never appears (it is the reserved sentinel encoding).
type Record struct {
	// Object is the storage object label, unique per owner.
	Object string `cbor:"object"`

	// Owner is the ShortID value of the owning application.
	Owner uint32 `cbor:"owner"`

	// Readers may read the object.
	Readers []uint32 `cbor:"readers,omitempty"`

	// Writers may modify the object. Write does not imply read.
	Writers []uint32 `cbor:"writers,omitempty"`
}

// fileState is the on-disk shape of a store.
type fileState struct {
	Version int      `cbor:"version"`
	Records []Record `cbor:"records"`
}

const fileVersion = 1

// Store is an in-memory permission table with CBOR persistence. Safe
// for concurrent use.
type Store struct {
	mu sync.Mutex
	// records is keyed by owner ShortID value, then object label.
	records map[uint32]map[string]*Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[uint32]map[string]*Record)}
}

// fixedValue extracts the uint32 identity of a ShortID, rejecting the
// sentinel.
func fixedValue(short appid.ShortID) (uint32, error) {
	value, ok := short.Value()
	if !ok {
		return 0, ErrUntracked
	}
	return value, nil
}

// Create records owner as the owner of object. Creating an object the
// owner already has is an error: ownership records are never silently
// replaced, because replacement would drop existing grants.
func (s *Store) Create(owner appid.ShortID, object string) error {
	ownerValue, err := fixedValue(owner)
	if err != nil {
		return fmt.Errorf("creating %q: %w", object, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.records[ownerValue]
	if owned == nil {
		owned = make(map[string]*Record)
		s.records[ownerValue] = owned
	}
	if _, exists := owned[object]; exists {
		return fmt.Errorf("creating %q: owner %s already has it", object, owner)
	}
	owned[object] = &Record{Object: object, Owner: ownerValue}
	return nil
}

// Delete removes owner's record for object. Deleting an absent record
// is a no-op.
func (s *Store) Delete(owner appid.ShortID, object string) error {
	ownerValue, err := fixedValue(owner)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", object, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[ownerValue], object)
	return nil
}

// Grant extends access to object, owned by owner, to grantee. kind is
// "read" or "write". Granting twice is a no-op.
func (s *Store) Grant(owner appid.ShortID, object string, grantee appid.ShortID, kind AccessKind) error {
	ownerValue, err := fixedValue(owner)
	if err != nil {
		return fmt.Errorf("granting %s on %q: %w", kind, object, err)
	}
	granteeValue, err := fixedValue(grantee)
	if err != nil {
		return fmt.Errorf("granting %s on %q: grantee: %w", kind, object, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[ownerValue][object]
	if record == nil {
		return fmt.Errorf("granting %s on %q: %w", kind, object, ErrNotOwner)
	}
	switch kind {
	case AccessRead:
		record.Readers = appendUnique(record.Readers, granteeValue)
	case AccessWrite:
		record.Writers = appendUnique(record.Writers, granteeValue)
	default:
		return fmt.Errorf("granting on %q: unknown access kind %d", object, kind)
	}
	return nil
}

// CanRead reports whether requester may read owner's object. Owners
// read their own objects; the sentinel identity reads nothing.
func (s *Store) CanRead(requester, owner appid.ShortID, object string) bool {
	return s.allowed(requester, owner, object, AccessRead)
}

// CanWrite reports whether requester may modify owner's object.
func (s *Store) CanWrite(requester, owner appid.ShortID, object string) bool {
	return s.allowed(requester, owner, object, AccessWrite)
}

func (s *Store) allowed(requester, owner appid.ShortID, object string, kind AccessKind) bool {
	requesterValue, err := fixedValue(requester)
	if err != nil {
		return false
	}
	ownerValue, err := fixedValue(owner)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[ownerValue][object]
	if record == nil {
		return false
	}
	if requesterValue == record.Owner {
		return true
	}
	grants := record.Readers
	if kind == AccessWrite {
		grants = record.Writers
	}
	for _, g := range grants {
		if g == requesterValue {
			return true
		}
	}
	return false
}

// Owned returns the object labels owned by the identity, in lexical
// order.
func (s *Store) Owned(owner appid.ShortID) []string {
	ownerValue, err := fixedValue(owner)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var labels []string
	for label := range s.records[ownerValue] {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Transfer moves ownership of object from one identity to another,
// carrying the existing grants along. The motivating case is an
// application's signing key rotating: the new key owns what the old
// key owned.
func (s *Store) Transfer(object string, from, to appid.ShortID) error {
	fromValue, err := fixedValue(from)
	if err != nil {
		return fmt.Errorf("transferring %q: %w", object, err)
	}
	toValue, err := fixedValue(to)
	if err != nil {
		return fmt.Errorf("transferring %q: new owner: %w", object, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[fromValue][object]
	if record == nil {
		return fmt.Errorf("transferring %q: %w", object, ErrNotOwner)
	}
	if existing := s.records[toValue][object]; existing != nil {
		return fmt.Errorf("transferring %q: new owner already has an object by that label", object)
	}
	delete(s.records[fromValue], object)
	record.Owner = toValue
	owned := s.records[toValue]
	if owned == nil {
		owned = make(map[string]*Record)
		s.records[toValue] = owned
	}
	owned[object] = record
	return nil
}

// Save writes the store to path atomically: temporary file in the
// same directory, fsync, rename. Readers never see a partial table.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	state := fileState{Version: fileVersion}
	for _, owned := range s.records {
		for _, record := range owned {
			state.Records = append(state.Records, *record)
		}
	}
	s.mu.Unlock()

	// Deterministic file contents: CBOR map keys are already sorted
	// by the codec; record order must not depend on map iteration.
	sort.Slice(state.Records, func(i, j int) bool {
		if state.Records[i].Owner != state.Records[j].Owner {
			return state.Records[i].Owner < state.Records[j].Owner
		}
		return state.Records[i].Object < state.Records[j].Object
	})

	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling permission table: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary permission file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary permission file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary permission file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary permission file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming permission file into place: %w", err)
	}

	// Sync the parent directory so the rename survives power loss.
	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// Load reads a store from path. A missing file yields an empty store
// (first boot); corrupt contents are an error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, err
	}

	var state fileState
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing permission file %s: %w", path, err)
	}
	if state.Version != fileVersion {
		return nil, fmt.Errorf("permission file %s has version %d, want %d", path, state.Version, fileVersion)
	}

	store := NewStore()
	for i := range state.Records {
		record := state.Records[i]
		if record.Owner == 0 {
			return nil, fmt.Errorf("permission file %s: record %q has the reserved zero owner", path, record.Object)
		}
		owned := store.records[record.Owner]
		if owned == nil {
			owned = make(map[string]*Record)
			store.records[record.Owner] = owned
		}
		owned[record.Object] = &record
	}
	return store, nil
}

// AccessKind selects which grant list an operation touches.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "invalid"
	}
}

func appendUnique(values []uint32, v uint32) []uint32 {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
