// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package storageperm

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ferrite-os/ferrite/lib/appid"
)

func short(t *testing.T, value uint32) appid.ShortID {
	t.Helper()
	s, err := appid.Fixed(value)
	if err != nil {
		t.Fatalf("Fixed(%d): %v", value, err)
	}
	return s
}

func TestOwnerAccess(t *testing.T) {
	store := NewStore()
	owner := short(t, 10)
	stranger := short(t, 11)

	if err := store.Create(owner, "sensor-log"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !store.CanRead(owner, owner, "sensor-log") {
		t.Error("owner cannot read its own object")
	}
	if !store.CanWrite(owner, owner, "sensor-log") {
		t.Error("owner cannot write its own object")
	}
	if store.CanRead(stranger, owner, "sensor-log") {
		t.Error("stranger can read without a grant")
	}
	if store.CanWrite(stranger, owner, "sensor-log") {
		t.Error("stranger can write without a grant")
	}
	if store.CanRead(owner, owner, "missing") {
		t.Error("access allowed on an object that does not exist")
	}
}

func TestGrantsAreIndependent(t *testing.T) {
	store := NewStore()
	owner := short(t, 1)
	reader := short(t, 2)
	writer := short(t, 3)

	if err := store.Create(owner, "counters"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Grant(owner, "counters", reader, AccessRead); err != nil {
		t.Fatalf("Grant read: %v", err)
	}
	if err := store.Grant(owner, "counters", writer, AccessWrite); err != nil {
		t.Fatalf("Grant write: %v", err)
	}

	if !store.CanRead(reader, owner, "counters") {
		t.Error("read grant not honored")
	}
	if store.CanWrite(reader, owner, "counters") {
		t.Error("read grant allows writing")
	}
	if !store.CanWrite(writer, owner, "counters") {
		t.Error("write grant not honored")
	}
	if store.CanRead(writer, owner, "counters") {
		t.Error("write grant allows reading")
	}
}

func TestGrantRequiresOwnership(t *testing.T) {
	store := NewStore()
	owner := short(t, 1)
	other := short(t, 2)

	if err := store.Create(owner, "data"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Grant(other, "data", short(t, 3), AccessRead)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("grant by non-owner = %v, want ErrNotOwner", err)
	}
}

func TestSentinelIdentityExcluded(t *testing.T) {
	store := NewStore()
	sentinel := appid.LocallyUniqueShortID()
	owner := short(t, 1)

	if err := store.Create(sentinel, "x"); !errors.Is(err, ErrUntracked) {
		t.Errorf("Create with sentinel = %v, want ErrUntracked", err)
	}
	if err := store.Create(owner, "x"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Grant(owner, "x", sentinel, AccessRead); !errors.Is(err, ErrUntracked) {
		t.Errorf("Grant to sentinel = %v, want ErrUntracked", err)
	}
	if store.CanRead(sentinel, owner, "x") {
		t.Error("sentinel identity granted read access")
	}
}

func TestCreateDuplicateRejected(t *testing.T) {
	store := NewStore()
	owner := short(t, 1)
	if err := store.Create(owner, "obj"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(owner, "obj"); err == nil {
		t.Error("duplicate Create did not fail")
	}
	// Same label under a different owner is a distinct object.
	if err := store.Create(short(t, 2), "obj"); err != nil {
		t.Errorf("Create under another owner: %v", err)
	}
}

func TestDeleteAndOwned(t *testing.T) {
	store := NewStore()
	owner := short(t, 9)
	for _, label := range []string{"zeta", "alpha", "mid"} {
		if err := store.Create(owner, label); err != nil {
			t.Fatalf("Create(%q): %v", label, err)
		}
	}

	got := store.Owned(owner)
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Owned = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Owned[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if err := store.Delete(owner, "mid"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.CanRead(owner, owner, "mid") {
		t.Error("deleted object still readable")
	}
	if len(store.Owned(owner)) != 2 {
		t.Errorf("Owned after delete = %v, want 2 labels", store.Owned(owner))
	}
}

func TestTransferCarriesGrants(t *testing.T) {
	store := NewStore()
	oldKey := short(t, 1)
	newKey := short(t, 2)
	reader := short(t, 3)

	if err := store.Create(oldKey, "state"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Grant(oldKey, "state", reader, AccessRead); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := store.Transfer("state", oldKey, newKey); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if store.CanWrite(oldKey, oldKey, "state") {
		t.Error("old owner retains access under its own key")
	}
	if !store.CanWrite(newKey, newKey, "state") {
		t.Error("new owner cannot write the transferred object")
	}
	if !store.CanRead(reader, newKey, "state") {
		t.Error("grant lost in transfer")
	}
	if err := store.Transfer("state", oldKey, newKey); !errors.Is(err, ErrNotOwner) {
		t.Errorf("second transfer = %v, want ErrNotOwner", err)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := NewStore()
	owner := short(t, 0x80001234)
	reader := short(t, 0x80005678)
	if err := store.Create(owner, "log"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Grant(owner, "log", reader, AccessRead); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	path := filepath.Join(t.TempDir(), "permissions.cbor")
	if err := store.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.CanRead(reader, owner, "log") {
		t.Error("grant lost across save/load")
	}
	if loaded.CanWrite(reader, owner, "log") {
		t.Error("write access appeared across save/load")
	}
}

func TestSaveDeterministic(t *testing.T) {
	build := func() *Store {
		store := NewStore()
		for _, v := range []uint32{5, 3, 9} {
			owner := short(t, v)
			store.Create(owner, "b")
			store.Create(owner, "a")
		}
		return store
	}

	dir := t.TempDir()
	first := filepath.Join(dir, "first.cbor")
	second := filepath.Join(dir, "second.cbor")
	if err := build().Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := build().Save(second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical stores produced different file bytes")
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "absent.cbor"))
	if err != nil {
		t.Fatalf("Load of a missing file: %v", err)
	}
	if store == nil {
		t.Fatal("Load of a missing file returned nil store")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permissions.cbor")
	if err := os.WriteFile(path, []byte{0xFF, 0xFE}, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("corrupt file loaded without error")
	}
}
