// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package appid

import (
	"bytes"
	"encoding/hex"
)

// AppID identifies an application. It is derived once per loaded
// binary by the identifier policy at credential-check time and held
// for the lifetime of the process.
//
// A Global AppID wraps the bytes it was derived from (a signing key,
// a content digest — whatever the policy chose). Under a fixed policy
// pair the derivation is deterministic, so restarting the same binary
// re-derives an identifier that compares equal to its prior value.
//
// A LocallyUnique AppID carries no inspectable value. It exists for
// deployments that do not track persistent application identity: it
// never equals anything, so every process holding one is trivially
// distinct in the uniqueness scan.
type AppID struct {
	global bool
	data   []byte
}

// Global returns an AppID derived from the given bytes. The bytes are
// copied; callers may reuse the slice afterwards.
func Global(data []byte) AppID {
	return AppID{global: true, data: bytes.Clone(data)}
}

// LocallyUnique returns the sentinel identifier. Every value returned
// here is unequal to every AppID, including other LocallyUnique
// values and itself.
func LocallyUnique() AppID {
	return AppID{}
}

// IsGlobal reports whether the identifier carries a persistent global
// identity. The zero value of AppID is LocallyUnique.
func (id AppID) IsGlobal() bool {
	return id.global
}

// Bytes returns a copy of the derivation bytes of a Global identifier,
// or nil for LocallyUnique.
func (id AppID) Bytes() []byte {
	if !id.global {
		return nil
	}
	return bytes.Clone(id.data)
}

// Equal reports whether two identifiers denote the same application.
// Any comparison involving a LocallyUnique identifier is false; this
// is deliberate and includes comparing a LocallyUnique value against
// itself. Two Global identifiers are equal iff their derivation bytes
// are byte-identical.
func (id AppID) Equal(other AppID) bool {
	if !id.global || !other.global {
		return false
	}
	return bytes.Equal(id.data, other.data)
}

// String returns a short printable form for logs: "locally-unique" or
// the hex of the first eight derivation bytes.
func (id AppID) String() string {
	if !id.global {
		return "locally-unique"
	}
	head := id.data
	if len(head) > 8 {
		head = head[:8]
	}
	return "global:" + hex.EncodeToString(head)
}
