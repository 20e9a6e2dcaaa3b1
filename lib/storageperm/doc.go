// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package storageperm tracks ownership of persistent storage objects
// by application identity.
//
// A storage object is owned by the compressed identifier (ShortID) of
// the application that created it, never by a process instance:
// processes come and go across restarts and upgrades, the owning
// application stays the same. Grants extend read or modify access to
// other applications, again by ShortID.
//
// Only fixed ShortIDs participate. A process with the locally unique
// sentinel has no stable identity to key storage by, so it can own
// nothing and be granted nothing persistent.
//
// The store persists as a single CBOR file written atomically
// (temporary file, fsync, rename), so a crash mid-write never leaves
// a partial permission table behind.
package storageperm
