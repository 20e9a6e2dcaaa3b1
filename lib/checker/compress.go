// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/ferrite-os/ferrite/lib/appid"
)

// nameDomainKey is the BLAKE3 key for compressing process names to
// ShortIDs. Domain separation keeps name-derived values from ever
// colliding with values derived in other hash domains by
// construction. Fixed constant — changing it changes every deployed
// ShortID and with it every storage ownership tag. The byte values
// are the ASCII encoding of the domain name, zero-padded to 32 bytes.
var nameDomainKey = [32]byte{
	'f', 'e', 'r', 'r', 'i', 't', 'e', '.', 'a', 'p', 'p', 'i', 'd', '.',
	'n', 'a', 'm', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// NameShortID compresses a process name to a ShortID via a keyed
// BLAKE3 hash. Deterministic and lossy: distinct names may collide,
// which the uniqueness scan tolerates by never trusting ShortID
// equality alone.
func NameShortID(name string) appid.ShortID {
	hasher, err := blake3.NewKeyed(nameDomainKey[:])
	if err != nil {
		panic("checker: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(name))
	var sum [32]byte
	hasher.Sum(sum[:0])
	// Clamp handles the one-in-four-billion digest whose leading
	// word is the reserved zero value.
	return appid.Clamp(binary.BigEndian.Uint32(sum[:4]))
}

// leadingShortID builds a ShortID from the first four bytes of
// credential material (a digest, a key modulus), forcing the top bit
// so the value is never the reserved zero. The resulting identifiers
// carry 31 bits of the source — not enough collision resistance to
// prove identity, which is exactly why the uniqueness scan also
// compares full identifiers.
func leadingShortID(data []byte) appid.ShortID {
	if len(data) < 4 {
		return appid.LocallyUniqueShortID()
	}
	return appid.Clamp(0x80000000 | binary.BigEndian.Uint32(data[:4]))
}
