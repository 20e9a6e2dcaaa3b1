// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package appid

import (
	"fmt"
)

// ShortID is a compressed 32-bit surrogate for an AppID. The zero
// numeric value is reserved; the zero value of the type is the
// LocallyUnique sentinel, so an uninitialized ShortID is safe (it
// compares unequal to everything).
type ShortID struct {
	value uint32
}

// ErrZeroShortID is returned by Fixed for the reserved value zero.
var ErrZeroShortID = fmt.Errorf("short id value 0 is reserved")

// Fixed returns a ShortID with the given nonzero value.
func Fixed(value uint32) (ShortID, error) {
	if value == 0 {
		return ShortID{}, ErrZeroShortID
	}
	return ShortID{value: value}, nil
}

// Clamp returns Fixed(value) when value is nonzero and the
// LocallyUnique sentinel otherwise. Compressors use this when their
// hash output could land on the reserved value.
func Clamp(value uint32) ShortID {
	return ShortID{value: value}
}

// LocallyUniqueShortID returns the sentinel ShortID.
func LocallyUniqueShortID() ShortID {
	return ShortID{}
}

// IsFixed reports whether the ShortID carries a concrete value.
func (s ShortID) IsFixed() bool {
	return s.value != 0
}

// Value returns the fixed numeric value, and false for the
// LocallyUnique sentinel.
func (s ShortID) Value() (uint32, bool) {
	return s.value, s.value != 0
}

// Equal reports whether two ShortIDs match. Two Fixed values are
// equal iff their numbers match. Any comparison involving the
// LocallyUnique sentinel is false — including sentinel against
// sentinel. Callers must use this method, never ==, which would make
// two sentinels compare equal.
func (s ShortID) Equal(other ShortID) bool {
	return s.value != 0 && s.value == other.value
}

// String returns "locally-unique" or the fixed value in hex.
func (s ShortID) String() string {
	if s.value == 0 {
		return "locally-unique"
	}
	return fmt.Sprintf("%#08x", s.value)
}
