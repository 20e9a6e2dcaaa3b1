// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package appid

import "testing"

func TestGlobalEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b AppID
		want bool
	}{
		{"same bytes", Global([]byte("app-key")), Global([]byte("app-key")), true},
		{"different bytes", Global([]byte("app-key")), Global([]byte("other")), false},
		{"empty bytes match", Global(nil), Global([]byte{}), true},
		{"global vs locally unique", Global([]byte("app-key")), LocallyUnique(), false},
		{"locally unique vs global", LocallyUnique(), Global([]byte("app-key")), false},
		{"two locally unique", LocallyUnique(), LocallyUnique(), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Equal(test.b); got != test.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", test.a, test.b, got, test.want)
			}
			// Equality is symmetric.
			if got := test.b.Equal(test.a); got != test.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", test.b, test.a, got, test.want)
			}
		})
	}
}

func TestLocallyUniqueIrreflexive(t *testing.T) {
	id := LocallyUnique()
	if id.Equal(id) {
		t.Error("LocallyUnique AppID compares equal to itself")
	}
	if id.IsGlobal() {
		t.Error("LocallyUnique AppID claims to be global")
	}
	if id.Bytes() != nil {
		t.Errorf("LocallyUnique AppID has inspectable bytes %v", id.Bytes())
	}
}

func TestGlobalBytesCopied(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	id := Global(src)
	src[0] = 99
	if got := id.Bytes(); got[0] != 1 {
		t.Errorf("AppID aliases caller slice: got %v", got)
	}
	// Mutating the returned copy must not affect the identifier.
	id.Bytes()[0] = 77
	if !id.Equal(Global([]byte{1, 2, 3, 4})) {
		t.Error("AppID mutated through Bytes() result")
	}
}

func TestShortIDEquality(t *testing.T) {
	fixed := func(v uint32) ShortID {
		s, err := Fixed(v)
		if err != nil {
			t.Fatalf("Fixed(%d): %v", v, err)
		}
		return s
	}

	tests := []struct {
		name string
		a, b ShortID
		want bool
	}{
		{"equal fixed", fixed(42), fixed(42), true},
		{"unequal fixed", fixed(42), fixed(43), false},
		{"fixed vs sentinel", fixed(42), LocallyUniqueShortID(), false},
		{"sentinel vs fixed", LocallyUniqueShortID(), fixed(42), false},
		{"sentinel vs sentinel", LocallyUniqueShortID(), LocallyUniqueShortID(), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Equal(test.b); got != test.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestShortIDSentinelIrreflexive(t *testing.T) {
	s := LocallyUniqueShortID()
	if s.Equal(s) {
		t.Error("LocallyUnique ShortID compares equal to itself")
	}

	// The zero value is the sentinel too.
	var zero ShortID
	if zero.Equal(zero) {
		t.Error("zero-value ShortID compares equal to itself")
	}
	if zero.IsFixed() {
		t.Error("zero-value ShortID claims to be fixed")
	}
}

func TestShortIDZeroReserved(t *testing.T) {
	if _, err := Fixed(0); err == nil {
		t.Error("Fixed(0) succeeded, want error for the reserved value")
	}
	if Clamp(0).IsFixed() {
		t.Error("Clamp(0) produced a fixed ShortID")
	}
	if !Clamp(1).IsFixed() {
		t.Error("Clamp(1) produced the sentinel")
	}
	if v, ok := Clamp(7).Value(); !ok || v != 7 {
		t.Errorf("Clamp(7).Value() = %d, %v, want 7, true", v, ok)
	}
}
