// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package appbin

import "fmt"

// CredentialsFormat identifies the kind of credential a footer record
// carries. The values are container format constants — changing them
// breaks compatibility with existing binaries.
type CredentialsFormat uint32

const (
	// FormatReserved is variable-length padding. Binaries are built
	// with a reserved record sized to leave room for credentials to
	// be installed later without moving the footer region.
	FormatReserved CredentialsFormat = 0

	// FormatRsa3072Key is a 384-byte RSA-3072 public key followed by
	// a 384-byte PKCS#1 v1.5 / SHA-512 signature over the integrity
	// region.
	FormatRsa3072Key CredentialsFormat = 1

	// FormatRsa4096Key is a 512-byte RSA-4096 public key followed by
	// a 512-byte PKCS#1 v1.5 / SHA-512 signature over the integrity
	// region.
	FormatRsa4096Key CredentialsFormat = 2

	// FormatSHA256 is a bare 32-byte SHA-256 digest of the integrity
	// region.
	FormatSHA256 CredentialsFormat = 3

	// FormatSHA384 is a bare 48-byte SHA-384 digest.
	FormatSHA384 CredentialsFormat = 4

	// FormatSHA512 is a bare 64-byte SHA-512 digest.
	FormatSHA512 CredentialsFormat = 5
)

// DataLen returns the fixed expected data length in bytes for the
// format, and false for FormatReserved (variable length) and unknown
// formats.
func (f CredentialsFormat) DataLen() (int, bool) {
	switch f {
	case FormatRsa3072Key:
		return 768, true
	case FormatRsa4096Key:
		return 1024, true
	case FormatSHA256:
		return 32, true
	case FormatSHA384:
		return 48, true
	case FormatSHA512:
		return 64, true
	default:
		return 0, false
	}
}

// Known reports whether the format is part of the closed enumeration.
// Policies are free to Pass records they do not understand; the
// per-record length always permits skipping them.
func (f CredentialsFormat) Known() bool {
	return f <= FormatSHA512
}

func (f CredentialsFormat) String() string {
	switch f {
	case FormatReserved:
		return "reserved"
	case FormatRsa3072Key:
		return "rsa3072-key"
	case FormatRsa4096Key:
		return "rsa4096-key"
	case FormatSHA256:
		return "sha256"
	case FormatSHA384:
		return "sha384"
	case FormatSHA512:
		return "sha512"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(f))
	}
}

// CredentialsRecord is one parsed credential from a binary's footer
// region: a format tag plus the opaque credential bytes. Records are
// value-like and read-only once parsed.
type CredentialsRecord struct {
	format CredentialsFormat
	data   []byte
}

// NewCredentialsRecord constructs a record. The data slice is retained,
// not copied; the record and the checker treat it as immutable.
func NewCredentialsRecord(format CredentialsFormat, data []byte) CredentialsRecord {
	return CredentialsRecord{format: format, data: data}
}

// Format returns the record's format tag.
func (r CredentialsRecord) Format() CredentialsFormat {
	return r.format
}

// Data returns the credential bytes. Callers must not modify the
// returned slice.
func (r CredentialsRecord) Data() []byte {
	return r.data
}

func (r CredentialsRecord) String() string {
	return fmt.Sprintf("%s (%d bytes)", r.format, len(r.data))
}
