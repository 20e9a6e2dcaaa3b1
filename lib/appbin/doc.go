// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package appbin parses the fields of the Ferrite application binary
// (FAB) container that the credential checker depends on: the header
// lengths that delimit the integrity-covered region, the declared
// binary version, and the trailing footer region holding credential
// records.
//
// The container layout, per entry, is:
//
//	header (headerLen bytes):
//	  magic      uint16  (0xFAB1)
//	  headerLen  uint16
//	  totalLen   uint32  entry length including header and footers
//	  version    uint32  declared binary version (boot tie-break input)
//	  binaryEnd  uint32  end offset of the integrity-covered region
//	  nameLen    uint8 + name bytes
//	integrity region (headerLen .. binaryEnd)
//	footer region   (binaryEnd .. totalLen)
//
// All integers are big-endian. The integrity region — and only the
// integrity region — is the input to credential verification: footer
// bytes are never covered by a credential, so credentials can be added
// or stripped without changing what they attest to.
//
// The footer region is a sequence of TLV records:
//
//	type    uint16  (128 identifies a credentials record)
//	length  uint16  (bytes following, including the format word)
//	format  uint32  one of [CredentialsFormat]
//	data    (length - 4) bytes
//
// Record order is physical order and is significant: the checking
// policy scans records first to last and stops at the first terminal
// verdict. Each format except Reserved has a fixed expected data
// length, validated at parse time; Reserved is variable-length
// padding that policies skip.
//
// Parsing uses golang.org/x/crypto/cryptobyte so that truncation and
// length inconsistencies fail closed rather than panic.
package appbin
