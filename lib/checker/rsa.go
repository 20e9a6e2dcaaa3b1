// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha512"
	"errors"
	"fmt"
	"math/big"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/appid"
	"github.com/ferrite-os/ferrite/lib/process"
)

// rsaPublicExponent is the public exponent implied by the credential
// format; the record carries only the modulus.
const rsaPublicExponent = 65537

// RSAPolicy approves binaries carrying an RSA-keyed credential: the
// record's embedded public key must be in the trusted set and its
// PKCS#1 v1.5 / SHA-512 signature must verify over the integrity
// region. The signing key is the application identity, so every
// binary and version signed by the same key is the same application —
// the property the storage permission layer builds on.
type RSAPolicy struct {
	deferredClient

	// trusted is keyed by the fixed-width big-endian modulus bytes,
	// exactly as they appear in credential records.
	trusted map[string]struct{}
}

var _ Policy = (*RSAPolicy)(nil)

// NewRSAPolicy builds a policy trusting the given public keys. Keys
// must use exponent 65537 and be RSA-3072 or RSA-4096 (the only sizes
// the credential formats carry).
func NewRSAPolicy(keys []*rsa.PublicKey) (*RSAPolicy, error) {
	trusted := make(map[string]struct{}, len(keys))
	for i, key := range keys {
		if key.E != rsaPublicExponent {
			return nil, fmt.Errorf("trusted key %d has exponent %d, credential formats imply %d",
				i, key.E, rsaPublicExponent)
		}
		size := key.Size()
		if size != 384 && size != 512 {
			return nil, fmt.Errorf("trusted key %d is %d bytes, credential formats carry 384 or 512",
				i, size)
		}
		trusted[string(key.N.FillBytes(make([]byte, size)))] = struct{}{}
	}
	return &RSAPolicy{trusted: trusted}, nil
}

// RequireCredentials returns true.
func (p *RSAPolicy) RequireCredentials() bool {
	return true
}

// CheckCredentials verifies RSA-keyed records and passes on other
// formats. Verification runs off the caller's stack; a well-formed
// record with an untrusted key or a bad signature is a Reject, a
// record whose contents cannot even be split into key and signature
// is an error.
func (p *RSAPolicy) CheckCredentials(record appbin.CredentialsRecord, integrity []byte) error {
	if err := p.begin(); err != nil {
		return err
	}
	switch record.Format() {
	case appbin.FormatRsa3072Key, appbin.FormatRsa4096Key:
	default:
		p.deliverAsync(Pass, nil, record, integrity)
		return nil
	}

	go func() {
		verdict, err := p.verify(record, integrity)
		p.deliver(verdict, err, record, integrity)
	}()
	return nil
}

func (p *RSAPolicy) verify(record appbin.CredentialsRecord, integrity []byte) (Verdict, error) {
	modulus, signature, err := splitRSARecord(record)
	if err != nil {
		return Reject, err
	}

	if _, ok := p.trusted[string(modulus)]; !ok {
		return Reject, nil
	}

	key := &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: rsaPublicExponent}
	hashed := sha512.Sum512(integrity)
	switch err := rsa.VerifyPKCS1v15(key, crypto.SHA512, hashed[:], signature); {
	case err == nil:
		return Accept, nil
	case errors.Is(err, rsa.ErrVerification):
		return Reject, nil
	default:
		return Reject, fmt.Errorf("rsa verification: %w", err)
	}
}

// splitRSARecord separates a keyed credential's data into the modulus
// and signature halves. Record lengths were validated at parse time,
// so a failure here means the record was hand-built wrong.
func splitRSARecord(record appbin.CredentialsRecord) (modulus, signature []byte, err error) {
	var keyLen int
	switch record.Format() {
	case appbin.FormatRsa3072Key:
		keyLen = 384
	case appbin.FormatRsa4096Key:
		keyLen = 512
	default:
		return nil, nil, fmt.Errorf("record format %s is not RSA-keyed", record.Format())
	}
	data := record.Data()
	if len(data) != 2*keyLen {
		return nil, nil, fmt.Errorf("%s record has %d data bytes, want %d", record.Format(), len(data), 2*keyLen)
	}
	return data[:keyLen], data[keyLen:], nil
}

// AppID derives identity from the signing key's modulus: stable
// across every binary and version signed by that key.
func (p *RSAPolicy) AppID(proc process.Process, record *appbin.CredentialsRecord) appid.AppID {
	if record == nil {
		return appid.LocallyUnique()
	}
	modulus, _, err := splitRSARecord(*record)
	if err != nil {
		return appid.LocallyUnique()
	}
	return appid.Global(modulus)
}

// ShortID takes the leading modulus bytes, top bit forced.
func (p *RSAPolicy) ShortID(proc process.Process, record *appbin.CredentialsRecord) appid.ShortID {
	if record == nil {
		return appid.LocallyUniqueShortID()
	}
	modulus, _, err := splitRSARecord(*record)
	if err != nil {
		return appid.LocallyUniqueShortID()
	}
	return leadingShortID(modulus)
}

// DifferentIdentifier compares the identifiers assigned at approval:
// same signing key, same application.
func (p *RSAPolicy) DifferentIdentifier(a, b process.Process) bool {
	return differentAppID(a, b)
}
