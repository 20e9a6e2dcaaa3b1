// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"sync"
	"testing"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/process"
)

var (
	testKeyOnce sync.Once
	testKeys    [2]*rsa.PrivateKey
)

// signingKeys generates two RSA-3072 keys once per test binary; key
// generation is too slow to repeat per test.
func signingKeys(t *testing.T) (trusted, untrusted *rsa.PrivateKey) {
	t.Helper()
	testKeyOnce.Do(func() {
		for i := range testKeys {
			key, err := rsa.GenerateKey(rand.Reader, 3072)
			if err != nil {
				panic("generating RSA test key: " + err.Error())
			}
			testKeys[i] = key
		}
	})
	return testKeys[0], testKeys[1]
}

// signedProc builds a process carrying an RSA-3072 credential signed
// by key. The signature covers the integrity region, which depends on
// the header, so the entry is built with a placeholder first: the
// record length is fixed, so the layout does not move when the real
// key and signature are filled in. tamper flips a signature bit.
func signedProc(t *testing.T, name string, version uint32, key *rsa.PrivateKey, tamper bool) *process.Proc {
	t.Helper()
	dataLen, _ := appbin.FormatRsa3072Key.DataLen()
	spec := appbin.BinarySpec{
		Name:    name,
		Version: version,
		Payload: []byte("text segment of " + name),
		Records: []appbin.CredentialsRecord{
			appbin.NewCredentialsRecord(appbin.FormatRsa3072Key, make([]byte, dataLen)),
		},
	}
	entry, err := appbin.BuildBinary(spec)
	if err != nil {
		t.Fatalf("BuildBinary: %v", err)
	}
	probe, _, err := appbin.ParseBinary(entry)
	if err != nil {
		t.Fatalf("ParseBinary: %v", err)
	}

	hashed := sha512.Sum512(probe.IntegrityRegion())
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA512, hashed[:])
	if err != nil {
		t.Fatalf("SignPKCS1v15: %v", err)
	}
	if tamper {
		signature[0] ^= 0x01
	}
	data := make([]byte, 0, dataLen)
	data = append(data, key.PublicKey.N.FillBytes(make([]byte, 384))...)
	data = append(data, signature...)

	spec.Records[0] = appbin.NewCredentialsRecord(appbin.FormatRsa3072Key, data)
	entry, err = appbin.BuildBinary(spec)
	if err != nil {
		t.Fatalf("BuildBinary: %v", err)
	}
	binary, _, err := appbin.ParseBinary(entry)
	if err != nil {
		t.Fatalf("ParseBinary: %v", err)
	}
	return process.New(binary)
}

func checkWithRSA(t *testing.T, p *process.Proc, trusted ...*rsa.PublicKey) *RSAPolicy {
	t.Helper()
	policy, err := NewRSAPolicy(trusted)
	if err != nil {
		t.Fatalf("NewRSAPolicy: %v", err)
	}
	machine := NewMachine(MachineConfig{Table: singleProcTable(t, p), Credentials: policy, Identity: policy})
	if err := machine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return policy
}

func TestRSAPolicyAcceptsTrustedSignature(t *testing.T) {
	key, _ := signingKeys(t)
	p := signedProc(t, "signed", 1, key, false)
	checkWithRSA(t, p, &key.PublicKey)

	if p.State() != process.CredentialsApproved {
		t.Fatalf("state = %v, want credentials-approved", p.State())
	}
	if !p.AppID().IsGlobal() {
		t.Error("signing key did not become a tracked application identifier")
	}
	if !p.ShortID().IsFixed() {
		t.Error("approval did not assign a fixed ShortID")
	}
}

func TestRSAPolicySameKeySameApplication(t *testing.T) {
	// Two different binaries and versions signed by the same key are
	// the same application: equal identifiers, not different, and the
	// uniqueness scan keeps them from co-running.
	key, _ := signingKeys(t)
	v1 := signedProc(t, "app", 1, key, false)
	v2 := signedProc(t, "app-rebuilt", 2, key, false)
	policy := checkWithRSA(t, v1, &key.PublicKey)
	checkWithRSA(t, v2, &key.PublicKey)

	if v1.State() != process.CredentialsApproved || v2.State() != process.CredentialsApproved {
		t.Fatalf("states = %v, %v, want both approved", v1.State(), v2.State())
	}
	if !v1.AppID().Equal(v2.AppID()) {
		t.Error("binaries signed by the same key have different application identifiers")
	}
	if policy.DifferentIdentifier(v1, v2) {
		t.Error("binaries signed by the same key reported different")
	}
	if err := v1.MarkRunning(); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if HasUniqueIdentifiers(v2, asProcesses(v1, v2), policy) {
		t.Error("second binary of the same application admitted while the first is running")
	}
}

func TestRSAPolicyDistinctKeysDifferentApplications(t *testing.T) {
	keyA, keyB := signingKeys(t)
	a := signedProc(t, "alpha", 1, keyA, false)
	b := signedProc(t, "beta", 1, keyB, false)
	policy := checkWithRSA(t, a, &keyA.PublicKey, &keyB.PublicKey)
	checkWithRSA(t, b, &keyA.PublicKey, &keyB.PublicKey)

	if a.State() != process.CredentialsApproved || b.State() != process.CredentialsApproved {
		t.Fatalf("states = %v, %v, want both approved", a.State(), b.State())
	}
	if a.AppID().Equal(b.AppID()) {
		t.Error("binaries signed by distinct keys share an application identifier")
	}
	if !policy.DifferentIdentifier(a, b) {
		t.Error("binaries signed by distinct keys reported identical")
	}
}

func TestRSAPolicyRejectsUntrustedKey(t *testing.T) {
	trusted, untrusted := signingKeys(t)
	p := signedProc(t, "rogue", 1, untrusted, false)
	checkWithRSA(t, p, &trusted.PublicKey)

	if p.State() != process.CredentialsFailed {
		t.Errorf("state = %v, want credentials-failed for an untrusted key", p.State())
	}
}

func TestRSAPolicyRejectsBadSignature(t *testing.T) {
	key, _ := signingKeys(t)
	p := signedProc(t, "forged", 1, key, true)
	checkWithRSA(t, p, &key.PublicKey)

	if p.State() != process.CredentialsFailed {
		t.Errorf("state = %v, want credentials-failed for a bad signature", p.State())
	}
}

func TestRSAPolicyRequiresCredentials(t *testing.T) {
	key, _ := signingKeys(t)
	p := makeProc(t, "unsigned", 1, reserved(8))
	checkWithRSA(t, p, &key.PublicKey)

	if p.State() != process.CredentialsFailed {
		t.Errorf("state = %v, want credentials-failed with no RSA record", p.State())
	}
}

func TestNewRSAPolicyValidatesKeys(t *testing.T) {
	key, _ := signingKeys(t)

	wrongExponent := key.PublicKey
	wrongExponent.E = 3
	if _, err := NewRSAPolicy([]*rsa.PublicKey{&wrongExponent}); err == nil {
		t.Error("exponent 3 key accepted")
	}

	small, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if _, err := NewRSAPolicy([]*rsa.PublicKey{&small.PublicKey}); err == nil {
		t.Error("2048-bit key accepted, credential formats carry 3072 or 4096")
	}
}

func TestSplitRSARecordRejectsWrongLength(t *testing.T) {
	record := appbin.NewCredentialsRecord(appbin.FormatRsa3072Key, make([]byte, 100))
	if _, _, err := splitRSARecord(record); err == nil {
		t.Error("undersized record split without error")
	}
	if _, _, err := splitRSARecord(reserved(8)); err == nil {
		t.Error("non-RSA record split without error")
	}
}
