// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"hash"
	"sync"
)

// Algorithm selects the hash function a Verifier computes.
type Algorithm int

const (
	SHA256 Algorithm = iota
	SHA384
	SHA512
)

// Size returns the digest length in bytes.
func (a Algorithm) Size() int {
	switch a {
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return "invalid"
	}
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		return nil
	}
}

// Compute returns the digest of data under the algorithm. Synchronous
// helper for tooling and tests; the checker path goes through
// Verifier.
func Compute(a Algorithm, data []byte) ([]byte, error) {
	h := a.newHash()
	if h == nil {
		return nil, fmt.Errorf("unknown digest algorithm %d", a)
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// ErrBusy is returned by Verify while a previous request is
// outstanding. An engine instance has at most one pending operation.
var ErrBusy = errors.New("digest engine busy")

// VerifyClient receives verification completions. Exactly one call is
// delivered per accepted Verify request.
type VerifyClient interface {
	// VerificationDone reports whether the computed digest matched
	// the expected value. err is non-nil for engine failures, in
	// which case match is meaningless.
	VerificationDone(match bool, err error)
}

// Verifier computes a digest over data and compares it against an
// expected value.
type Verifier interface {
	// SetClient registers the completion sink. Must be called before
	// the first Verify.
	SetClient(client VerifyClient)

	// Verify begins a verification of data against expected. It
	// returns immediately; the result arrives at the client. Returns
	// ErrBusy if a request is already in flight, or an error if
	// expected has the wrong length for the engine's algorithm.
	Verify(expected, data []byte) error
}

// Software is a Verifier computing digests in host software. The
// completion runs on a separate goroutine, mirroring the interrupt
// context of a hardware engine — it is never delivered on the
// caller's stack.
type Software struct {
	algorithm Algorithm

	mu     sync.Mutex
	client VerifyClient
	busy   bool
}

// NewSoftware returns a software engine for the given algorithm.
func NewSoftware(algorithm Algorithm) *Software {
	return &Software{algorithm: algorithm}
}

// Algorithm returns the engine's hash function.
func (s *Software) Algorithm() Algorithm {
	return s.algorithm
}

func (s *Software) SetClient(client VerifyClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

func (s *Software) Verify(expected, data []byte) error {
	if len(expected) != s.algorithm.Size() {
		return fmt.Errorf("expected digest is %d bytes, %s produces %d",
			len(expected), s.algorithm, s.algorithm.Size())
	}

	s.mu.Lock()
	if s.client == nil {
		s.mu.Unlock()
		return fmt.Errorf("no client registered on %s engine", s.algorithm)
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	client := s.client
	s.mu.Unlock()

	go func() {
		computed, err := Compute(s.algorithm, data)
		match := err == nil && subtle.ConstantTimeCompare(computed, expected) == 1

		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()

		client.VerificationDone(match, err)
	}()
	return nil
}
