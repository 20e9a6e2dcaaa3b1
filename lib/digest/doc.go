// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest provides the asynchronous hash-verification engine
// the credential checking policies sit on.
//
// On target hardware the engine is a crypto accelerator: requests are
// issued, the caller yields, and a completion interrupt delivers the
// result. The [Verifier] interface models that split-phase contract: a
// single outstanding request per engine instance, completion delivered
// exactly once to the registered [VerifyClient], never on the
// requester's own call stack. [Software] is the host implementation,
// computing the digest on a separate goroutine.
//
// The checker treats any error surfaced here as fatal to the
// credential under check, not to the kernel.
package digest
