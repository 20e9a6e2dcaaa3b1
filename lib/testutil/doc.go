// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Ferrite packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that tests waiting on asynchronous credential-check completions do
// not need direct time.After calls and cannot hang a test run.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Ferrite-internal dependencies.
package testutil
