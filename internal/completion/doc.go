// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion implements the client for the external
// text-generation endpoint.
//
// One HTTP POST per user message. The error taxonomy is deliberate:
// ErrAuthFailed (401/403) is never retried, ErrRateLimited and 5xx are
// retried up to twice with exponential backoff, and a cancelled context
// surfaces as context.Canceled so callers can distinguish a user-initiated
// stop from a failure. A second entrypoint, GenerateShort, shares the
// transport for title generation.
package completion
