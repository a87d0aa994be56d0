// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import "errors"

var (
	// ErrInvalidArgument means a task parameter violated an alignment or
	// range constraint. Reported before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUserDeclined means the destructive-action confirmation was
	// refused.
	ErrUserDeclined = errors.New("declined by user")

	// ErrCancelled means the cooperative cancellation flag was tripped.
	ErrCancelled = errors.New("cancelled")

	// ErrVerificationMismatch means read-back bytes differed from the
	// regenerated stream. Retried like a transient I/O failure.
	ErrVerificationMismatch = errors.New("verification mismatch")

	// ErrNothingToWipe means the wipeable range rounded down to nothing.
	ErrNothingToWipe = errors.New("nothing to wipe")

	// ErrRetriesExhausted wraps the block error that consumed the last
	// retry.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
