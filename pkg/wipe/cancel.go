// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import "sync/atomic"

// cancelRequested is the process-level cooperative cancellation flag.
// Signal handling sets it; the driver polls it between blocks, finishes
// the current block, flushes and aborts with ErrCancelled.
var cancelRequested atomic.Bool

// RequestCancel trips the cancellation flag. Safe to call from a signal
// handler goroutine.
func RequestCancel() {
	cancelRequested.Store(true)
}

// CancelRequested reports whether cancellation has been requested.
func CancelRequested() bool {
	return cancelRequested.Load()
}

func resetCancel() {
	cancelRequested.Store(false)
}
