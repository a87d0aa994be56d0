// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-diskwipe/pkg/storage"
)

const (
	// retryBackoff is the pause before retrying a failed block.
	retryBackoff = 100 * time.Millisecond

	// progressInterval rate-limits progress events to roughly 10 Hz.
	progressInterval = 100 * time.Millisecond
)

// driver walks a task's pass sequence against a storage access. Each
// pass moves Pending -> Writing -> Flushing -> (Verifying ->) Done;
// Writing and Verifying may detour through Retrying and back, or end in
// Aborted. The driver is single-threaded: one I/O in flight at a time,
// with a cooperative cancellation check between blocks.
type driver struct {
	task     *Task
	state    *State
	access   storage.Access
	frontend Frontend

	// buf is the single generator buffer reused for every block.
	buf     []byte
	readBuf []byte

	lastProgress time.Time
}

func (d *driver) run() bool {
	t := d.task

	if !d.confirm() {
		d.emit(Event{Kind: EventAborted, Cause: ErrUserDeclined})
		return false
	}
	d.emit(Event{Kind: EventStarted})

	deviceBlock := uint64(d.access.BlockSize()) // #nosec G115 -- block sizes are small positive
	if t.BlockSize < deviceBlock || t.BlockSize%deviceBlock != 0 {
		d.emit(Event{Kind: EventFatal, Cause: fmt.Errorf(
			"%w: block size %d is not a multiple of the device block size %d",
			ErrInvalidArgument, t.BlockSize, deviceBlock)})
		return false
	}

	end := t.End()
	if end <= t.Offset {
		d.emit(Event{Kind: EventAborted, Cause: ErrNothingToWipe})
		return false
	}

	d.buf = make([]byte, t.BlockSize)
	d.readBuf = make([]byte, t.BlockSize)

	for i := d.state.Pass; i < len(t.Scheme.Passes); i++ {
		if d.state.Position < t.Offset {
			d.state.Position = t.Offset
		}
		d.emit(Event{Kind: EventPassStarted, Pass: i})

		src, err := d.source(i)
		if err != nil {
			d.emit(Event{Kind: EventFatal, Cause: err})
			return false
		}

		if !d.writePass(i, src, end) {
			return false
		}

		if err := d.access.Flush(); err != nil {
			d.fail(err)
			return false
		}
		d.emit(Event{Kind: EventPassCompleted, Pass: i})

		if t.verifyPass(i) && !d.verifyRange(i, src, end) {
			return false
		}

		if i+1 < len(t.Scheme.Passes) {
			d.state.Pass = i + 1
			d.state.Position = t.Offset
		}
	}

	d.emit(Event{Kind: EventCompleted})
	return true
}

// writePass walks blocks from the state's position to end, writing the
// pass stream.
func (d *driver) writePass(pass int, src streamSource, end uint64) bool {
	t := d.task
	if !d.reposition(d.state.Position) {
		return false
	}

	d.lastProgress = time.Time{}
	for d.state.Position < end {
		if CancelRequested() {
			_ = d.access.Flush()
			d.emit(Event{Kind: EventAborted, Cause: ErrCancelled})
			return false
		}

		pos := d.state.Position
		if err := src.Block(pos/t.BlockSize, d.buf); err != nil {
			d.emit(Event{Kind: EventFatal, Cause: err})
			return false
		}
		if !d.retryBlock(pos, func() error { return d.access.Write(d.buf) }) {
			return false
		}

		d.state.Position = pos + t.BlockSize
		d.state.BytesWritten += t.BlockSize
		d.progress(EventPassProgress, pass, d.state.Position-t.Offset, false)
	}

	d.progress(EventPassProgress, pass, end-t.Offset, true)
	return true
}

// verifyRange re-reads the whole task range and compares it against the
// regenerated pass stream.
func (d *driver) verifyRange(pass int, src streamSource, end uint64) bool {
	t := d.task

	d.emit(Event{Kind: EventVerifyStarted, Pass: pass})
	if !d.reposition(t.Offset) {
		return false
	}

	d.lastProgress = time.Time{}
	for pos := t.Offset; pos < end; pos += t.BlockSize {
		if CancelRequested() {
			d.emit(Event{Kind: EventAborted, Cause: ErrCancelled})
			return false
		}

		if err := src.Block(pos/t.BlockSize, d.buf); err != nil {
			d.emit(Event{Kind: EventFatal, Cause: err})
			return false
		}

		ok := d.retryBlock(pos, func() error {
			if err := d.access.Read(d.readBuf); err != nil {
				return err
			}
			if !bytes.Equal(d.readBuf, d.buf) {
				return fmt.Errorf("%w at offset %d", ErrVerificationMismatch, pos)
			}
			return nil
		})
		if !ok {
			return false
		}

		d.progress(EventVerifyProgress, pass, pos+t.BlockSize-t.Offset, false)
	}

	d.progress(EventVerifyProgress, pass, end-t.Offset, true)
	d.emit(Event{Kind: EventVerifyCompleted, Pass: pass})
	return true
}

// retryBlock runs op for the block at pos, retrying transient failures
// against the retry budget. Structural failures are fatal immediately;
// an exhausted budget aborts the task.
func (d *driver) retryBlock(pos uint64, op func() error) bool {
	err := op()
	for err != nil {
		if !storage.IsTransient(err) {
			d.emit(Event{Kind: EventFatal, Cause: err})
			return false
		}
		if d.state.RetriesLeft <= 0 {
			d.emit(Event{Kind: EventAborted, Cause: fmt.Errorf("%w: %w", ErrRetriesExhausted, err)})
			return false
		}

		d.emit(Event{Kind: EventRetrying, Offset: pos, Cause: err})
		d.state.RetriesLeft--
		time.Sleep(retryBackoff)

		if perr := d.access.Position(pos); perr != nil {
			err = perr
			continue
		}
		err = op()
	}
	return true
}

// reposition seeks the access to pos before a sequential walk.
func (d *driver) reposition(pos uint64) bool {
	if err := d.access.Position(pos); err != nil {
		d.fail(err)
		return false
	}
	return true
}

// fail emits Aborted for transient causes and Fatal for structural ones.
func (d *driver) fail(err error) {
	if storage.IsTransient(err) {
		d.emit(Event{Kind: EventAborted, Cause: err})
	} else {
		d.emit(Event{Kind: EventFatal, Cause: err})
	}
}

// source builds the stream for pass i, drawing and recording a fresh
// seed for a random pass that has none yet.
func (d *driver) source(i int) (streamSource, error) {
	p := d.task.Scheme.Passes[i]
	if p.Kind == FillPass {
		return fillStream{b: p.Byte}, nil
	}

	seed := d.state.Seeds[i]
	if seed == nil {
		var err error
		if seed, err = newSeed(); err != nil {
			return nil, err
		}
		d.state.Seeds[i] = seed
	}
	return newRandomStream(seed)
}

// progress emits a rate-limited progress event; force bypasses the
// limiter for the final event of a walk.
func (d *driver) progress(kind EventKind, pass int, count uint64, force bool) {
	now := time.Now()
	if !force && now.Sub(d.lastProgress) < progressInterval {
		return
	}
	d.lastProgress = now
	d.emit(Event{Kind: kind, Pass: pass, Bytes: count})
}

// emit delivers an event to the frontend. Frontend failures never reach
// the driver.
func (d *driver) emit(e Event) {
	defer func() { _ = recover() }()
	d.frontend.Handle(d.task, d.state, e)
}

func (d *driver) confirm() (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return d.frontend.ConfirmDestructive()
}
