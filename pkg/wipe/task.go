// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-diskwipe/pkg/storage"
)

// Verify selects which passes are read back and compared after writing.
type Verify int

const (
	// VerifyNo skips verification.
	VerifyNo Verify = iota

	// VerifyLast verifies the final pass only. Note that over a scheme
	// whose final pass is a fill, this verifies a constant, which is
	// useful only as a device-health check.
	VerifyLast

	// VerifyAll verifies every pass.
	VerifyAll
)

func (v Verify) String() string {
	switch v {
	case VerifyLast:
		return "last"
	case VerifyAll:
		return "all"
	default:
		return "no"
	}
}

// Task is an immutable wipe plan. Construction validates the alignment
// and range constraints; a Task that exists is runnable.
type Task struct {
	ID        uuid.UUID
	Scheme    Scheme
	Verify    Verify
	TotalSize uint64
	BlockSize uint64
	Offset    uint64
}

// NewTask validates and builds a wipe plan. BlockSize must be a power of
// two, Offset a multiple of BlockSize and less than TotalSize. When
// TotalSize is not a multiple of BlockSize the final partial block is
// not written; the effective end is TotalSize rounded down.
func NewTask(scheme Scheme, verify Verify, totalSize, blockSize, offset uint64) (*Task, error) {
	if len(scheme.Passes) == 0 {
		return nil, fmt.Errorf("%w: scheme %q has no passes", ErrInvalidArgument, scheme.Name)
	}
	if blockSize == 0 || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("%w: block size %d is not a power of two", ErrInvalidArgument, blockSize)
	}
	if offset%blockSize != 0 {
		return nil, fmt.Errorf("%w: offset %d is not a multiple of block size %d", ErrInvalidArgument, offset, blockSize)
	}
	if offset >= totalSize {
		return nil, fmt.Errorf("%w: offset %d is beyond device size %d", ErrInvalidArgument, offset, totalSize)
	}

	return &Task{
		ID:        uuid.New(),
		Scheme:    scheme,
		Verify:    verify,
		TotalSize: totalSize,
		BlockSize: blockSize,
		Offset:    offset,
	}, nil
}

// End returns the effective end of the wipeable range: TotalSize rounded
// down to a multiple of BlockSize.
func (t *Task) End() uint64 {
	return t.TotalSize - t.TotalSize%t.BlockSize
}

// verifyPass reports whether pass i must be verified after writing.
func (t *Task) verifyPass(i int) bool {
	switch t.Verify {
	case VerifyAll:
		return true
	case VerifyLast:
		return i == len(t.Scheme.Passes)-1
	default:
		return false
	}
}

// Run executes the plan against access, reporting through frontend.
// State carries the progress cursor and retry budget; a partially-run
// state resumes from its recorded position and seeds. Returns true on
// success.
func (t *Task) Run(access storage.Access, state *State, frontend Frontend) bool {
	d := &driver{task: t, state: state, access: access, frontend: frontend}
	return d.run()
}

// State is the mutable progress of a run: the single source of truth for
// resumability and for deterministic re-seeding during verification.
type State struct {
	// Pass is the index of the pass being written.
	Pass int

	// Position is the absolute device offset of the next block within
	// the current pass.
	Position uint64

	// BytesWritten counts bytes written since task start, across passes.
	BytesWritten uint64

	// Seeds records the key material of each random pass, by pass index.
	Seeds map[int][]byte

	// RetriesLeft is decremented on every block retry, whether or not the
	// retry then succeeds.
	RetriesLeft int
}

// NewState returns a fresh progress cursor with the given retry budget.
func NewState(retries int) *State {
	return &State{
		Seeds:       make(map[int][]byte),
		RetriesLeft: retries,
	}
}
