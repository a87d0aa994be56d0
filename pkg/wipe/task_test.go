// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import (
	"errors"
	"testing"
)

func zeroScheme(t *testing.T) Scheme {
	t.Helper()
	s, ok := NewSchemeRepo().Find("zero")
	if !ok {
		t.Fatal("zero scheme missing")
	}
	return s
}

func TestNewTask_Valid(t *testing.T) {
	task, err := NewTask(zeroScheme(t), VerifyLast, 1<<20, 4096, 0)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.End() != 1<<20 {
		t.Fatalf("End() = %d, want %d", task.End(), 1<<20)
	}
}

func TestNewTask_InvalidArguments(t *testing.T) {
	scheme := zeroScheme(t)

	cases := []struct {
		name      string
		total     uint64
		blockSize uint64
		offset    uint64
	}{
		{"zero block size", 1 << 20, 0, 0},
		{"non power of two block size", 1 << 20, 4095, 0},
		{"unaligned offset", 1 << 20, 4096, 3000},
		{"offset at device end", 1 << 20, 4096, 1 << 20},
		{"offset beyond device end", 1 << 20, 4096, 2 << 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTask(scheme, VerifyNo, tc.total, tc.blockSize, tc.offset)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Error %v is not ErrInvalidArgument", err)
			}
		})
	}
}

func TestNewTask_EmptyScheme(t *testing.T) {
	_, err := NewTask(Scheme{Name: "empty"}, VerifyNo, 1<<20, 4096, 0)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Error %v is not ErrInvalidArgument", err)
	}
}

func TestNewTask_PartialTailRoundedDown(t *testing.T) {
	task, err := NewTask(zeroScheme(t), VerifyNo, 1<<20+100, 4096, 0)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.End() != 1<<20 {
		t.Fatalf("End() = %d, want %d", task.End(), 1<<20)
	}
}

// Construction is pure: equal inputs yield equivalent plans.
func TestNewTask_Idempotent(t *testing.T) {
	scheme := zeroScheme(t)

	a, err := NewTask(scheme, VerifyAll, 1<<20, 8192, 8192)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	b, err := NewTask(scheme, VerifyAll, 1<<20, 8192, 8192)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}

	if a.Scheme.Name != b.Scheme.Name || a.Verify != b.Verify ||
		a.TotalSize != b.TotalSize || a.BlockSize != b.BlockSize || a.Offset != b.Offset {
		t.Fatal("Equal inputs produced different plans")
	}
	if a.ID == b.ID {
		t.Fatal("Task IDs must be unique per task")
	}
}

func TestTask_VerifyPolicy(t *testing.T) {
	dod, ok := NewSchemeRepo().Find("dod")
	if !ok {
		t.Fatal("dod scheme missing")
	}

	cases := []struct {
		verify Verify
		pass   int
		want   bool
	}{
		{VerifyNo, 0, false},
		{VerifyNo, 2, false},
		{VerifyLast, 0, false},
		{VerifyLast, 2, true},
		{VerifyAll, 0, true},
		{VerifyAll, 1, true},
		{VerifyAll, 2, true},
	}

	for _, tc := range cases {
		task, err := NewTask(dod, tc.verify, 1<<20, 4096, 0)
		if err != nil {
			t.Fatalf("NewTask failed: %v", err)
		}
		if got := task.verifyPass(tc.pass); got != tc.want {
			t.Fatalf("verifyPass(%d) with %v = %v, want %v", tc.pass, tc.verify, got, tc.want)
		}
	}
}

func TestNewState(t *testing.T) {
	state := NewState(8)
	if state.RetriesLeft != 8 {
		t.Fatalf("RetriesLeft = %d, want 8", state.RetriesLeft)
	}
	if state.Pass != 0 || state.Position != 0 || state.BytesWritten != 0 {
		t.Fatal("Fresh state has nonzero progress")
	}
	if state.Seeds == nil {
		t.Fatal("Seeds map not initialized")
	}
}
