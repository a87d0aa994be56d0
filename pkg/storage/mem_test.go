// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemAccess_ReadWriteRoundTrip(t *testing.T) {
	m := NewMemAccess(16<<10, 512)

	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i)
	}

	if err := m.Position(2048); err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	if err := m.Write(data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := m.Position(2048); err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	got := make([]byte, 1024)
	if err := m.Read(got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("Read bytes differ from written bytes")
	}
}

func TestMemAccess_UnalignedRejected(t *testing.T) {
	m := NewMemAccess(16<<10, 512)

	if err := m.Position(100); !errors.Is(err, ErrUnaligned) {
		t.Fatalf("Unaligned position error = %v, want ErrUnaligned", err)
	}
	if err := m.Write(make([]byte, 100)); !errors.Is(err, ErrUnaligned) {
		t.Fatalf("Unaligned write error = %v, want ErrUnaligned", err)
	}
	if err := m.Read(make([]byte, 700)); !errors.Is(err, ErrUnaligned) {
		t.Fatalf("Unaligned read error = %v, want ErrUnaligned", err)
	}
}

func TestMemAccess_BeyondEndRejected(t *testing.T) {
	m := NewMemAccess(4096, 512)

	if err := m.Position(8192); !errors.Is(err, ErrIo) {
		t.Fatalf("Out-of-range position error = %v, want ErrIo", err)
	}
	if err := m.Position(3584); err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	if err := m.Write(make([]byte, 1024)); !errors.Is(err, ErrIo) {
		t.Fatalf("Overrunning write error = %v, want ErrIo", err)
	}
}

func TestMemAccess_ClosedRejected(t *testing.T) {
	m := NewMemAccess(4096, 512)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Write(make([]byte, 512)); err == nil {
		t.Fatal("Write after Close succeeded")
	}
}

func TestIsTransient(t *testing.T) {
	transient := []error{
		accessErr(ErrIo, nil),
		errors.New("some wrapped os failure"),
	}
	for _, err := range transient {
		if !IsTransient(err) {
			t.Fatalf("IsTransient(%v) = false, want true", err)
		}
	}

	structural := []error{
		accessErr(ErrAccessDenied, nil),
		accessErr(ErrBusy, nil),
		accessErr(ErrNotFound, nil),
		accessErr(ErrUnaligned, nil),
	}
	for _, err := range structural {
		if IsTransient(err) {
			t.Fatalf("IsTransient(%v) = true, want false", err)
		}
	}
}
