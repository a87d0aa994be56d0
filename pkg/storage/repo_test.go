// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleDevices() []*StorageRef {
	return []*StorageRef{
		{
			ID:      "/dev/sda",
			Details: StorageDetails{Size: 500 << 30, StorageType: TypeSSD, Label: "Samsung 870"},
			Children: []*StorageRef{
				{ID: "/dev/sda1", Details: StorageDetails{Size: 1 << 30, StorageType: TypePartition, MountPoint: "/boot"}},
				{ID: "/dev/sda2", Details: StorageDetails{Size: 400 << 30, StorageType: TypePartition, MountPoint: "/"}},
			},
		},
		{
			ID:      "/dev/sdb",
			Details: StorageDetails{Size: 2 << 40, StorageType: TypeHDD},
		},
	}
}

func TestRepo_ShortIDs(t *testing.T) {
	repo := NewRepo(sampleDevices())

	cases := map[string]string{
		"/dev/sda":  "a",
		"/dev/sda1": "1",
		"/dev/sda2": "2",
		"/dev/sdb":  "b",
	}
	for long, short := range cases {
		if got := repo.ShortID(long); got != short {
			t.Fatalf("ShortID(%q) = %q, want %q", long, got, short)
		}
	}
}

func TestRepo_ShortIDsDeterministic(t *testing.T) {
	first := NewRepo(sampleDevices())
	second := NewRepo(sampleDevices())

	for _, ref := range []string{"/dev/sda", "/dev/sda1", "/dev/sda2", "/dev/sdb"} {
		if first.ShortID(ref) != second.ShortID(ref) {
			t.Fatalf("Short ID for %q unstable across catalogs", ref)
		}
	}
}

func TestRepo_ShortIDsUnique(t *testing.T) {
	repo := NewRepo(sampleDevices())

	seen := map[string]string{}
	for _, long := range []string{"/dev/sda", "/dev/sda1", "/dev/sda2", "/dev/sdb"} {
		short := repo.ShortID(long)
		if short == "" {
			t.Fatalf("No short ID for %q", long)
		}
		if prev, ok := seen[short]; ok {
			t.Fatalf("Short ID %q shared by %q and %q", short, prev, long)
		}
		seen[short] = long
	}
}

func TestRepo_FindByID(t *testing.T) {
	repo := NewRepo(sampleDevices())

	if ref := repo.FindByID("/dev/sda2"); ref == nil || ref.ID != "/dev/sda2" {
		t.Fatal("Long ID lookup failed")
	}
	if ref := repo.FindByID("b"); ref == nil || ref.ID != "/dev/sdb" {
		t.Fatal("Short ID lookup failed")
	}
	if ref := repo.FindByID("/dev/sdc"); ref != nil {
		t.Fatalf("Unknown ID resolved to %q", ref.ID)
	}
	if ref := repo.FindByID(""); ref != nil {
		t.Fatal("Empty ID resolved")
	}
}

func TestRepo_FindByIDSuffixOverlap(t *testing.T) {
	// "sda" is a full suffix of "0sda"; neither may shadow the other.
	repo := NewRepo([]*StorageRef{
		{ID: "sda"},
		{ID: "0sda"},
	})

	if ref := repo.FindByID("sda"); ref == nil || ref.ID != "sda" {
		t.Fatal("Exact long ID lookup failed under suffix overlap")
	}
	if ref := repo.FindByID("0sda"); ref == nil || ref.ID != "0sda" {
		t.Fatal("Exact long ID lookup failed under suffix overlap")
	}

	// "sda" has no unique suffix, so it gets no short ID.
	if short := repo.ShortID("sda"); short != "" {
		t.Fatalf("ShortID(%q) = %q, want none", "sda", short)
	}
}

func TestRepo_DevicesOrder(t *testing.T) {
	devices := sampleDevices()
	repo := NewRepo(devices)

	if diff := cmp.Diff(devices, repo.Devices()); diff != "" {
		t.Fatalf("Devices() changed the catalog (-want +got):\n%s", diff)
	}
}

func TestRepo_ParentChildSizes(t *testing.T) {
	for _, d := range sampleDevices() {
		var sum uint64
		for _, c := range d.Children {
			sum += c.Details.Size
		}
		if d.Details.Size < sum {
			t.Fatalf("Device %q smaller than its partitions", d.ID)
		}
	}
}
