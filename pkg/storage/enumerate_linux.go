// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const sysBlock = "/sys/block"

// Enumerate builds the device catalog from sysfs. Virtual devices
// (loop, ram, zram, device-mapper) are skipped; partitions appear as
// children of their disk. Requires no privilege, but sizes of devices
// the caller cannot open later are still reported.
func Enumerate() ([]*StorageRef, error) {
	entries, err := os.ReadDir(sysBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sysBlock, err)
	}

	mounts := mountPoints()

	var devices []*StorageRef
	for _, e := range entries {
		name := e.Name()
		if skipDevice(name) {
			continue
		}
		ref, err := readDisk(name, mounts)
		if err != nil {
			continue
		}
		devices = append(devices, ref)
	}
	return devices, nil
}

func skipDevice(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "fd", "sr", "md"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func readDisk(name string, mounts map[string]string) (*StorageRef, error) {
	dir := filepath.Join(sysBlock, name)
	dev := "/dev/" + name

	size, err := sectorCount(dir)
	if err != nil {
		return nil, err
	}

	ref := &StorageRef{
		ID: dev,
		Details: StorageDetails{
			Size:        size,
			StorageType: diskType(dir),
			Label:       deviceModel(dir),
			MountPoint:  mounts[dev],
		},
	}

	// Partitions are subdirectories carrying a "partition" file.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ref, nil
	}
	var parts []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), name) {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "partition")); err != nil {
			continue
		}
		parts = append(parts, e.Name())
	}
	sort.Strings(parts)

	for _, p := range parts {
		psize, err := sectorCount(filepath.Join(dir, p))
		if err != nil {
			continue
		}
		pdev := "/dev/" + p
		ref.Children = append(ref.Children, &StorageRef{
			ID: pdev,
			Details: StorageDetails{
				Size:        psize,
				StorageType: TypePartition,
				MountPoint:  mounts[pdev],
			},
		})
	}
	return ref, nil
}

// sectorCount reads the sysfs size file, which counts 512-byte sectors
// regardless of the device's logical sector size.
func sectorCount(dir string) (uint64, error) {
	sectors, err := sysfsUint(filepath.Join(dir, "size"))
	if err != nil {
		return 0, err
	}
	return sectors * 512, nil
}

func diskType(dir string) StorageType {
	if v, err := sysfsUint(filepath.Join(dir, "removable")); err == nil && v == 1 {
		return TypeRemovable
	}
	if v, err := sysfsUint(filepath.Join(dir, "queue", "rotational")); err == nil {
		if v == 1 {
			return TypeHDD
		}
		return TypeSSD
	}
	return TypeUnknown
}

func deviceModel(dir string) string {
	b, err := os.ReadFile(filepath.Join(dir, "device", "model"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func sysfsUint(path string) (uint64, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- sysfs paths constructed from directory listings
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}

// mountPoints maps device paths to their first mount point.
func mountPoints() map[string]string {
	out := make(map[string]string)
	b, err := os.ReadFile("/proc/self/mounts")
	if err != nil {
		return out
	}
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "/dev/") {
			continue
		}
		if _, ok := out[fields[0]]; !ok {
			out[fields[0]] = fields[1]
		}
	}
	return out
}

// IsWSL reports whether the host is Windows Subsystem for Linux, which
// does not expose raw block devices.
func IsWSL() bool {
	b, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(string(b), "Microsoft")
}
