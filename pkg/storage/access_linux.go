// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// BLKDISCARD ioctl number for TRIM/discard on block devices
const blkDiscard = 0x1277

const defaultBlockSize = 512

// deviceAccess is the Linux Access backend for block devices and regular
// files (disk images).
type deviceAccess struct {
	f         *os.File
	path      string
	blockSize int
	size      uint64
}

// Open acquires exclusive access to the device or image at path. The
// handle holds a non-blocking flock for its lifetime, so a second Open of
// the same device fails with ErrBusy, in this process or any other.
func Open(path string) (Access, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, accessErr(ErrNotFound, err)
		}
		if os.IsPermission(err) {
			return nil, accessErr(ErrAccessDenied, err)
		}
		return nil, accessErr(ErrIo, err)
	}

	mode := info.Mode()
	if !mode.IsRegular() && mode&os.ModeDevice == 0 {
		return nil, accessErr(ErrNotFound, fmt.Errorf("%s is not a block device or regular file", path))
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0600) // #nosec G304 -- device path chosen by the operator
	if err != nil {
		return nil, classifyOpenErr(err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, accessErr(ErrBusy, err)
	}

	d := &deviceAccess{f: f, path: path}

	if mode.IsRegular() {
		d.blockSize = defaultBlockSize
		d.size = uint64(info.Size())
		return d, nil
	}

	d.blockSize, err = blockDeviceSectorSize(f)
	if err != nil {
		_ = d.Close()
		return nil, accessErr(ErrIo, err)
	}
	d.size, err = blockDeviceSize(f)
	if err != nil {
		_ = d.Close()
		return nil, accessErr(ErrIo, err)
	}
	return d, nil
}

func classifyOpenErr(err error) error {
	switch {
	case os.IsNotExist(err):
		return accessErr(ErrNotFound, err)
	case os.IsPermission(err):
		return accessErr(ErrAccessDenied, err)
	case errors.Is(err, unix.EBUSY):
		return accessErr(ErrBusy, err)
	default:
		return accessErr(ErrIo, err)
	}
}

func (d *deviceAccess) BlockSize() int {
	return d.blockSize
}

// Size returns the device size in bytes.
func (d *deviceAccess) Size() uint64 {
	return d.size
}

func (d *deviceAccess) Position(offset uint64) error {
	if offset%uint64(d.blockSize) != 0 {
		return accessErr(ErrUnaligned, fmt.Errorf("position %d", offset))
	}
	if _, err := d.f.Seek(int64(offset), io.SeekStart); err != nil { // #nosec G115 -- device offsets fit in int64
		return accessErr(ErrIo, err)
	}
	return nil
}

func (d *deviceAccess) Read(buf []byte) error {
	if len(buf)%d.blockSize != 0 {
		return accessErr(ErrUnaligned, fmt.Errorf("buffer length %d", len(buf)))
	}
	if _, err := io.ReadFull(d.f, buf); err != nil {
		return accessErr(ErrIo, err)
	}
	return nil
}

func (d *deviceAccess) Write(buf []byte) error {
	if len(buf)%d.blockSize != 0 {
		return accessErr(ErrUnaligned, fmt.Errorf("buffer length %d", len(buf)))
	}
	if _, err := d.f.Write(buf); err != nil {
		return accessErr(ErrIo, err)
	}
	return nil
}

func (d *deviceAccess) Flush() error {
	if err := d.f.Sync(); err != nil {
		return accessErr(ErrIo, err)
	}
	return nil
}

func (d *deviceAccess) Close() error {
	if d.f == nil {
		return nil
	}
	_ = unix.Flock(int(d.f.Fd()), unix.LOCK_UN) // lock dies with the fd anyway
	err := d.f.Close()
	d.f = nil
	return err
}

// Discard issues a BLKDISCARD over the whole device to release blocks on
// SSDs after a wipe. Best effort; the device may not support TRIM.
func (d *deviceAccess) Discard() error {
	if d.size == 0 {
		return nil
	}
	discardRange := [2]uint64{0, d.size}

	// #nosec G103 -- unsafe.Pointer required to pass the range array to the kernel
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		d.f.Fd(),
		uintptr(blkDiscard),
		uintptr(unsafe.Pointer(&discardRange[0])),
	)
	if errno != 0 {
		return accessErr(ErrIo, fmt.Errorf("BLKDISCARD: %w", errno))
	}
	return nil
}

// blockDeviceSize gets the size of a block device via BLKGETSIZE64.
func blockDeviceSize(f *os.File) (uint64, error) {
	var size uint64
	// #nosec G103 -- unsafe.Pointer required for IOCTL syscall
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, fmt.Errorf("BLKGETSIZE64: %w", errno)
	}
	return size, nil
}

// blockDeviceSectorSize gets the physical block size via BLKPBSZGET.
func blockDeviceSectorSize(f *os.File) (int, error) {
	var sectorSize int32
	// #nosec G103 -- unsafe.Pointer required for IOCTL syscall
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKPBSZGET, uintptr(unsafe.Pointer(&sectorSize)))
	if errno != 0 {
		return 0, fmt.Errorf("BLKPBSZGET: %w", errno)
	}
	if sectorSize <= 0 {
		return defaultBlockSize, nil
	}
	return int(sectorSize), nil
}
