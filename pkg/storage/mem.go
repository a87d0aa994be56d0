// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package storage

import "fmt"

// MemAccess is an in-memory Access backed by a byte slice. It enforces
// the same alignment contract as the device backends and is the backing
// store used by the engine tests.
type MemAccess struct {
	buf       []byte
	blockSize int
	pos       uint64
	closed    bool
	flushes   int
}

// NewMemAccess creates an in-memory device of the given size. Size must
// be a multiple of blockSize.
func NewMemAccess(size uint64, blockSize int) *MemAccess {
	if blockSize <= 0 || size%uint64(blockSize) != 0 {
		panic(fmt.Sprintf("storage: bad mem access geometry: size=%d blockSize=%d", size, blockSize))
	}
	return &MemAccess{
		buf:       make([]byte, size),
		blockSize: blockSize,
	}
}

func (m *MemAccess) BlockSize() int {
	return m.blockSize
}

func (m *MemAccess) Position(offset uint64) error {
	if offset%uint64(m.blockSize) != 0 {
		return accessErr(ErrUnaligned, fmt.Errorf("position %d", offset))
	}
	if offset > uint64(len(m.buf)) {
		return accessErr(ErrIo, fmt.Errorf("position %d beyond device end %d", offset, len(m.buf)))
	}
	m.pos = offset
	return nil
}

func (m *MemAccess) Read(buf []byte) error {
	if err := m.checkIO(buf); err != nil {
		return err
	}
	copy(buf, m.buf[m.pos:])
	m.pos += uint64(len(buf))
	return nil
}

func (m *MemAccess) Write(buf []byte) error {
	if err := m.checkIO(buf); err != nil {
		return err
	}
	copy(m.buf[m.pos:], buf)
	m.pos += uint64(len(buf))
	return nil
}

func (m *MemAccess) Flush() error {
	m.flushes++
	return nil
}

func (m *MemAccess) Close() error {
	m.closed = true
	return nil
}

// Bytes exposes the backing buffer for inspection and fault seeding.
func (m *MemAccess) Bytes() []byte {
	return m.buf
}

// Flushes reports how many times Flush has been called.
func (m *MemAccess) Flushes() int {
	return m.flushes
}

func (m *MemAccess) checkIO(buf []byte) error {
	if m.closed {
		return accessErr(ErrIo, fmt.Errorf("access closed"))
	}
	if len(buf)%m.blockSize != 0 {
		return accessErr(ErrUnaligned, fmt.Errorf("buffer length %d", len(buf)))
	}
	if m.pos+uint64(len(buf)) > uint64(len(m.buf)) {
		return accessErr(ErrIo, fmt.Errorf("i/o at %d length %d beyond device end %d", m.pos, len(buf), len(m.buf)))
	}
	return nil
}
