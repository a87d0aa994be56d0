// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// SeedSize is the length of the key material recorded for a random pass.
const SeedSize = chacha20.KeySize

// streamSource produces the byte stream of one pass, addressed by device
// block index. Generating block n never requires generating blocks 0..n-1,
// which is what makes mid-pass resume and verification cheap.
type streamSource interface {
	// Block fills buf with the bytes of the pass stream at the given
	// block index.
	Block(index uint64, buf []byte) error
}

// fillStream is the constant-byte stream.
type fillStream struct {
	b byte
}

func (s fillStream) Block(_ uint64, buf []byte) error {
	for i := range buf {
		buf[i] = s.b
	}
	return nil
}

// randomStream is a deterministic cryptographic stream keyed by a
// recorded seed. Each device block is an independent ChaCha20 keystream
// with the block index encoded in the nonce, so the stream is both
// restartable from the seed and seekable to any block.
type randomStream struct {
	seed []byte
}

func newRandomStream(seed []byte) (*randomStream, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidArgument, SeedSize, len(seed))
	}
	return &randomStream{seed: seed}, nil
}

func (s *randomStream) Block(index uint64, buf []byte) error {
	var nonce [chacha20.NonceSize]byte
	binary.BigEndian.PutUint64(nonce[4:], index)

	c, err := chacha20.NewUnauthenticatedCipher(s.seed, nonce[:])
	if err != nil {
		return fmt.Errorf("failed to key stream cipher: %w", err)
	}

	clear(buf)
	c.XORKeyStream(buf, buf)
	return nil
}

// newSeed draws fresh key material from system entropy.
func newSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to draw seed: %w", err)
	}
	return seed, nil
}
