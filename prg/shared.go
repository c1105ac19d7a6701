//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package prg

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
)

// SharedSource is a deterministic randomness source keyed with seed
// material exchanged between the parties. The input owner and its
// peer construct SharedSource from the same seed, so both derive
// identical mask streams addressed by input id.
type SharedSource struct {
	key [chacha20.KeySize]byte
}

// NewSharedSource creates a shared source from a 32-byte seed.
func NewSharedSource(seed []byte) *SharedSource {
	var s SharedSource
	copy(s.key[:], seed)
	return &s
}

// Bytes returns n deterministic bytes for the stream id.
func (s *SharedSource) Bytes(id uint64, n int) []byte {
	var nonce [chacha20.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[:8], id)

	cipher, err := chacha20.NewUnauthenticatedCipher(s.key[:], nonce[:])
	if err != nil {
		panic(err)
	}
	out := make([]byte, n)
	cipher.XORKeyStream(out, out)
	return out
}

// Bits returns n deterministic bits for the stream id.
func (s *SharedSource) Bits(id uint64, n int) bitvec.BitVector {
	return bitvec.FromBytes(s.Bytes(id, (n+7)/8), n)
}

// Uints returns n deterministic ring elements for the stream id.
func Uints[T beavy.Uint](s *SharedSource, id uint64, n int) []T {
	return beavy.UintsFromBytes[T](s.Bytes(id, n*beavy.ByteSize[T]()))
}
