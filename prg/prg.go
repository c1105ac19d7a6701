//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prg implements the pseudorandom generators of the engine:
// a variable-key AES-CTR stream for expanding base-OT seeds, a
// fixed-key AES compression function for hashing transposed
// bit-matrix columns, and a shared deterministic source for
// input-gate masks.
package prg

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/markkurossi/beavy/bitvec"
)

// Stream is a variable-key AES-CTR pseudorandom stream with a
// settable byte offset, so the same seed can be consumed
// incrementally across evaluations.
type Stream struct {
	block  cipher.Block
	offset uint64
}

// NewStream creates a stream keyed with the 16-byte key.
func NewStream(key []byte) *Stream {
	block, err := aes.NewCipher(key[:16])
	if err != nil {
		// aes.NewCipher fails only on invalid key sizes.
		panic(err)
	}
	return &Stream{
		block: block,
	}
}

// SetOffset positions the stream at the given byte offset.
func (s *Stream) SetOffset(offset uint64) {
	s.offset = offset
}

// Expand fills out with keystream bytes starting at the current
// offset and advances the offset.
func (s *Stream) Expand(out []byte) {
	var iv [16]byte
	binary.BigEndian.PutUint64(iv[8:], s.offset/16)

	stream := cipher.NewCTR(s.block, iv[:])

	skip := int(s.offset % 16)
	if skip > 0 {
		var scratch [16]byte
		stream.XORKeyStream(scratch[:skip], scratch[:skip])
	}
	for i := range out {
		out[i] = 0
	}
	stream.XORKeyStream(out, out)
	s.offset += uint64(len(out))
}

// FixedKey is the fixed-key AES compression function used to hash
// bit-matrix columns into OT pads. Both parties must construct it
// from the same key material.
type FixedKey struct {
	block cipher.Block
}

// NewFixedKey creates the compression function with the 16-byte key.
func NewFixedKey(key []byte) *FixedKey {
	block, err := aes.NewCipher(key[:16])
	if err != nil {
		panic(err)
	}
	return &FixedKey{
		block: block,
	}
}

// Hash compresses the block x under the tweak i:
// H(i,x) = AES(x^i) ^ x ^ i.
func (fk *FixedKey) Hash(i uint64, x bitvec.Block128) bitvec.Block128 {
	var in bitvec.Block128 = x
	binary.LittleEndian.PutUint64(in[:8], binary.LittleEndian.Uint64(in[:8])^i)

	var out bitvec.Block128
	fk.block.Encrypt(out[:], in[:])
	out.Xor(in)

	return out
}
