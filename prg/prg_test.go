//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package prg

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/markkurossi/beavy/bitvec"
)

func TestStreamOffset(t *testing.T) {
	var key [16]byte
	rand.Read(key[:])

	s := NewStream(key[:])
	full := make([]byte, 100)
	s.Expand(full)

	// Re-reading from an offset must reproduce the suffix.
	for _, offset := range []int{0, 1, 15, 16, 17, 99} {
		s2 := NewStream(key[:])
		s2.SetOffset(uint64(offset))
		part := make([]byte, 100-offset)
		s2.Expand(part)
		if !bytes.Equal(part, full[offset:]) {
			t.Errorf("offset %d: suffix mismatch", offset)
		}
	}
}

func TestStreamIncremental(t *testing.T) {
	var key [16]byte
	rand.Read(key[:])

	s := NewStream(key[:])
	full := make([]byte, 64)
	s.Expand(full)

	s2 := NewStream(key[:])
	a := make([]byte, 10)
	b := make([]byte, 54)
	s2.Expand(a)
	s2.Expand(b)
	if !bytes.Equal(append(a, b...), full) {
		t.Error("incremental expansion differs from one-shot")
	}
}

func TestFixedKeyHash(t *testing.T) {
	var key [16]byte
	rand.Read(key[:])
	fk := NewFixedKey(key[:])

	x, err := bitvec.RandomBlock(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	h0 := fk.Hash(0, x)
	h1 := fk.Hash(1, x)
	if h0.Equal(h1) {
		t.Error("tweak does not separate hashes")
	}
	if !fk.Hash(0, x).Equal(h0) {
		t.Error("hash is not deterministic")
	}
}

func TestSharedSource(t *testing.T) {
	var seed [32]byte
	rand.Read(seed[:])

	a := NewSharedSource(seed[:])
	b := NewSharedSource(seed[:])

	if !a.Bits(7, 100).Equal(b.Bits(7, 100)) {
		t.Error("shared sources disagree")
	}
	if a.Bits(7, 100).Equal(a.Bits(8, 100)) {
		t.Error("stream id does not separate streams")
	}

	x := Uints[uint32](a, 3, 16)
	y := Uints[uint32](b, 3, 16)
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("uint streams disagree at %d", i)
		}
	}
}
