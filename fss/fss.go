//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package fss implements two-party function secret sharing: a
// distributed point function (DPF), a distributed comparison
// function (DCF), and interval containment (IC) built on the DCF.
// Key generation is an offline dealer operation; evaluation is local
// and non-interactive. The per-level state expansion uses an AES
// PRG keyed with the 128-bit level seed.
package fss

import (
	"io"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/prg"
)

// expansion is the PRG output of one tree level: left and right
// seeds, value words, and control bits.
type expansion[T beavy.Uint] struct {
	sL bitvec.Block128
	vL T
	tL bool
	sR bitvec.Block128
	vR T
	tR bool
}

// expand derives the level expansion from the seed.
func expand[T beavy.Uint](seed bitvec.Block128) expansion[T] {
	vb := beavy.ByteSize[T]()
	buf := make([]byte, 2*(16+vb+1))
	prg.NewStream(seed[:]).Expand(buf)

	var e expansion[T]
	e.sL = bitvec.BlockFromBytes(buf[:16])
	e.vL = beavy.UintsFromBytes[T](buf[16 : 16+vb])[0]
	e.tL = buf[16+vb]&1 == 1
	off := 16 + vb + 1
	e.sR = bitvec.BlockFromBytes(buf[off : off+16])
	e.vR = beavy.UintsFromBytes[T](buf[off+16 : off+16+vb])[0]
	e.tR = buf[off+16+vb]&1 == 1
	return e
}

// convert maps a seed to a ring element.
func convert[T beavy.Uint](seed bitvec.Block128) T {
	return beavy.UintsFromBytes[T](seed[:beavy.ByteSize[T]()])[0]
}

// bitAt returns bit i of x, most significant first.
func bitAt[T beavy.Uint](x T, i int) bool {
	n := beavy.BitSize[T]()
	return (x>>(n-1-i))&1 == 1
}

func xorSeed(s, cw bitvec.Block128, t bool) bitvec.Block128 {
	if t {
		s.Xor(cw)
	}
	return s
}

func randomSeed(rand io.Reader) (bitvec.Block128, error) {
	return bitvec.RandomBlock(rand)
}
