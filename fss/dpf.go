//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package fss

import (
	"io"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
)

// DPFCorrection is one level's correction word of a DPF key.
type DPFCorrection struct {
	Seed bitvec.Block128
	TL   bool
	TR   bool
}

// DPFKey is one party's key of a distributed point function: the
// evaluations of the two parties sum to beta at the point alpha and
// to zero elsewhere.
type DPFKey[T beavy.Uint] struct {
	Seed    bitvec.Block128
	CW      []DPFCorrection
	FinalCW T
}

// DPFGen generates the key pair of the point function
// f(x) = beta*[x == alpha].
func DPFGen[T beavy.Uint](alpha, beta T, rand io.Reader) (
	*DPFKey[T], *DPFKey[T], error) {

	n := beavy.BitSize[T]()

	s0, err := randomSeed(rand)
	if err != nil {
		return nil, nil, err
	}
	s1, err := randomSeed(rand)
	if err != nil {
		return nil, nil, err
	}
	k0 := &DPFKey[T]{Seed: s0, CW: make([]DPFCorrection, n)}
	k1 := &DPFKey[T]{Seed: s1, CW: make([]DPFCorrection, n)}

	t0 := false
	t1 := true

	for i := 0; i < n; i++ {
		g0 := expand[T](s0)
		g1 := expand[T](s1)
		bit := bitAt(alpha, i)

		var sCW bitvec.Block128
		var keep0, keep1 bitvec.Block128
		var tKeep0, tKeep1 bool
		if bit {
			sCW = g0.sL
			sCW.Xor(g1.sL)
			keep0, keep1 = g0.sR, g1.sR
			tKeep0, tKeep1 = g0.tR, g1.tR
		} else {
			sCW = g0.sR
			sCW.Xor(g1.sR)
			keep0, keep1 = g0.sL, g1.sL
			tKeep0, tKeep1 = g0.tL, g1.tL
		}
		tCWL := g0.tL != g1.tL != bit != true
		tCWR := g0.tR != g1.tR != bit

		k0.CW[i] = DPFCorrection{Seed: sCW, TL: tCWL, TR: tCWR}
		k1.CW[i] = k0.CW[i]

		tCWKeep := tCWL
		if bit {
			tCWKeep = tCWR
		}
		s0 = xorSeed(keep0, sCW, t0)
		t0 = tKeep0 != (t0 && tCWKeep)
		s1 = xorSeed(keep1, sCW, t1)
		t1 = tKeep1 != (t1 && tCWKeep)
	}

	finalCW := beta - convert[T](s0) + convert[T](s1)
	if t1 {
		finalCW = -finalCW
	}
	k0.FinalCW = finalCW
	k1.FinalCW = finalCW
	return k0, k1, nil
}

// DPFEval evaluates party b's share of the point function at x.
func DPFEval[T beavy.Uint](b bool, key *DPFKey[T], x T) T {
	n := beavy.BitSize[T]()

	s := key.Seed
	t := b
	for i := 0; i < n; i++ {
		g := expand[T](s)
		if bitAt(x, i) {
			s = xorSeed(g.sR, key.CW[i].Seed, t)
			t = g.tR != (t && key.CW[i].TR)
		} else {
			s = xorSeed(g.sL, key.CW[i].Seed, t)
			t = g.tL != (t && key.CW[i].TL)
		}
	}
	out := convert[T](s)
	if t {
		out += key.FinalCW
	}
	if b {
		out = -out
	}
	return out
}
