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

// DCFCorrection is one level's correction word of a DCF key.
type DCFCorrection[T beavy.Uint] struct {
	Seed bitvec.Block128
	V    T
	TL   bool
	TR   bool
}

// DCFKey is one party's key of a distributed comparison function:
// the evaluations of the two parties sum to beta for x < alpha and
// to zero otherwise.
type DCFKey[T beavy.Uint] struct {
	Seed    bitvec.Block128
	CW      []DCFCorrection[T]
	FinalCW T

	// Z is the interval-containment offset share; unused by plain
	// DCF evaluation.
	Z T
}

// DCFGen generates the key pair of the comparison function
// f(x) = beta*[x < alpha].
func DCFGen[T beavy.Uint](alpha, beta T, rand io.Reader) (
	*DCFKey[T], *DCFKey[T], error) {

	n := beavy.BitSize[T]()

	s0, err := randomSeed(rand)
	if err != nil {
		return nil, nil, err
	}
	s1, err := randomSeed(rand)
	if err != nil {
		return nil, nil, err
	}
	k0 := &DCFKey[T]{Seed: s0, CW: make([]DCFCorrection[T], n)}
	k1 := &DCFKey[T]{Seed: s1, CW: make([]DCFCorrection[T], n)}

	t0 := false
	t1 := true
	var vAlpha T

	for i := 0; i < n; i++ {
		g0 := expand[T](s0)
		g1 := expand[T](s1)
		bit := bitAt(alpha, i)

		var sign T = 1
		if t1 {
			sign -= 2
		}

		var sCW bitvec.Block128
		var vLose0, vLose1 T
		var keep0, keep1 bitvec.Block128
		var vKeep0, vKeep1 T
		var tKeep0, tKeep1 bool
		if bit {
			// keep = R, lose = L
			sCW = g0.sL
			sCW.Xor(g1.sL)
			vLose0, vLose1 = g0.vL, g1.vL
			keep0, keep1 = g0.sR, g1.sR
			vKeep0, vKeep1 = g0.vR, g1.vR
			tKeep0, tKeep1 = g0.tR, g1.tR
		} else {
			// keep = L, lose = R
			sCW = g0.sR
			sCW.Xor(g1.sR)
			vLose0, vLose1 = g0.vR, g1.vR
			keep0, keep1 = g0.sL, g1.sL
			vKeep0, vKeep1 = g0.vL, g1.vL
			tKeep0, tKeep1 = g0.tL, g1.tL
		}

		vCW := sign * (vLose1 - vLose0 - vAlpha)
		if bit {
			// The left subtree covers x < alpha on this level.
			vCW += sign * beta
		}
		vAlpha += vKeep0 - vKeep1 + sign*vCW

		tCWL := g0.tL != g1.tL != bit != true
		tCWR := g0.tR != g1.tR != bit

		k0.CW[i] = DCFCorrection[T]{Seed: sCW, V: vCW, TL: tCWL, TR: tCWR}
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

	var sign T = 1
	if t1 {
		sign -= 2
	}
	finalCW := sign * (convert[T](s1) - convert[T](s0) - vAlpha)
	k0.FinalCW = finalCW
	k1.FinalCW = finalCW
	return k0, k1, nil
}

// DCFEval evaluates party b's share of the comparison function at x.
func DCFEval[T beavy.Uint](b bool, key *DCFKey[T], x T) T {
	n := beavy.BitSize[T]()

	var sign T = 1
	if b {
		sign -= 2
	}

	s := key.Seed
	t := b
	var v T
	for i := 0; i < n; i++ {
		g := expand[T](s)
		var tCW T
		if t {
			tCW = 1
		}
		if bitAt(x, i) {
			v += sign * (g.vR + tCW*key.CW[i].V)
			s = xorSeed(g.sR, key.CW[i].Seed, t)
			t = g.tR != (t && key.CW[i].TR)
		} else {
			v += sign * (g.vL + tCW*key.CW[i].V)
			s = xorSeed(g.sL, key.CW[i].Seed, t)
			t = g.tL != (t && key.CW[i].TL)
		}
	}
	var tFin T
	if t {
		tFin = 1
	}
	v += sign * (convert[T](s) + tFin*key.FinalCW)
	return v
}
