//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package fss

import (
	"io"

	"github.com/markkurossi/beavy"
)

// ICGen generates the key pair of the interval-containment function
// f(x) = rOut + [p <= x <= q], evaluated on the masked input
// x^ = x + rIn. The keys are DCF keys for rIn-1 plus an additive
// offset share Z.
func ICGen[T beavy.Uint](rIn, rOut, p, q T, rand io.Reader) (
	*DCFKey[T], *DCFKey[T], error) {

	k0, k1, err := DCFGen[T](rIn-1, 1, rand)
	if err != nil {
		return nil, nil, err
	}
	z0, err := beavy.RandomVector[T](rand, 1)
	if err != nil {
		return nil, nil, err
	}

	var z T = -z0[0] + rOut
	if p+rIn > q+rIn {
		z++
	}
	if p+rIn > p {
		z--
	}
	if q+rIn+1 > q+1 {
		z++
	}
	if q+rIn+1 == 0 {
		z++
	}

	k0.Z = z0[0]
	k1.Z = z
	return k0, k1, nil
}

// ICEval evaluates party b's share of the interval containment at
// the masked input xHat.
func ICEval[T beavy.Uint](b bool, p, q T, key *DCFKey[T], xHat T) T {
	out1 := DCFEval(b, key, xHat-p-1)
	out2 := DCFEval(b, key, xHat-q-2)

	var local T
	if b {
		if xHat > p {
			local++
		}
		if xHat > q+1 {
			local--
		}
	}
	return local - out1 + out2 + key.Z
}
