//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package fss

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/beavy"
)

func TestDPF(t *testing.T) {
	const alpha uint16 = 12345
	const beta uint16 = 7

	k0, k1, err := DPFGen[uint16](alpha, beta, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	// On the point.
	sum := DPFEval(false, k0, alpha) + DPFEval(true, k1, alpha)
	if sum != beta {
		t.Errorf("DPF(alpha): got %d, want %d", sum, beta)
	}

	// Off the point.
	for _, x := range []uint16{0, 1, alpha - 1, alpha + 1, 65535} {
		sum := DPFEval(false, k0, x) + DPFEval(true, k1, x)
		if sum != 0 {
			t.Errorf("DPF(%d): got %d, want 0", x, sum)
		}
	}

	// Random probes.
	probes, err := beavy.RandomVector[uint16](rand.Reader, 64)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range probes {
		sum := DPFEval(false, k0, x) + DPFEval(true, k1, x)
		var want uint16
		if x == alpha {
			want = beta
		}
		if sum != want {
			t.Errorf("DPF(%d): got %d, want %d", x, sum, want)
		}
	}
}

func TestDPF64(t *testing.T) {
	const alpha uint64 = 0xdeadbeefcafe
	const beta uint64 = 1

	k0, k1, err := DPFGen[uint64](alpha, beta, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if got := DPFEval(false, k0, alpha) + DPFEval(true, k1, alpha); got != beta {
		t.Errorf("DPF(alpha): got %d, want %d", got, beta)
	}
	if got := DPFEval(false, k0, alpha^1) + DPFEval(true, k1, alpha^1); got != 0 {
		t.Errorf("DPF(alpha^1): got %d, want 0", got)
	}
}

func TestDCF(t *testing.T) {
	const alpha uint16 = 30000
	const beta uint16 = 3

	k0, k1, err := DCFGen[uint16](alpha, beta, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	check := func(x uint16) {
		t.Helper()
		sum := DCFEval(false, k0, x) + DCFEval(true, k1, x)
		var want uint16
		if x < alpha {
			want = beta
		}
		if sum != want {
			t.Errorf("DCF(%d): got %d, want %d", x, sum, want)
		}
	}

	for _, x := range []uint16{0, 1, alpha - 1, alpha, alpha + 1, 65535} {
		check(x)
	}
	probes, err := beavy.RandomVector[uint16](rand.Reader, 64)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range probes {
		check(x)
	}
}

func TestIC(t *testing.T) {
	const p uint32 = 100
	const q uint32 = 1000

	rv, err := beavy.RandomVector[uint32](rand.Reader, 2)
	if err != nil {
		t.Fatal(err)
	}
	rIn := rv[0]

	k0, k1, err := ICGen[uint32](rIn, 0, p, q, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	check := func(x uint32) {
		t.Helper()
		xHat := x + rIn
		sum := ICEval(false, p, q, k0, xHat) + ICEval(true, p, q, k1, xHat)
		var want uint32
		if x >= p && x <= q {
			want = 1
		}
		if sum != want {
			t.Errorf("IC(%d): got %d, want %d", x, sum, want)
		}
	}

	for _, x := range []uint32{0, p - 1, p, p + 1, 500, q - 1, q, q + 1,
		100000} {
		check(x)
	}
	probes, err := beavy.RandomVector[uint32](rand.Reader, 32)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range probes {
		check(x % 2000)
	}
}
