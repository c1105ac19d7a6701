//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/backend"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/fss"
	"github.com/markkurossi/beavy/p2p"
)

// party is one side of a two-party test evaluation.
type party struct {
	id int
	b  *backend.Backend
	p  *Provider
}

// runParties builds and evaluates the same circuit on both parties.
// The build callback constructs the circuit and returns a check
// function run after the evaluation.
func runParties(t *testing.T,
	build func(p *party) (func() error, error)) {

	t.Helper()

	c0, c1 := p2p.Pipe()
	conns := []*p2p.Conn{c0, c1}

	var m sync.Mutex
	var firstErr error
	errf := func(err error) {
		if err == nil {
			return
		}
		m.Lock()
		defer m.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	for id := 0; id < 2; id++ {
		id := id
		go func() {
			defer wg.Done()

			cfg := &beavy.Config{
				PartyID: id,
			}
			b, err := backend.New(cfg, conns[id])
			if err != nil {
				errf(err)
				return
			}
			p := NewProvider(cfg, b.Conn, b.Mux, b, b.OT, b.Arith,
				b.MyRNG, b.TheirRNG)

			check, err := build(&party{id: id, b: b, p: p})
			if err != nil {
				errf(err)
				return
			}
			if err := b.RunPreprocessing(); err != nil {
				errf(err)
				return
			}
			if err := b.EvaluateParallel(); err != nil {
				errf(err)
				return
			}
			if check != nil {
				errf(check())
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		t.Fatal(firstErr)
	}
}

func bitsOf(value uint64, n int) bitvec.BitVector {
	bv := bitvec.New(n)
	for i := 0; i < n; i++ {
		if (value>>i)&1 == 1 {
			bv.Set(i, true)
		}
	}
	return bv
}

// Scenario: arithmetic input/output round-trip for every ring width
// and output owner.
func testRoundTrip[T beavy.Uint](t *testing.T, value T, owner int) {
	runParties(t, func(p *party) (func() error, error) {
		var result *Promise[[]T]
		var err error

		if p.id == 0 {
			var set func([]T)
			var wire *ArithmeticWire[T]
			set, wire, err = MakeArithmeticInputGateMine[T](p.p, 1)
			if err != nil {
				return nil, err
			}
			set([]T{value})
			result, err = MakeArithmeticOutputGate(p.p, wire, owner)
		} else {
			var wire *ArithmeticWire[T]
			wire, err = MakeArithmeticInputGateTheirs[T](p.p, 1)
			if err != nil {
				return nil, err
			}
			result, err = MakeArithmeticOutputGate(p.p, wire, owner)
		}
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			if owner != beavy.AllParties && owner != id {
				return nil
			}
			got := result.Get()
			if len(got) != 1 || got[0] != value {
				t.Errorf("party %d: got %v, want %d", id, got, value)
			}
			return nil
		}, nil
	})
}

func TestArithmeticRoundTrip(t *testing.T) {
	for _, owner := range []int{0, 1, beavy.AllParties} {
		testRoundTrip[uint8](t, 123, owner)
		testRoundTrip[uint16](t, 12345, owner)
		testRoundTrip[uint32](t, 12345678, owner)
		testRoundTrip[uint64](t, 1234567890123, owner)
	}
}

// Scenario: BEAVY AND of two fresh Boolean wires.
func testAND(t *testing.T, numSIMD int, aBits, bBits bitvec.BitVector) {
	runParties(t, func(p *party) (func() error, error) {
		var wiresA, wiresB []*BooleanWire
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, wiresA, err = p.p.MakeBooleanInputGateMine(1, numSIMD)
			if err != nil {
				return nil, err
			}
			set([]bitvec.BitVector{aBits})
			wiresB, err = p.p.MakeBooleanInputGateTheirs(1, numSIMD)
		} else {
			wiresA, err = p.p.MakeBooleanInputGateTheirs(1, numSIMD)
			if err != nil {
				return nil, err
			}
			var set func([]bitvec.BitVector)
			set, wiresB, err = p.p.MakeBooleanInputGateMine(1, numSIMD)
			if err != nil {
				return nil, err
			}
			set([]bitvec.BitVector{bBits})
		}
		if err != nil {
			return nil, err
		}
		outs, err := p.p.MakeANDGate(wiresA, wiresB)
		if err != nil {
			return nil, err
		}
		result, err := p.p.MakeBooleanOutputGate(outs, beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()[0]
			for i := 0; i < numSIMD; i++ {
				want := aBits.Get(i) && bBits.Get(i)
				if got.Get(i) != want {
					t.Errorf("party %d: AND slot %d: got %v, want %v",
						id, i, got.Get(i), want)
				}
			}
			return nil
		}, nil
	})
}

func TestBooleanAND(t *testing.T) {
	testAND(t, 1, bitsOf(1, 1), bitsOf(0, 1))
	testAND(t, 1, bitsOf(1, 1), bitsOf(1, 1))
	testAND(t, 1, bitsOf(0, 1), bitsOf(0, 1))

	a, err := bitvec.Random(rand.Reader, 256)
	if err != nil {
		t.Fatal(err)
	}
	b, err := bitvec.Random(rand.Reader, 256)
	if err != nil {
		t.Fatal(err)
	}
	testAND(t, 256, a, b)
}

func TestBooleanXORINV(t *testing.T) {
	const numSIMD = 64
	a, err := bitvec.Random(rand.Reader, numSIMD)
	if err != nil {
		t.Fatal(err)
	}
	b, err := bitvec.Random(rand.Reader, numSIMD)
	if err != nil {
		t.Fatal(err)
	}
	runParties(t, func(p *party) (func() error, error) {
		var wiresA, wiresB []*BooleanWire
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, wiresA, err = p.p.MakeBooleanInputGateMine(1, numSIMD)
			if err != nil {
				return nil, err
			}
			set([]bitvec.BitVector{a})
			wiresB, err = p.p.MakeBooleanInputGateTheirs(1, numSIMD)
		} else {
			wiresA, err = p.p.MakeBooleanInputGateTheirs(1, numSIMD)
			if err != nil {
				return nil, err
			}
			var set func([]bitvec.BitVector)
			set, wiresB, err = p.p.MakeBooleanInputGateMine(1, numSIMD)
			if err != nil {
				return nil, err
			}
			set([]bitvec.BitVector{b})
		}
		if err != nil {
			return nil, err
		}
		xored, err := p.p.MakeXORGate(wiresA, wiresB)
		if err != nil {
			return nil, err
		}
		inverted, err := p.p.MakeINVGate(xored)
		if err != nil {
			return nil, err
		}
		result, err := p.p.MakeBooleanOutputGate(inverted, beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()[0]
			for i := 0; i < numSIMD; i++ {
				want := !(a.Get(i) != b.Get(i))
				if got.Get(i) != want {
					t.Errorf("party %d: XNOR slot %d: got %v, want %v",
						id, i, got.Get(i), want)
				}
			}
			return nil
		}, nil
	})
}

// Scenario: BEAVY MUL W=32, SIMD=4.
func TestArithmeticMUL(t *testing.T) {
	a := []uint32{1, 2, 3, 4}
	b := []uint32{10, 20, 30, 40}
	want := []uint32{10, 40, 90, 160}

	runParties(t, func(p *party) (func() error, error) {
		var wireA, wireB *ArithmeticWire[uint32]
		var err error

		if p.id == 0 {
			var set func([]uint32)
			set, wireA, err = MakeArithmeticInputGateMine[uint32](p.p, 4)
			if err != nil {
				return nil, err
			}
			set(a)
			wireB, err = MakeArithmeticInputGateTheirs[uint32](p.p, 4)
		} else {
			wireA, err = MakeArithmeticInputGateTheirs[uint32](p.p, 4)
			if err != nil {
				return nil, err
			}
			var set func([]uint32)
			set, wireB, err = MakeArithmeticInputGateMine[uint32](p.p, 4)
			if err != nil {
				return nil, err
			}
			set(b)
		}
		if err != nil {
			return nil, err
		}
		product, err := MakeMULGate(p.p, wireA, wireB)
		if err != nil {
			return nil, err
		}
		result, err := MakeArithmeticOutputGate(p.p, product,
			beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("party %d: MUL slot %d: got %d, want %d",
						id, i, got[i], want[i])
				}
			}
			return nil
		}, nil
	})
}

func TestArithmeticADDNEGSQR(t *testing.T) {
	const numSIMD = 3
	a := []uint64{100, 200, 1 << 40}
	b := []uint64{7, 9, 11}

	runParties(t, func(p *party) (func() error, error) {
		var wireA, wireB *ArithmeticWire[uint64]
		var err error

		if p.id == 0 {
			var set func([]uint64)
			set, wireA, err = MakeArithmeticInputGateMine[uint64](p.p,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(a)
			wireB, err = MakeArithmeticInputGateTheirs[uint64](p.p, numSIMD)
		} else {
			wireA, err = MakeArithmeticInputGateTheirs[uint64](p.p, numSIMD)
			if err != nil {
				return nil, err
			}
			var set func([]uint64)
			set, wireB, err = MakeArithmeticInputGateMine[uint64](p.p,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(b)
		}
		if err != nil {
			return nil, err
		}
		sum, err := MakeADDGate(p.p, wireA, wireB)
		if err != nil {
			return nil, err
		}
		neg, err := MakeNEGGate(p.p, sum)
		if err != nil {
			return nil, err
		}
		sqr, err := MakeSQRGate(p.p, neg)
		if err != nil {
			return nil, err
		}
		result, err := MakeArithmeticOutputGate(p.p, sqr, beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()
			for i := 0; i < numSIMD; i++ {
				s := a[i] + b[i]
				want := s * s
				if got[i] != want {
					t.Errorf("party %d: slot %d: got %d, want %d",
						id, i, got[i], want)
				}
			}
			return nil
		}, nil
	})
}

// Scenario: bit-to-arithmetic conversion of random bits.
func TestBitToArithmetic(t *testing.T) {
	const numSIMD = 8
	bits, err := bitvec.Random(rand.Reader, numSIMD)
	if err != nil {
		t.Fatal(err)
	}

	runParties(t, func(p *party) (func() error, error) {
		var wires []*BooleanWire
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, wires, err = p.p.MakeBooleanInputGateMine(1, numSIMD)
			if err != nil {
				return nil, err
			}
			set([]bitvec.BitVector{bits})
		} else {
			wires, err = p.p.MakeBooleanInputGateTheirs(1, numSIMD)
		}
		if err != nil {
			return nil, err
		}
		converted, err := MakeBitToArithmeticGate[uint32](p.p, wires[0])
		if err != nil {
			return nil, err
		}
		result, err := MakeArithmeticOutputGate(p.p, converted,
			beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()
			for i := 0; i < numSIMD; i++ {
				var want uint32
				if bits.Get(i) {
					want = 1
				}
				if got[i] != want {
					t.Errorf("party %d: B2A slot %d: got %d, want %d",
						id, i, got[i], want)
				}
			}
			return nil
		}, nil
	})
}

// Scenario: popcount of 16 Boolean wires; 0x1234 has 5 set bits.
func TestHAM(t *testing.T) {
	const numWires = 16
	const value = 0x1234

	inputs := make([]bitvec.BitVector, numWires)
	for i := range inputs {
		inputs[i] = bitsOf(uint64(value>>i), 1)
	}

	runParties(t, func(p *party) (func() error, error) {
		var wires []*BooleanWire
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, wires, err = p.p.MakeBooleanInputGateMine(numWires, 1)
			if err != nil {
				return nil, err
			}
			set(inputs)
		} else {
			wires, err = p.p.MakeBooleanInputGateTheirs(numWires, 1)
		}
		if err != nil {
			return nil, err
		}
		ham, err := MakeHAMGate[uint16](p.p, wires)
		if err != nil {
			return nil, err
		}
		result, err := MakeArithmeticOutputGate(p.p, ham, beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()
			if got[0] != 5 {
				t.Errorf("party %d: popcount: got %d, want 5", id, got[0])
			}
			return nil
		}, nil
	})
}

func TestBooleanXArithmeticMUL(t *testing.T) {
	const numSIMD = 4
	bits := bitsOf(0b0101, numSIMD)
	values := []uint64{11, 22, 33, 44}

	runParties(t, func(p *party) (func() error, error) {
		var boolWires []*BooleanWire
		var intWire *ArithmeticWire[uint64]
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, boolWires, err = p.p.MakeBooleanInputGateMine(1, numSIMD)
			if err != nil {
				return nil, err
			}
			set([]bitvec.BitVector{bits})
			intWire, err = MakeArithmeticInputGateTheirs[uint64](p.p,
				numSIMD)
		} else {
			boolWires, err = p.p.MakeBooleanInputGateTheirs(1, numSIMD)
			if err != nil {
				return nil, err
			}
			var set func([]uint64)
			set, intWire, err = MakeArithmeticInputGateMine[uint64](p.p,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(values)
		}
		if err != nil {
			return nil, err
		}
		product, err := MakeBooleanXArithmeticMULGate(p.p, boolWires[0],
			intWire)
		if err != nil {
			return nil, err
		}
		result, err := MakeArithmeticOutputGate(p.p, product,
			beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()
			for i := 0; i < numSIMD; i++ {
				var want uint64
				if bits.Get(i) {
					want = values[i]
				}
				if got[i] != want {
					t.Errorf("party %d: bit*int slot %d: got %d, want %d",
						id, i, got[i], want)
				}
			}
			return nil
		}, nil
	})
}

func TestDOT(t *testing.T) {
	const numWires = 8
	const numSIMD = 16

	a := make([]bitvec.BitVector, numWires)
	b := make([]bitvec.BitVector, numWires)
	for i := 0; i < numWires; i++ {
		var err error
		a[i], err = bitvec.Random(rand.Reader, numSIMD)
		if err != nil {
			t.Fatal(err)
		}
		b[i], err = bitvec.Random(rand.Reader, numSIMD)
		if err != nil {
			t.Fatal(err)
		}
	}

	runParties(t, func(p *party) (func() error, error) {
		var wiresA, wiresB []*BooleanWire
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, wiresA, err = p.p.MakeBooleanInputGateMine(numWires,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(a)
			wiresB, err = p.p.MakeBooleanInputGateTheirs(numWires, numSIMD)
		} else {
			wiresA, err = p.p.MakeBooleanInputGateTheirs(numWires, numSIMD)
			if err != nil {
				return nil, err
			}
			var set func([]bitvec.BitVector)
			set, wiresB, err = p.p.MakeBooleanInputGateMine(numWires,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(b)
		}
		if err != nil {
			return nil, err
		}
		dot, err := p.p.MakeDOTGate(wiresA, wiresB)
		if err != nil {
			return nil, err
		}
		result, err := p.p.MakeBooleanOutputGate([]*BooleanWire{dot},
			beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()[0]
			for j := 0; j < numSIMD; j++ {
				want := false
				for i := 0; i < numWires; i++ {
					if a[i].Get(j) && b[i].Get(j) {
						want = !want
					}
				}
				if got.Get(j) != want {
					t.Errorf("party %d: DOT slot %d: got %v, want %v",
						id, j, got.Get(j), want)
				}
			}
			return nil
		}, nil
	})
}

func TestMULNIOutputShare(t *testing.T) {
	const numSIMD = 2
	a := []uint32{3, 5}
	b := []uint32{7, 9}

	// Collect both parties' additive public shares.
	var m sync.Mutex
	shares := make([][]uint32, 2)

	runParties(t, func(p *party) (func() error, error) {
		var wireA, wireB *ArithmeticWire[uint32]
		var err error

		if p.id == 0 {
			var set func([]uint32)
			set, wireA, err = MakeArithmeticInputGateMine[uint32](p.p,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(a)
			wireB, err = MakeArithmeticInputGateTheirs[uint32](p.p, numSIMD)
		} else {
			wireA, err = MakeArithmeticInputGateTheirs[uint32](p.p, numSIMD)
			if err != nil {
				return nil, err
			}
			var set func([]uint32)
			set, wireB, err = MakeArithmeticInputGateMine[uint32](p.p,
				numSIMD)
			if err != nil {
				return nil, err
			}
			set(b)
		}
		if err != nil {
			return nil, err
		}
		product, err := MakeMULNIGate(p.p, wireA, wireB)
		if err != nil {
			return nil, err
		}
		_, public := MakeArithmeticOutputShareGate(p.p, product)
		id := p.id
		return func() error {
			m.Lock()
			defer m.Unlock()
			shares[id] = public.Get()
			return nil
		}, nil
	})

	for i := 0; i < numSIMD; i++ {
		got := shares[0][i] + shares[1][i]
		want := a[i] * b[i]
		if got != want {
			t.Errorf("MULNI slot %d: got %d, want %d", i, got, want)
		}
	}
}

func TestEQEXP(t *testing.T) {
	const vecSize = 16

	// Manually shared wires with zero masks, so the public shares
	// are the plaintext positions.
	mkWire := func(values []uint32) *ArithmeticWire[uint32] {
		w := NewArithmeticWire[uint32](len(values))
		w.SecretShare = make([]uint32, len(values))
		w.SetSetupReady()
		w.PublicShare = values
		w.SetOnlineReady()
		return w
	}

	a := []uint32{3, 7, 12}
	b := []uint32{3, 8, 12 + vecSize}

	runParties(t, func(p *party) (func() error, error) {
		wireA := mkWire(a)
		wireB := mkWire(b)

		eq, err := MakeEQEXPGate(p.p, wireA, wireB, vecSize)
		if err != nil {
			return nil, err
		}
		result, err := p.p.MakeBooleanOutputGate([]*BooleanWire{eq},
			beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result.Get()[0]
			for i := range a {
				want := a[i]%vecSize == b[i]%vecSize
				if got.Get(i) != want {
					t.Errorf("party %d: EQEXP slot %d: got %v, want %v",
						id, i, got.Get(i), want)
				}
			}
			return nil
		}, nil
	})
}

func TestDPFGate(t *testing.T) {
	const mask0 uint16 = 1111
	const mask1 uint16 = 2222
	const target uint16 = 345
	const beta uint16 = 1

	// Dealer: the DPF point is the target shifted by the wire's
	// total mask.
	k0, k1, err := fss.DPFGen[uint16](target+mask0+mask1, beta, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	keys := []*fss.DPFKey[uint16]{k0, k1}
	masks := []uint16{mask0, mask1}

	inputs := []uint16{345, 346}

	var m sync.Mutex
	shares := make([][]uint16, 2)

	runParties(t, func(p *party) (func() error, error) {
		wire := NewArithmeticWire[uint16](len(inputs))
		wire.SecretShare = make([]uint16, len(inputs))
		for i := range wire.SecretShare {
			wire.SecretShare[i] = masks[p.id]
		}
		wire.SetSetupReady()
		wire.PublicShare = make([]uint16, len(inputs))
		for i, x := range inputs {
			wire.PublicShare[i] = x + mask0 + mask1
		}
		wire.SetOnlineReady()

		out, err := MakeDPFGate(p.p, wire, keys[p.id])
		if err != nil {
			return nil, err
		}
		_, public := MakeArithmeticOutputShareGate(p.p, out)
		id := p.id
		return func() error {
			m.Lock()
			defer m.Unlock()
			shares[id] = public.Get()
			return nil
		}, nil
	})

	for i, x := range inputs {
		got := shares[0][i] + shares[1][i]
		var want uint16
		if x == target {
			want = beta
		}
		if got != want {
			t.Errorf("DPF slot %d: got %d, want %d", i, got, want)
		}
	}
}

func TestICGate(t *testing.T) {
	const p0 uint32 = 10
	const q0 uint32 = 100
	const mask uint32 = 987654

	k0, k1, err := fss.ICGen[uint32](mask, 0, p0, q0, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	keys := []*fss.DCFKey[uint32]{k0, k1}

	inputs := []uint32{5, 10, 50, 100, 101}

	var m sync.Mutex
	shares := make([][]uint32, 2)

	runParties(t, func(p *party) (func() error, error) {
		wire := NewArithmeticWire[uint32](len(inputs))
		wire.SecretShare = make([]uint32, len(inputs))
		wire.SetSetupReady()
		wire.PublicShare = make([]uint32, len(inputs))
		for i, x := range inputs {
			wire.PublicShare[i] = x + mask
		}
		wire.SetOnlineReady()

		out, err := MakeICGate(p.p, wire, keys[p.id], p0, q0)
		if err != nil {
			return nil, err
		}
		_, public := MakeArithmeticOutputShareGate(p.p, out)
		id := p.id
		return func() error {
			m.Lock()
			defer m.Unlock()
			shares[id] = public.Get()
			return nil
		}, nil
	})

	for i, x := range inputs {
		got := shares[0][i] + shares[1][i]
		var want uint32
		if x >= p0 && x <= q0 {
			want = 1
		}
		if got != want {
			t.Errorf("IC slot %d: x=%d: got %d, want %d", i, x, got, want)
		}
	}
}
