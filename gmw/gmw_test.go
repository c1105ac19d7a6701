//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/backend"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/p2p"
)

type party struct {
	id int
	b  *backend.Backend
	p  *Provider
}

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
			p := NewProvider(cfg, b.Conn, b.Mux, b, b.MT, b.SP, b.SB,
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

func TestBooleanCircuit(t *testing.T) {
	const numSIMD = 128
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
		// (a AND b) XOR (NOT a)
		anded, err := p.p.MakeANDGate(wiresA, wiresB)
		if err != nil {
			return nil, err
		}
		inverted, err := p.p.MakeINVGate(wiresA)
		if err != nil {
			return nil, err
		}
		xored, err := p.p.MakeXORGate(anded, inverted)
		if err != nil {
			return nil, err
		}
		result, err := p.p.MakeBooleanOutputGate(xored, beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result()[0]
			for i := 0; i < numSIMD; i++ {
				want := (a.Get(i) && b.Get(i)) != !a.Get(i)
				if got.Get(i) != want {
					t.Errorf("party %d: slot %d: got %v, want %v",
						id, i, got.Get(i), want)
				}
			}
			return nil
		}, nil
	})
}

func TestArithmeticCircuit(t *testing.T) {
	const numSIMD = 8
	a, err := beavy.RandomVector[uint64](rand.Reader, numSIMD)
	if err != nil {
		t.Fatal(err)
	}
	b, err := beavy.RandomVector[uint64](rand.Reader, numSIMD)
	if err != nil {
		t.Fatal(err)
	}

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
		// (a*b + (-a))^2
		product, err := MakeMULGate(p.p, wireA, wireB)
		if err != nil {
			return nil, err
		}
		neg, err := MakeNEGGate(p.p, wireA)
		if err != nil {
			return nil, err
		}
		sum, err := MakeADDGate(p.p, product, neg)
		if err != nil {
			return nil, err
		}
		sqr, err := MakeSQRGate(p.p, sum)
		if err != nil {
			return nil, err
		}
		result, err := MakeArithmeticOutputGate(p.p, sqr, beavy.AllParties)
		if err != nil {
			return nil, err
		}
		id := p.id
		return func() error {
			got := result()
			for i := 0; i < numSIMD; i++ {
				v := a[i]*b[i] - a[i]
				want := v * v
				if got[i] != want {
					t.Errorf("party %d: slot %d: got %d, want %d",
						id, i, got[i], want)
				}
			}
			return nil
		}, nil
	})
}

func TestBooleanToArithmetic(t *testing.T) {
	const numSIMD = 4
	values := []uint16{0x1234, 0xffff, 0, 42}

	inputs := make([]bitvec.BitVector, 16)
	for i := range inputs {
		inputs[i] = bitvec.New(numSIMD)
		for j, v := range values {
			if (v>>i)&1 == 1 {
				inputs[i].Set(j, true)
			}
		}
	}

	runParties(t, func(p *party) (func() error, error) {
		var wires []*BooleanWire
		var err error

		if p.id == 0 {
			var set func([]bitvec.BitVector)
			set, wires, err = p.p.MakeBooleanInputGateMine(16, numSIMD)
			if err != nil {
				return nil, err
			}
			set(inputs)
		} else {
			wires, err = p.p.MakeBooleanInputGateTheirs(16, numSIMD)
		}
		if err != nil {
			return nil, err
		}
		converted, err := MakeBooleanToArithmeticGate[uint16](p.p, wires)
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
			got := result()
			for j, want := range values {
				if got[j] != want {
					t.Errorf("party %d: slot %d: got %#x, want %#x",
						id, j, got[j], want)
				}
			}
			return nil
		}, nil
	})
}
