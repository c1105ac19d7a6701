//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package backend

import (
	"sync"
	"testing"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/circuit"
	"github.com/markkurossi/beavy/p2p"
)

// TestEvaluateAndReset evaluates a circuit sequentially, resets the
// backend, and evaluates another circuit on the same connection.
func TestEvaluateAndReset(t *testing.T) {
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

	evaluate := func(b *Backend, id int, value uint32, sequential bool) {
		cfg := &beavy.Config{
			PartyID: id,
		}
		p := circuit.NewProvider(cfg, b.Conn, b.Mux, b, b.OT, b.Arith,
			b.MyRNG, b.TheirRNG)

		var result *circuit.Promise[[]uint32]
		var err error
		if id == 0 {
			var set func([]uint32)
			var wire *circuit.ArithmeticWire[uint32]
			set, wire, err = circuit.MakeArithmeticInputGateMine[uint32](
				p, 1)
			if err != nil {
				errf(err)
				return
			}
			set([]uint32{value})
			sqr, err := circuit.MakeSQRGate(p, wire)
			if err != nil {
				errf(err)
				return
			}
			result, err = circuit.MakeArithmeticOutputGate(p, sqr,
				beavy.AllParties)
			if err != nil {
				errf(err)
				return
			}
		} else {
			wire, err := circuit.MakeArithmeticInputGateTheirs[uint32](p, 1)
			if err != nil {
				errf(err)
				return
			}
			sqr, err := circuit.MakeSQRGate(p, wire)
			if err != nil {
				errf(err)
				return
			}
			result, err = circuit.MakeArithmeticOutputGate(p, sqr,
				beavy.AllParties)
			if err != nil {
				errf(err)
				return
			}
		}
		if err := b.RunPreprocessing(); err != nil {
			errf(err)
			return
		}
		if sequential {
			err = b.EvaluateSequential()
		} else {
			err = b.EvaluateParallel()
		}
		if err != nil {
			errf(err)
			return
		}
		got := result.Get()
		if got[0] != value*value {
			m.Lock()
			defer m.Unlock()
			t.Errorf("party %d: got %d, want %d", id, got[0], value*value)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	for id := 0; id < 2; id++ {
		id := id
		go func() {
			defer wg.Done()

			b, err := New(&beavy.Config{PartyID: id}, conns[id])
			if err != nil {
				errf(err)
				return
			}
			evaluate(b, id, 7, true)

			// Fence and reset, then run a fresh circuit on the
			// same backend.
			if err := b.Sync(); err != nil {
				errf(err)
				return
			}
			b.Clear()
			evaluate(b, id, 1234, false)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		t.Fatal(firstErr)
	}
}
