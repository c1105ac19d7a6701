//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package arith

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/ot"
	"github.com/markkurossi/beavy/otext"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/prg"
)

var m sync.Mutex
var ferr error

func errf(err error) {
	if err == nil {
		return
	}
	m.Lock()
	defer m.Unlock()
	if ferr == nil {
		ferr = err
	}
}

func newProviders(t *testing.T) (*Provider, *Provider, *otext.Provider,
	*otext.Provider) {

	t.Helper()
	m.Lock()
	ferr = nil
	m.Unlock()

	c0, c1 := p2p.Pipe()

	var fixedKey [16]byte
	rand.Read(fixedKey[:])

	ot0 := otext.NewProvider(c0, 0, rand.Reader, prg.NewFixedKey(fixedKey[:]))
	ot1 := otext.NewProvider(c1, 1, rand.Reader, prg.NewFixedKey(fixedKey[:]))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errf(ot0.RunBaseOTs(func() ot.OT { return ot.NewCO(rand.Reader) }))
	}()
	go func() {
		defer wg.Done()
		errf(ot1.RunBaseOTs(func() ot.OT { return ot.NewCO(rand.Reader) }))
	}()
	wg.Wait()
	if ferr != nil {
		t.Fatal(ferr)
	}
	ot0.Start(p2p.NewMux(c0))
	ot1.Start(p2p.NewMux(c1))

	return NewProvider(ot0), NewProvider(ot1), ot0, ot1
}

func TestMultiplication(t *testing.T) {
	p0, p1, ot0, ot1 := newProviders(t)

	const numMuls = 10

	xs, err := beavy.RandomVector[uint32](rand.Reader, numMuls)
	if err != nil {
		t.Fatal(err)
	}
	ys, err := beavy.RandomVector[uint32](rand.Reader, numMuls)
	if err != nil {
		t.Fatal(err)
	}

	sender, err := RegisterMultiplicationSend[uint32](p0, numMuls, 1)
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := RegisterMultiplicationReceive[uint32](p1, numMuls, 1)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errf(ot0.SendSetup())
		errf(ot0.ReceiveSetup())
		errf(sender.SetInputs(xs))
		errf(sender.ComputeOutputs())
	}()
	go func() {
		defer wg.Done()
		errf(ot1.ReceiveSetup())
		errf(ot1.SendSetup())
		errf(receiver.SetInputs(ys))
		errf(receiver.ComputeOutputs())
	}()
	wg.Wait()
	if ferr != nil {
		t.Fatal(ferr)
	}

	sndOut := sender.GetOutputs()
	rcvOut := receiver.GetOutputs()
	for i := 0; i < numMuls; i++ {
		got := sndOut[i] + rcvOut[i]
		want := xs[i] * ys[i]
		if got != want {
			t.Fatalf("mul %d: %d*%d: got %d, want %d",
				i, xs[i], ys[i], got, want)
		}
	}
}

func TestBitMultiplication(t *testing.T) {
	p0, p1, ot0, ot1 := newProviders(t)

	const numMuls = 64
	const vectorSize = 2

	ints, err := beavy.RandomVector[uint64](rand.Reader, numMuls*vectorSize)
	if err != nil {
		t.Fatal(err)
	}
	bits, err := bitvec.Random(rand.Reader, numMuls)
	if err != nil {
		t.Fatal(err)
	}

	intSide, err := RegisterBitMultiplicationIntSide[uint64](p0, numMuls,
		vectorSize)
	if err != nil {
		t.Fatal(err)
	}
	bitSide, err := RegisterBitMultiplicationBitSide[uint64](p1, numMuls,
		vectorSize)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errf(ot0.SendSetup())
		errf(ot0.ReceiveSetup())
		errf(intSide.SetInputs(ints))
		errf(intSide.ComputeOutputs())
	}()
	go func() {
		defer wg.Done()
		errf(ot1.ReceiveSetup())
		errf(ot1.SendSetup())
		errf(bitSide.SetInputs(bits))
		errf(bitSide.ComputeOutputs())
	}()
	wg.Wait()
	if ferr != nil {
		t.Fatal(ferr)
	}

	intOut := intSide.GetOutputs()
	bitOut := bitSide.GetOutputs()
	for i := 0; i < numMuls; i++ {
		for k := 0; k < vectorSize; k++ {
			got := intOut[i*vectorSize+k] + bitOut[i*vectorSize+k]
			var want uint64
			if bits.Get(i) {
				want = ints[i*vectorSize+k]
			}
			if got != want {
				t.Fatalf("bitmul %d.%d: got %d, want %d", i, k, got, want)
			}
		}
	}
}
