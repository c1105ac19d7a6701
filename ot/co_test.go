//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/markkurossi/beavy/p2p"
)

func TestCO(t *testing.T) {
	c0, c1 := p2p.Pipe()

	const count = 64

	wires := make([]Wire, count)
	for i := range wires {
		l0, err := NewLabel(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		l1, err := NewLabel(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		wires[i] = Wire{L0: l0, L1: l1}
	}

	flags := make([]bool, count)
	buf := make([]byte, count)
	rand.Read(buf)
	for i := range flags {
		flags[i] = buf[i]&1 == 1
	}
	result := make([]Label, count)

	var m sync.Mutex
	var firstErr error
	errf := func(err error) {
		m.Lock()
		defer m.Unlock()
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sender := NewCO(rand.Reader)
		errf(sender.InitSender(c0))
		errf(sender.Send(wires))
	}()
	go func() {
		defer wg.Done()
		receiver := NewCO(rand.Reader)
		errf(receiver.InitReceiver(c1))
		errf(receiver.Receive(flags, result))
	}()
	wg.Wait()

	if firstErr != nil {
		t.Fatal(firstErr)
	}
	for i := range wires {
		want := wires[i].L0
		if flags[i] {
			want = wires[i].L1
		}
		if !result[i].Equal(want) {
			t.Fatalf("OT %d: got %v, want %v", i, result[i], want)
		}
	}
}
